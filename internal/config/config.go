package config

import (
	"fmt"

	"cuelang.org/go/cue"
)

// Config holds the optional settings read from a .cue file. Every field
// carries a presence flag so that unset values fall through to defaults.
type Config struct {
	ConfigVersion string
	Discovery     Discovery
	Rewrite       Rewrite
	Filter        Filter
	Report        Report
	DryRun        bool
	HasDryRun     bool
}

// Discovery holds optional discovery config and presence flags.
type Discovery struct {
	Root              string
	Extensions        []string
	Gitignore         bool
	FollowSymlinks    bool
	HasRoot           bool
	HasExtensions     bool
	HasGitignore      bool
	HasFollowSymlinks bool
}

// Rewrite holds the variant marker and the attributes to rewrite.
type Rewrite struct {
	Marker        string
	Attributes    []string
	HasMarker     bool
	HasAttributes bool
}

// Filter holds the optional Lua path predicate.
type Filter struct {
	Inline       string
	TimeoutMs    int
	HasInline    bool
	HasTimeoutMs bool
}

// Report holds the optional YAML report destination.
type Report struct {
	Out    string
	HasOut bool
}

// Load validates and extracts the config at path.
// Required fields:
//   - configVersion: string, one of SupportedConfigVersions
func Load(path string) (Config, error) {
	v, err := compileCUE(path)
	if err != nil {
		return Config{}, err
	}
	if err := requireStringField(v, "configVersion"); err != nil {
		return Config{}, err
	}
	var c Config
	if err := v.LookupPath(cue.ParsePath("configVersion")).Decode(&c.ConfigVersion); err != nil {
		return Config{}, fmt.Errorf("invalid value for configVersion: %v", err)
	}
	if !IsSupportedConfigVersion(c.ConfigVersion) {
		return Config{}, fmt.Errorf("unsupported configVersion: %q (supported: %s)", c.ConfigVersion, SupportedConfigVersionsCSV())
	}
	if c.Discovery, err = parseDiscoverySection(v); err != nil {
		return Config{}, err
	}
	if c.Rewrite, err = parseRewriteSection(v); err != nil {
		return Config{}, err
	}
	if c.Filter, err = parseFilterSection(v); err != nil {
		return Config{}, err
	}
	if c.Report, err = parseReportSection(v); err != nil {
		return Config{}, err
	}
	dv := v.LookupPath(cue.ParsePath("dryRun"))
	if dv.Exists() {
		if dv.Kind() != cue.BoolKind {
			return Config{}, fmt.Errorf("invalid type for field: dryRun (expected bool)")
		}
		if err := dv.Decode(&c.DryRun); err == nil {
			c.HasDryRun = true
		}
	}
	return c, nil
}

func requireStringField(v cue.Value, name string) error {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return fmt.Errorf("missing required field: %s", name)
	}
	if f.Kind() != cue.StringKind {
		return fmt.Errorf("invalid type for field: %s (expected string)", name)
	}
	return nil
}
