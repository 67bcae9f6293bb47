package config

import (
	"fmt"

	"cuelang.org/go/cue"
)

func lookupKind(section cue.Value, prefix, name string, kind cue.Kind) (cue.Value, bool, error) {
	f := section.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return f, false, nil
	}
	if f.Kind() != kind {
		return f, false, fmt.Errorf("invalid type for field: %s.%s (expected %s)", prefix, name, kind)
	}
	return f, true, nil
}

func decodeStrings(f cue.Value, field string) ([]string, error) {
	var out []string
	if err := f.Decode(&out); err != nil {
		return nil, fmt.Errorf("invalid value for %s: %v", field, err)
	}
	return out, nil
}

// parseDiscoverySection extracts optional discovery.* fields.
func parseDiscoverySection(v cue.Value) (Discovery, error) {
	var d Discovery
	dv := v.LookupPath(cue.ParsePath("discovery"))
	if !dv.Exists() {
		return d, nil
	}
	rv, ok, err := lookupKind(dv, "discovery", "root", cue.StringKind)
	if err != nil {
		return d, err
	}
	if ok {
		if err := rv.Decode(&d.Root); err == nil {
			d.HasRoot = true
		}
	}
	ev, ok, err := lookupKind(dv, "discovery", "extensions", cue.ListKind)
	if err != nil {
		return d, err
	}
	if ok {
		if d.Extensions, err = decodeStrings(ev, "discovery.extensions"); err != nil {
			return d, err
		}
		d.HasExtensions = len(d.Extensions) > 0
	}
	gv, ok, err := lookupKind(dv, "discovery", "gitignore", cue.BoolKind)
	if err != nil {
		return d, err
	}
	if ok {
		if err := gv.Decode(&d.Gitignore); err == nil {
			d.HasGitignore = true
		}
	}
	fv, ok, err := lookupKind(dv, "discovery", "followSymlinks", cue.BoolKind)
	if err != nil {
		return d, err
	}
	if ok {
		if err := fv.Decode(&d.FollowSymlinks); err == nil {
			d.HasFollowSymlinks = true
		}
	}
	return d, nil
}

// parseRewriteSection extracts optional rewrite.marker and rewrite.attributes.
func parseRewriteSection(v cue.Value) (Rewrite, error) {
	var r Rewrite
	rv := v.LookupPath(cue.ParsePath("rewrite"))
	if !rv.Exists() {
		return r, nil
	}
	mv, ok, err := lookupKind(rv, "rewrite", "marker", cue.StringKind)
	if err != nil {
		return r, err
	}
	if ok {
		if err := mv.Decode(&r.Marker); err == nil && r.Marker != "" {
			r.HasMarker = true
		}
	}
	av, ok, err := lookupKind(rv, "rewrite", "attributes", cue.ListKind)
	if err != nil {
		return r, err
	}
	if ok {
		if r.Attributes, err = decodeStrings(av, "rewrite.attributes"); err != nil {
			return r, err
		}
		r.HasAttributes = len(r.Attributes) > 0
	}
	return r, nil
}

// parseFilterSection extracts optional filter.inline and filter.timeoutMs.
func parseFilterSection(v cue.Value) (Filter, error) {
	var f Filter
	fv := v.LookupPath(cue.ParsePath("filter"))
	if !fv.Exists() {
		return f, nil
	}
	iv, ok, err := lookupKind(fv, "filter", "inline", cue.StringKind)
	if err != nil {
		return f, err
	}
	if ok {
		if err := iv.Decode(&f.Inline); err == nil {
			f.HasInline = true
		}
	}
	tv, ok, err := lookupKind(fv, "filter", "timeoutMs", cue.IntKind)
	if err != nil {
		return f, err
	}
	if ok {
		if err := tv.Decode(&f.TimeoutMs); err == nil {
			f.HasTimeoutMs = true
		}
	}
	return f, nil
}

// parseReportSection extracts optional report.out.
func parseReportSection(v cue.Value) (Report, error) {
	var r Report
	rv := v.LookupPath(cue.ParsePath("report"))
	if !rv.Exists() {
		return r, nil
	}
	ov, ok, err := lookupKind(rv, "report", "out", cue.StringKind)
	if err != nil {
		return r, err
	}
	if ok {
		if err := ov.Decode(&r.Out); err == nil {
			r.HasOut = true
		}
	}
	return r, nil
}
