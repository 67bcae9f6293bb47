package rewrite

import (
	"errors"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/flarebyte/darkonly/internal/classes"
	"go.uber.org/zap"
)

// DefaultAttributes lists the JSX attributes whose values are rewritten.
var DefaultAttributes = []string{"className"}

// ErrInvalidUTF8 is returned for files that are not UTF-8 text.
var ErrInvalidUTF8 = errors.New("invalid UTF-8 content")

// Rewriter locates class attribute values containing the variant marker and
// replaces them with their dark-only form.
type Rewriter struct {
	marker   string
	patterns []*regexp.Regexp
	log      *zap.Logger
}

// New compiles the double-quoted and template-literal patterns for the given
// attributes. Empty arguments fall back to the defaults.
func New(marker string, attributes []string, log *zap.Logger) *Rewriter {
	if marker == "" {
		marker = classes.DefaultMarker
	}
	if len(attributes) == 0 {
		attributes = DefaultAttributes
	}
	if log == nil {
		log = zap.NewNop()
	}
	quoted := make([]string, 0, len(attributes))
	for _, a := range attributes {
		quoted = append(quoted, regexp.QuoteMeta(a))
	}
	attr := quoted[0]
	if len(quoted) > 1 {
		attr = "(?:" + strings.Join(quoted, "|") + ")"
	}
	m := regexp.QuoteMeta(marker)
	return &Rewriter{
		marker: marker,
		patterns: []*regexp.Regexp{
			// attr="...marker..."
			regexp.MustCompile(attr + `="([^"]*` + m + `[^"]*)"`),
			// attr={`...marker...`}
			regexp.MustCompile(attr + "=\\{`([^`]*" + m + "[^`]*)`\\}"),
		},
		log: log,
	}
}

// Marker returns the variant prefix the rewriter looks for.
func (r *Rewriter) Marker() string { return r.marker }

// RewriteContent applies the transform to every matched class string and
// returns the new content with the number of values that changed.
func (r *Rewriter) RewriteContent(content string) (string, int) {
	changes := 0
	for _, re := range r.patterns {
		var n int
		content, n = r.replaceAll(re, content)
		changes += n
	}
	return content, changes
}

func (r *Rewriter) replaceAll(re *regexp.Regexp, content string) (string, int) {
	idx := re.FindAllStringSubmatchIndex(content, -1)
	if len(idx) == 0 {
		return content, 0
	}
	var b strings.Builder
	b.Grow(len(content))
	changes := 0
	last := 0
	for _, loc := range idx {
		start, end := loc[2], loc[3]
		value := content[start:end]
		a := classes.Analyze(value, r.marker)
		if len(a.Collisions) > 0 || len(a.Dropped) > 0 {
			r.log.Debug("class string lost tokens",
				zap.String("value", value),
				zap.Strings("dropped", a.Dropped),
				zap.Int("collisions", len(a.Collisions)))
		}
		for _, c := range a.Collisions {
			r.log.Debug("variant collision, last one wins",
				zap.String("property", c.Property),
				zap.String("dropped", c.Dropped),
				zap.String("kept", c.Kept))
		}
		if a.Output == value {
			continue
		}
		changes++
		b.WriteString(content[last:start])
		b.WriteString(a.Output)
		last = end
	}
	if changes == 0 {
		return content, 0
	}
	b.WriteString(content[last:])
	return b.String(), changes
}

// FileResult describes what happened to a single file.
type FileResult struct {
	Path    string
	Changes int
	Written bool
	Err     error
}

// Changed reports whether the file content differs after rewriting.
func (f FileResult) Changed() bool { return f.Err == nil && f.Changes > 0 }

// RewriteFile reads path, rewrites it and writes it back when the content
// changed and dryRun is false. Errors are returned in the result.
func (r *Rewriter) RewriteFile(path string, dryRun bool) FileResult {
	res := FileResult{Path: path}
	info, err := os.Stat(path)
	if err != nil {
		res.Err = err
		return res
	}
	b, err := os.ReadFile(path)
	if err != nil {
		res.Err = err
		return res
	}
	if !utf8.Valid(b) {
		res.Err = ErrInvalidUTF8
		return res
	}
	original := string(b)
	updated, changes := r.RewriteContent(original)
	if updated == original {
		return res
	}
	res.Changes = changes
	if dryRun {
		return res
	}
	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		res.Err = err
		return res
	}
	res.Written = true
	r.log.Debug("file rewritten", zap.String("path", path), zap.Int("changes", changes))
	return res
}
