package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/flarebyte/darkonly/internal/discover"
	"github.com/flarebyte/darkonly/internal/filter"
	"github.com/flarebyte/darkonly/internal/report"
	"github.com/flarebyte/darkonly/internal/rewrite"
	"go.uber.org/zap"
)

// DefaultSourceDir is the source directory under the project root.
const DefaultSourceDir = "src"

// ErrMissingRoot is returned when the source directory does not exist.
var ErrMissingRoot = errors.New("does not exist")

// Options controls a migration run.
type Options struct {
	Root       string
	Discovery  discover.Options
	Marker     string
	Attributes []string
	Filter     *filter.Predicate
	DryRun     bool
	ReportOut  string
	Logger     *zap.Logger
}

// Summary is the outcome of a run.
type Summary struct {
	Root    string
	Found   int
	Updated int
	Failed  int
	Files   []rewrite.FileResult
}

// Drift reports whether any file changed or would change.
func (s Summary) Drift() bool { return s.Updated > 0 }

// Run rewrites every discovered file under opts.Root, one at a time, writing
// status lines to w. Per-file failures are printed and counted; only a
// missing root or an unwritable report ends the run with an error.
func Run(ctx context.Context, opts Options, w io.Writer) (Summary, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	root := opts.Root
	sum := Summary{Root: root}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return sum, fmt.Errorf("%s %w", root, ErrMissingRoot)
	}
	log.Debug("source directory", zap.String("root", root), zap.Bool("dryRun", opts.DryRun))

	files, softErrs, err := discover.Find(root, opts.Discovery)
	if err != nil {
		return sum, fmt.Errorf("%s: %w", root, err)
	}
	for _, e := range softErrs {
		log.Warn("skipped during discovery", zap.Error(e))
	}
	sum.Found = len(files)
	fmt.Fprintf(w, "Found %d files to process\n\n", len(files))

	rw := rewrite.New(opts.Marker, opts.Attributes, log)
	label := rewrite.DefaultAttributes[0]
	if len(opts.Attributes) > 0 {
		label = opts.Attributes[0]
	}

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		path := filepath.Join(root, filepath.FromSlash(rel))
		keep, err := opts.Filter.Keep(ctx, rel)
		if err != nil {
			res := rewrite.FileResult{Path: path, Err: fmt.Errorf("filter: %w", err)}
			sum.record(res)
			fmt.Fprintf(w, "✗ Error processing %s: %v\n", path, res.Err)
			continue
		}
		if !keep {
			log.Debug("filtered out", zap.String("locator", rel))
			continue
		}

		res := rw.RewriteFile(path, opts.DryRun)
		sum.record(res)
		switch {
		case res.Err != nil:
			fmt.Fprintf(w, "✗ Error processing %s: %v\n", path, res.Err)
		case res.Changed() && opts.DryRun:
			fmt.Fprintf(w, "~ %s: %d %s strings would be updated\n", path, res.Changes, label)
		case res.Changed():
			fmt.Fprintf(w, "✓ %s: %d %s strings updated\n", path, res.Changes, label)
		}
	}

	if opts.DryRun {
		fmt.Fprintf(w, "\n✓ Done! %d files would be updated\n", sum.Updated)
	} else {
		fmt.Fprintf(w, "\n✓ Done! Updated %d files\n", sum.Updated)
	}

	if opts.ReportOut != "" {
		if err := report.Write(opts.ReportOut, sum.report(opts.DryRun)); err != nil {
			return sum, fmt.Errorf("failed to write report: %w", err)
		}
		log.Debug("report written", zap.String("path", opts.ReportOut))
	}
	return sum, nil
}

func (s *Summary) record(res rewrite.FileResult) {
	s.Files = append(s.Files, res)
	if res.Err != nil {
		s.Failed++
		return
	}
	if res.Changed() {
		s.Updated++
	}
}

func (s Summary) report(dryRun bool) report.Report {
	r := report.Report{
		Root:    filepath.ToSlash(s.Root),
		DryRun:  dryRun,
		Found:   s.Found,
		Updated: s.Updated,
		Failed:  s.Failed,
	}
	for _, f := range s.Files {
		rf := report.File{Path: filepath.ToSlash(f.Path), Changes: f.Changes}
		if f.Err != nil {
			rf.Error = f.Err.Error()
		}
		r.Files = append(r.Files, rf)
	}
	return r
}
