package migrate

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/flarebyte/darkonly/internal/filter"
	"github.com/flarebyte/darkonly/internal/testutil"
	"gopkg.in/yaml.v3"
)

func fixture(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "src")
	files := map[string]string{
		"components/Card.tsx":  "<div className=\"bg-white dark:bg-slate-900 p-4\">\n  <p className={`text-gray-700 dark:text-slate-300`}>hi</p>\n</div>\n",
		"components/Plain.jsx": "<div className=\"p-4 m-2\" />\n",
		"legacy/Old.tsx":       "<div className=\"dark:bg-slate-800\" />\n",
		"types/index.ts":       "export const c = \"bg-white dark:bg-black\"\n",
	}
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return root
}

func read(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read %s: %v", p, err)
	}
	return string(b)
}

func TestRun_RewritesAndReports(t *testing.T) {
	root := fixture(t)
	var out bytes.Buffer
	sum, err := Run(context.Background(), Options{Root: root}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Found != 3 || sum.Updated != 2 || sum.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	card := filepath.Join(root, "components", "Card.tsx")
	old := filepath.Join(root, "legacy", "Old.tsx")
	want := "Found 3 files to process\n\n" +
		"✓ " + card + ": 2 className strings updated\n" +
		"✓ " + old + ": 1 className strings updated\n" +
		"\n✓ Done! Updated 2 files\n"
	if out.String() != want {
		t.Fatalf("unexpected output\nwant:\n%s\ngot:\n%s", want, out.String())
	}
	if got := read(t, card); got != "<div className=\"bg-slate-900 p-4\">\n  <p className={`text-slate-300`}>hi</p>\n</div>\n" {
		t.Fatalf("unexpected Card.tsx: %s", got)
	}
	if got := read(t, filepath.Join(root, "types", "index.ts")); !strings.Contains(got, "dark:bg-black") {
		t.Fatalf("non-component file touched: %s", got)
	}
}

func TestRun_SecondPassIsNoop(t *testing.T) {
	root := fixture(t)
	if _, err := Run(context.Background(), Options{Root: root}, &bytes.Buffer{}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	var out bytes.Buffer
	sum, err := Run(context.Background(), Options{Root: root}, &out)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if sum.Updated != 0 || sum.Drift() {
		t.Fatalf("second pass changed files: %+v", sum)
	}
	if !strings.HasSuffix(out.String(), "\n✓ Done! Updated 0 files\n") {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	root := fixture(t)
	before := t.TempDir()
	if err := testutil.CopyTree(root, before); err != nil {
		t.Fatalf("copy: %v", err)
	}
	var out bytes.Buffer
	sum, err := Run(context.Background(), Options{Root: root, DryRun: true}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Updated != 2 || !sum.Drift() {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	for _, rel := range []string{"components/Card.tsx", "legacy/Old.tsx"} {
		if read(t, filepath.Join(root, rel)) != read(t, filepath.Join(before, rel)) {
			t.Fatalf("dry run modified %s", rel)
		}
	}
	if !strings.Contains(out.String(), ": 2 className strings would be updated\n") {
		t.Fatalf("missing dry-run line: %s", out.String())
	}
	if !strings.HasSuffix(out.String(), "\n✓ Done! 2 files would be updated\n") {
		t.Fatalf("unexpected summary line: %s", out.String())
	}
}

func TestRun_MissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "src")
	var out bytes.Buffer
	_, err := Run(context.Background(), Options{Root: root}, &out)
	if !errors.Is(err, ErrMissingRoot) {
		t.Fatalf("expected missing root, got %v", err)
	}
	if err.Error() != root+" does not exist" {
		t.Fatalf("unexpected message: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestRun_PerFileErrorDoesNotAbort(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("permission bits not enforced")
	}
	root := fixture(t)
	locked := filepath.Join(root, "components", "Card.tsx")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	defer func() { _ = os.Chmod(locked, 0o644) }()

	var out bytes.Buffer
	sum, err := Run(context.Background(), Options{Root: root}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Failed != 1 || sum.Updated != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if !strings.Contains(out.String(), "✗ Error processing "+locked+": ") {
		t.Fatalf("missing error line: %s", out.String())
	}
}

func TestRun_InvalidUTF8IsPerFile(t *testing.T) {
	root := fixture(t)
	bad := filepath.Join(root, "Bad.tsx")
	if err := os.WriteFile(bad, []byte{'<', 0xff, '>'}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out bytes.Buffer
	sum, err := Run(context.Background(), Options{Root: root}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Failed != 1 || sum.Updated != 2 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if !strings.Contains(out.String(), "✗ Error processing "+bad+": invalid UTF-8 content\n") {
		t.Fatalf("missing error line: %s", out.String())
	}
}

func TestRun_FilterAndReport(t *testing.T) {
	root := fixture(t)
	pred, err := filter.New(`not string.find(locator, "^legacy/")`, filter.Options{})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	reportPath := filepath.Join(t.TempDir(), "reports", "run.yaml")
	sum, err := Run(context.Background(), Options{Root: root, Filter: pred, ReportOut: reportPath}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Updated != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if !strings.Contains(read(t, filepath.Join(root, "legacy", "Old.tsx")), "dark:bg-slate-800") {
		t.Fatalf("filtered file was rewritten")
	}

	var rep struct {
		Found   int `yaml:"found"`
		Updated int `yaml:"updated"`
		Files   []struct {
			Path    string `yaml:"path"`
			Changes int    `yaml:"changes"`
		} `yaml:"files"`
	}
	if err := yaml.Unmarshal([]byte(read(t, reportPath)), &rep); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if rep.Found != 3 || rep.Updated != 1 || len(rep.Files) != 2 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if !strings.HasSuffix(rep.Files[0].Path, "components/Card.tsx") || rep.Files[0].Changes != 2 {
		t.Fatalf("unexpected first entry: %+v", rep.Files[0])
	}
}

func TestRun_FilterWithLoopKeywordInLiteral(t *testing.T) {
	root := fixture(t)
	panel := filepath.Join(root, "components", "repeat-panel.tsx")
	if err := os.WriteFile(panel, []byte("<div className=\"bg-white dark:bg-black\" />\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	pred, err := filter.New(`locator ~= "components/repeat-panel.tsx" and locator:find("for ") == nil`, filter.Options{})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	var out bytes.Buffer
	sum, err := Run(context.Background(), Options{Root: root, Filter: pred}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Found != 4 || sum.Updated != 2 || sum.Failed != 0 {
		t.Fatalf("unexpected summary: %+v\n%s", sum, out.String())
	}
	if strings.Contains(out.String(), "Error processing") {
		t.Fatalf("unexpected error line:\n%s", out.String())
	}
	if got := read(t, panel); !strings.Contains(got, "dark:bg-black") {
		t.Fatalf("excluded file was rewritten: %s", got)
	}
}

func TestRun_CanceledContext(t *testing.T) {
	root := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, Options{Root: root}, &bytes.Buffer{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}
