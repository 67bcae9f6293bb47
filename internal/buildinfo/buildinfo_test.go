package buildinfo

import (
	"runtime/debug"
	"testing"
)

func withBuildInfo(t *testing.T, version, commit, date, moduleVersion string) {
	t.Helper()
	oldV, oldC, oldD, oldRead := Version, Commit, Date, readBuildInfo
	t.Cleanup(func() { Version, Commit, Date, readBuildInfo = oldV, oldC, oldD, oldRead })
	Version, Commit, Date = version, commit, date
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Main: debug.Module{Version: moduleVersion}}, true
	}
}

func TestSummary(t *testing.T) {
	cases := []struct {
		name                             string
		version, commit, date, moduleVer string
		want                             string
	}{
		{"dev build", "", "", "", "(devel)", "dev"},
		{"go install", "", "", "", "v0.3.1", "v0.3.1"},
		{"ldflags win", "1.2.3", "", "", "v0.3.1", "1.2.3"},
		{"commit and date", "1.2.3", "0123456789abcdef", "2026-10-19", "", "1.2.3 (commit=0123456, date=2026-10-19)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			withBuildInfo(t, tc.version, tc.commit, tc.date, tc.moduleVer)
			if got := Summary(); got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}
