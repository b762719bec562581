package version

import (
	"testing"
	"time"
)

func withVars(t *testing.T, v, commit, branch, built string) {
	t.Helper()
	ov, oc, ob, ot := Version, GitCommit, GitBranch, BuildTime
	Version, GitCommit, GitBranch, BuildTime = v, commit, branch, built
	t.Cleanup(func() {
		Version, GitCommit, GitBranch, BuildTime = ov, oc, ob, ot
	})
}

func TestResolveDev(t *testing.T) {
	withVars(t, "dev", "", "", "")

	info := resolve(buildStamps{goVersion: "go1.26.0"})
	if info.Version != "dev" {
		t.Errorf("Version = %q, want dev", info.Version)
	}
	if info.Release {
		t.Error("dev build must not be a release")
	}
	if info.GoVersion != "go1.26.0" {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
	if got := info.Short(); got != "dev" {
		t.Errorf("Short() = %q, want dev", got)
	}
}

func TestResolvePrefersLdflags(t *testing.T) {
	withVars(t, "1.2.0", "abc1234def", "main", "2026-01-15T10:30:00Z")

	info := resolve(buildStamps{revision: "ffffffffffff", vcsTime: "2025-01-01T00:00:00Z"})
	if info.GitCommit != "abc1234" {
		t.Errorf("GitCommit = %q, want abc1234", info.GitCommit)
	}
	if info.BuildTime != "2026-01-15T10:30:00Z" {
		t.Errorf("BuildTime = %q", info.BuildTime)
	}
	if !info.Release {
		t.Error("clean tagged build should be a release")
	}
	if got := info.Short(); got != "1.2.0-abc1234" {
		t.Errorf("Short() = %q", got)
	}
}

func TestResolveFallsBackToVCS(t *testing.T) {
	withVars(t, "1.2.0", "", "", "")

	info := resolve(buildStamps{revision: "0123456789", vcsTime: "2025-01-01T00:00:00Z", modified: true})
	if info.GitCommit != "0123456" {
		t.Errorf("GitCommit = %q, want 0123456", info.GitCommit)
	}
	if info.BuildTime != "2025-01-01T00:00:00Z" {
		t.Errorf("BuildTime = %q", info.BuildTime)
	}
	if info.Release {
		t.Error("dirty build must not be a release")
	}
	if got := info.Short(); got != "1.2.0-0123456-dirty" {
		t.Errorf("Short() = %q", got)
	}
}

func TestUptime(t *testing.T) {
	if Uptime() < 0 || Uptime() > 24*time.Hour {
		t.Errorf("Uptime() = %v", Uptime())
	}
}
