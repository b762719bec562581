package version

import (
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// Set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
	GitBranch = ""
	BuildTime = ""
)

var started = time.Now()

// Info is the build description served by GET /version.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit,omitempty"`
	GitBranch string `json:"gitBranch,omitempty"`
	BuildTime string `json:"buildTime,omitempty"`
	GoVersion string `json:"goVersion"`
	Dirty     bool   `json:"dirty"`
	Release   bool   `json:"release"`
}

type buildStamps struct {
	goVersion string
	revision  string
	vcsTime   string
	modified  bool
}

var readStamps = sync.OnceValue(func() buildStamps {
	var s buildStamps
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return s
	}
	s.goVersion = bi.GoVersion
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			s.revision = setting.Value
		case "vcs.time":
			s.vcsTime = setting.Value
		case "vcs.modified":
			s.modified = setting.Value == "true"
		}
	}
	return s
})

// Get returns the build information, preferring ldflags values over VCS
// stamps.
func Get() Info {
	return resolve(readStamps())
}

func resolve(s buildStamps) Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
		BuildTime: BuildTime,
		GoVersion: s.goVersion,
		Dirty:     s.modified,
	}
	if info.GitCommit == "" {
		info.GitCommit = s.revision
	}
	if len(info.GitCommit) > 7 {
		info.GitCommit = info.GitCommit[:7]
	}
	if info.BuildTime == "" {
		info.BuildTime = s.vcsTime
	}
	info.Release = info.Version != "dev" && !info.Dirty && !strings.Contains(info.Version, "dirty")
	return info
}

// Short renders version-commit[-dirty], or just the version without a commit.
func (i Info) Short() string {
	if i.GitCommit == "" {
		return i.Version
	}
	s := i.Version + "-" + i.GitCommit
	if i.Dirty {
		s += "-dirty"
	}
	return s
}

// Uptime reports how long the process has been running.
func Uptime() time.Duration {
	return time.Since(started)
}
