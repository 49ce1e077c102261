package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

// Set at build time using -ldflags.
var (
	Version   = "dev"
	Commit    = ""
	Branch    = ""
	BuildTime = ""
)

// Info is a snapshot of build information.
type Info struct {
	Version   string    `json:"version"`
	Commit    string    `json:"commit,omitempty"`
	Branch    string    `json:"branch,omitempty"`
	BuiltAt   time.Time `json:"built_at"`
	GoVersion string    `json:"go_version"`
	Dirty     bool      `json:"dirty"`
}

// Get merges the linker-provided variables with the embedded build info.
func Get() Info {
	info := Info{
		Version: Version,
		Commit:  Commit,
		Branch:  Branch,
	}
	if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
		info.BuiltAt = t
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = bi.GoVersion
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = shortCommit(s.Value)
				}
			case "vcs.modified":
				info.Dirty = s.Value == "true"
			case "vcs.time":
				if info.BuiltAt.IsZero() {
					if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
						info.BuiltAt = t
					}
				}
			}
		}
	}
	return info
}

// Release reports whether this is a tagged, clean build.
func (i Info) Release() bool {
	return i.Version != "dev" && !i.Dirty && !strings.Contains(i.Version, "dirty")
}

// Short returns "<version>[-<commit>][-dirty]".
func (i Info) Short() string {
	s := i.Version
	if i.Commit != "" {
		s += "-" + i.Commit
	}
	if i.Dirty {
		s += "-dirty"
	}
	return s
}

// String returns the short version plus any non-default branch and the
// build date.
func (i Info) String() string {
	s := i.Short()
	if i.Branch != "" && i.Branch != "main" && i.Branch != "master" {
		s += " (" + i.Branch + ")"
	}
	if !i.BuiltAt.IsZero() {
		s += fmt.Sprintf(" built %s", i.BuiltAt.UTC().Format(time.RFC3339))
	}
	if i.GoVersion != "" {
		s += " " + i.GoVersion
	}
	return s
}

// Fields returns the info as structured log fields.
func (i Info) Fields() map[string]interface{} {
	return map[string]interface{}{
		"version":    i.Version,
		"commit":     i.Commit,
		"go_version": i.GoVersion,
		"dirty":      i.Dirty,
	}
}

func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
