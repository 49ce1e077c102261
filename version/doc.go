// Package version reports build information for streamkit binaries.
//
// Version, commit, branch and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/streamkit/version.Version=1.0.0 \
//	    -X github.com/kbukum/streamkit/version.Commit=$(git rev-parse --short HEAD)"
//
// Anything not set by the linker is filled from the module's embedded
// build info when available.
package version
