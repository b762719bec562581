// Package version reports build information for the standin binary.
//
// Version, commit, branch and build time are set with -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/standin/version.Version=1.2.0" ./cmd/standin
//
// Unset values fall back to the VCS stamps in debug.ReadBuildInfo.
package version
