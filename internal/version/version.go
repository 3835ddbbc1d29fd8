// Package version carries the release identity stamped into the binary
// with -ldflags at build time.
package version

var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"

	// GitSHA identifies the commit the binary was built from.
	GitSHA = "unknown"

	// BuildTime is when the binary was built, RFC 3339.
	BuildTime = "unknown"
)
