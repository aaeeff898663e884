// Package version holds build-time identifiers, overridden via -ldflags
// at release build time; cmd/screener prints them on the -version flag
// and logs them on startup.
package version

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
)
