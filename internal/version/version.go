// Package version exposes the build version stamped via ldflags.
package version

// version is overridden at build time:
//
//	go build -ldflags "-X github.com/hunkreview/hunkreview/internal/version.version=v1.2.3"
var version = "dev"

// Value returns the stamped build version.
func Value() string {
	return version
}
