// Package version exposes the build-time version string.
package version

// version is injected at build time via -ldflags.
var version string

// Value returns the injected version, or "v0.0.0" for untagged builds.
func Value() string {
	if version == "" {
		return "v0.0.0"
	}
	return version
}
