// Package version holds the spritekiln version string shared by the CLI
// and the API server.
package version

// Version is the current release version. Overridable at build time with
// -ldflags "-X github.com/spritekiln/spritekiln/internal/version.Version=...".
var Version = "0.1.0"
