// Package version provides version information for the doot-oracle application.
package version

// Version is the current version of the doot-oracle application.
const Version = "1.0.0"

// AgentString returns the full agent string with versioning.
// Format: @doot-foundation/doot-oracle@v{version}
func AgentString() string {
	return "@doot-foundation/doot-oracle@v" + Version
}
