// Package version holds the daemon's release version.
package version

// Version is the agent-tuid release version.
const Version = "0.1.0"
