// Package version holds build metadata injected via ldflags.
package version

import "fmt"

// ProjectURL identifies the bot in outgoing User-Agent headers.
const ProjectURL = "https://github.com/kailas-cloud/patternbot"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// UserAgent returns the User-Agent the platform expects from bots:
// "DiscordBot ($url, $version)".
func UserAgent() string {
	return fmt.Sprintf("DiscordBot (%s, %s)", ProjectURL, Version)
}
