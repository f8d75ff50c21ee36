// Package version is the single source of truth for build version info.
package version

// Overridden at build time:
// go build -ldflags "-X pysema/internal/version.Version=0.2.0 -X pysema/internal/version.Commit=abc123"
var (
	// Version is the semantic version of pysema
	Version = "0.1.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// Info returns a short version string for log lines and --version.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns complete version information.
func Full() string {
	return "pysema version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}
