package app

import "fmt"

// Set via ldflags, e.g.
// go build -ldflags "-X github.com/checkscam/checkscam-backend/internal/app.Version=1.0.0"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildVersion is reported in startup logs and on /health.
func BuildVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime)
}
