package version

import (
	"fmt"
	"runtime"
)

// Set via ldflags at build time:
//
//	go build -ldflags "-X github.com/soyeahso/imbridge/internal/version.Version=1.0.0
//	  -X github.com/soyeahso/imbridge/internal/version.Commit=abc123
//	  -X github.com/soyeahso/imbridge/internal/version.Date=2026-01-01"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("imbridge %s (commit: %s, built: %s, %s, %s/%s)",
		Version, short(Commit), Date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// UserAgent is the short identifier announced to remote servers.
func UserAgent() string {
	return "imbridge/" + Version
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
