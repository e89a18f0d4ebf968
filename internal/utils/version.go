package utils

import (
	"fmt"
	"runtime"
)

// AppName is the binary name used in usage text and version output.
const AppName = "elf-inspector"

var (
	// Version information - set via ldflags during build
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// GetVersionString returns a formatted version string
func GetVersionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, %s/%s)", Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}

// VersionTemplate is the cobra template for --version.
func VersionTemplate() string {
	return AppName + " {{.Version}}\n"
}
