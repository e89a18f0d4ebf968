package utils

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionString(t *testing.T) {
	old := Version
	Version = "1.2.3"
	defer func() { Version = old }()

	s := GetVersionString()
	assert.True(t, strings.HasPrefix(s, "1.2.3 (commit: "))
	assert.Contains(t, s, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestVersionTemplate(t *testing.T) {
	assert.Equal(t, "elf-inspector {{.Version}}\n", VersionTemplate())
}
