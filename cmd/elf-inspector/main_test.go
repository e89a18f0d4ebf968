package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raven-betanet/elf-inspector/internal/elfhdr"
	"github.com/raven-betanet/elf-inspector/internal/elftest"
)

func init() {
	color.NoColor = true
}

func execute(t *testing.T, fs afero.Fs, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(fs)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func fixtureFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, elftest.Minimal().WriteFile(fs, "/bin/tiny"))
	require.NoError(t, afero.WriteFile(fs, "/bin/script", []byte("#!/bin/sh\necho hello from a shell script, long enough to fill a header\n"), 0o755))
	require.NoError(t, afero.WriteFile(fs, "/bin/short", elftest.Minimal().Bytes()[:20], 0o755))
	return fs
}

func TestUsageOnWrongArgCount(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no arguments", args: nil},
		{name: "two arguments", args: []string{"/bin/tiny", "/bin/script"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, err := execute(t, fixtureFs(t), tt.args...)
			require.NoError(t, err)
			assert.Contains(t, stdout, "Usage:")
			assert.Contains(t, stdout, "elf-inspector [flags] <file>")
			assert.Empty(t, stderr)
		})
	}
}

func TestInspectMinimalExecutable(t *testing.T) {
	stdout, _, err := execute(t, fixtureFs(t), "/bin/tiny")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stdout, "Full header:\n7F 45 4C 46 02 01 01 "))
	assert.Contains(t, stdout, "ELF File Type: Executable (0x02)\n")
	assert.Contains(t, stdout, "Machine Type: x86-64 (0x003E)\n")
	assert.Contains(t, stdout, "Entry Point Address: 4194424\n")
	assert.Contains(t, stdout, "Segment 0:\n  Type: PT_LOAD (0x00000001)\n")
	assert.Contains(t, stdout, "  Flags: Unknown (0x00000005)\n")
	assert.NotContains(t, stdout, "Header Checks")
}

func TestInspectBesideOwnBinary(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	fs := fixtureFs(t)
	require.NoError(t, elftest.Minimal().WriteFile(fs, filepath.Join(wd, "elf-inspector")))

	stdout, _, err := execute(t, fs, "/bin/tiny")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "Full header:\n"))
	assert.Contains(t, stdout, "Entry Point Address: 4194424\n")
}

func TestNotELF(t *testing.T) {
	stdout, _, err := execute(t, fixtureFs(t), "/bin/script")
	require.NoError(t, err)
	assert.Equal(t, "/bin/script is not an ELF file (23212F62)\n", stdout)
}

func TestOpenFailure(t *testing.T) {
	stdout, _, err := execute(t, fixtureFs(t), "/bin/missing")
	require.Error(t, err)
	assert.Empty(t, stdout)

	var openErr *elfhdr.OpenError
	require.True(t, errors.As(err, &openErr))
	assert.Contains(t, err.Error(), "failed to open file /bin/missing")
}

func TestTruncatedHeader(t *testing.T) {
	stdout, _, err := execute(t, fixtureFs(t), "/bin/short")
	require.Error(t, err)
	assert.Empty(t, stdout)
	assert.True(t, errors.Is(err, elfhdr.ErrTruncated))
}

func TestFormatFlags(t *testing.T) {
	fs := fixtureFs(t)

	stdout, _, err := execute(t, fs, "--format", "json", "/bin/tiny")
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, "fixed64", doc["layout"])

	stdout, _, err = execute(t, fs, "-f", "table", "/bin/tiny")
	require.NoError(t, err)
	assert.Contains(t, stdout, "132 B")

	_, _, err = execute(t, fs, "--format", "xml", "/bin/tiny")
	assert.Error(t, err)
}

func TestFlagsModeBitmask(t *testing.T) {
	stdout, _, err := execute(t, fixtureFs(t), "--flags-mode", "bitmask", "/bin/tiny")
	require.NoError(t, err)
	assert.Contains(t, stdout, "  Flags: RX (0x00000005)\n")
}

func TestChecksLogWarnings(t *testing.T) {
	stdout, stderr, err := execute(t, fixtureFs(t), "--checks", "/bin/tiny")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Header Checks:\n")
	assert.Contains(t, stdout, "  [WARN] flags: ")
	assert.Contains(t, stderr, "level=warning")
	assert.Contains(t, stderr, "check=flags")
}

func TestSelectedChecks(t *testing.T) {
	fs := fixtureFs(t)

	stdout, _, err := execute(t, fs, "--check", "phentsize,class", "/bin/tiny")
	require.NoError(t, err)
	assert.Contains(t, stdout, "  [PASS] phentsize: ")
	assert.Contains(t, stdout, "  [PASS] class: ")
	assert.NotContains(t, stdout, "[WARN] flags")
	assert.Contains(t, stdout, "  2 checks: 2 passed, 0 warnings, 0 skipped\n")

	_, _, err = execute(t, fs, "--check", "entropy", "/bin/tiny")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown check "entropy"`)
}

func TestStandardLayoutFromEnv(t *testing.T) {
	t.Setenv("ELF_INSPECTOR_DECODE_LAYOUT", "standard")

	fs := afero.NewMemMapFs()
	img := &elftest.Image{
		Layout: elftest.ELF64, Class: 2, Data: 1, Version: 1, Type: 3, Machine: 0xB7, Entry: 0x1000,
		Segments: []elftest.Segment{{Type: 0x6474e551, Flags: 0x6}},
	}
	require.NoError(t, img.WriteFile(fs, "/lib/libx.so"))

	stdout, _, err := execute(t, fs, "--flags-mode", "bitmask", "/lib/libx.so")
	require.NoError(t, err)
	assert.Contains(t, stdout, "ELF File Type: Shared (0x03)\n")
	assert.Contains(t, stdout, "Machine Type: AArch64 (0x00B7)\n")
	assert.Contains(t, stdout, "  Type: PT_GNU_STACK (0x6474E551)\n")
	assert.Contains(t, stdout, "  Flags: WX (0x00000006)\n")
}

func TestConfigFile(t *testing.T) {
	fs := fixtureFs(t)
	require.NoError(t, afero.WriteFile(fs, "/etc/inspect.yaml", []byte("output:\n  format: json\n  checks: true\n"), 0o644))

	stdout, _, err := execute(t, fs, "-c", "/etc/inspect.yaml", "/bin/tiny")
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Contains(t, doc, "checks")

	stdout, _, err = execute(t, fs, "-c", "/etc/inspect.yaml", "-f", "text", "/bin/tiny")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "Full header:"), "flag overrides config file")

	_, _, err = execute(t, fs, "-c", "/etc/missing.yaml", "/bin/tiny")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestVerboseLogsToStderr(t *testing.T) {
	stdout, stderr, err := execute(t, fixtureFs(t), "-v", "/bin/tiny")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "level=")
	assert.Contains(t, stderr, "level=debug")
	assert.Contains(t, stderr, "path=/bin/tiny")
}

func TestVersionFlag(t *testing.T) {
	stdout, _, err := execute(t, fixtureFs(t), "--version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "elf-inspector dev (commit: "))
}

func TestUnknownFlag(t *testing.T) {
	_, _, err := execute(t, fixtureFs(t), "--no-such-flag", "/bin/tiny")
	assert.Error(t, err)
}
