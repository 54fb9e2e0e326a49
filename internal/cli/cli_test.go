package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, shouldExit, err := Parse(nil, out)
	require.NoError(t, err)
	require.False(t, shouldExit)
	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Watch)
}

func TestParsePositionalRoot(t *testing.T) {
	cfg, _, err := Parse([]string{"-log-level", "debug", "./web"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "./web", cfg.Root)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParseListenImpliesWatch(t *testing.T) {
	cfg, _, err := Parse([]string{"-listen", ":8123"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, cfg.Watch)
	assert.Equal(t, ":8123", cfg.Listen)
}

func TestParseHelp(t *testing.T) {
	out := &bytes.Buffer{}
	_, shouldExit, err := Parse([]string{"-h"}, out)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParseInvalidLogFormat(t *testing.T) {
	_, _, err := Parse([]string{"-log-format", "xml"}, &bytes.Buffer{})
	require.Error(t, err)
	exitErr, ok := err.(*ExitError)
	require.True(t, ok)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParseInvalidLogLevel(t *testing.T) {
	_, _, err := Parse([]string{"-log-level", "verbose"}, &bytes.Buffer{})
	require.Error(t, err)
	exitErr, ok := err.(*ExitError)
	require.True(t, ok)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParseConfigShorthand(t *testing.T) {
	cfg, _, err := Parse([]string{"-c", "custom/weft.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "custom/weft.hcl", cfg.ConfigPath)
}
