package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestSettingsCmd_Use(t *testing.T) {
	assert.Equal(t, "settings", settingsCmd.Use)
}

func TestSettingsCmd_ShowDefaults(t *testing.T) {
	useSettings(t)

	out, err := runRoot(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Output:            issues.jsonl")
	assert.Contains(t, out, "SQLite mirror:     (disabled)")
	assert.Contains(t, out, "Pace:              600ms")
	assert.Contains(t, out, "Max attempts:      10")
	assert.Contains(t, out, "Failure threshold: 5")
	assert.Contains(t, out, "Open timeout:      1m0s")
	assert.NotContains(t, out, "Warning")
}

func TestSettingsCmd_ShowWarnsOnInvalid(t *testing.T) {
	store := useSettings(t)
	require.NoError(t, store.Set("resilience.failure_threshold", 0))

	out, err := runRoot(t, "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning:")
}

func TestSettingsCmd_Reset(t *testing.T) {
	store := useSettings(t)
	require.NoError(t, store.Set("export.output", "custom.jsonl"))

	out, err := runRoot(t, "settings", "reset")

	require.NoError(t, err)
	assert.Contains(t, out, "Settings reset to defaults.")
	assert.Equal(t, "issues.jsonl", store.GetString("export.output"))
	assert.Equal(t, "600ms", store.GetString("export.pace"))
	assert.Equal(t, 10, store.GetInt("resilience.max_attempts"))
}
