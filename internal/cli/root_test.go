package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "rewards", cmd.Use)
	assert.Contains(t, cmd.Long, "rewards ledger engine")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"run"},
		{"wallet", "create"},
		{"wallet", "properties"},
		{"wallet", "recover"},
		{"wallet", "passphrase"},
		{"grant", "fetch"},
		{"grant", "captcha"},
		{"grant", "solve"},
		{"tip"},
		{"state", "show"},
		{"state", "set"},
		{"publishers", "list"},
		{"publishers", "exclude"},
		{"publishers", "include"},
		{"publishers", "restore"},
		{"scenario"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	timeoutFlag := cmd.PersistentFlags().Lookup("timeout")
	require.NotNil(t, timeoutFlag)
	assert.Equal(t, "1m0s", timeoutFlag.DefValue)
}

func TestTipCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	tipCmd, _, err := cmd.Find([]string{"tip"})
	require.NoError(t, err)

	for _, name := range []string{"currency", "monthly", "remove"} {
		assert.NotNil(t, tipCmd.Flags().Lookup(name), "flag %s", name)
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "scenario", "testdata")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestInvalidTimeout(t *testing.T) {
	_, err := execute(t, "--timeout", "0s", "state", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timeout")
}
