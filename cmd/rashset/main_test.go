package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"rashset/pkg/config"
)

func TestFlagOverridesOnlyIncludesChangedFlags(t *testing.T) {
	logLevel = ""
	cmd := &cobra.Command{Use: "test"}
	addRunFlags(cmd)

	require.NoError(t, cmd.ParseFlags([]string{"--output", "/data", "--skip-reddit", "--bing-count", "20"}))

	flags := flagOverrides(cmd)
	assert.Equal(t, map[string]interface{}{
		"output":      "/data",
		"skip-reddit": true,
		"bing-count":  20,
	}, flags)

	cfg := config.DefaultConfig()
	cfg.MergeCommandLineFlags(flags)
	assert.Equal(t, "/data", cfg.Output.RootDirectory)
	assert.False(t, cfg.Reddit.Enabled)
	assert.True(t, cfg.Bing.Enabled)
	assert.Equal(t, 20, cfg.Bing.Count)
	assert.Equal(t, 50, cfg.Reddit.Limit)
}

func TestFlagOverridesCarriesLogLevel(t *testing.T) {
	logLevel = "debug"
	t.Cleanup(func() { logLevel = "" })

	cmd := &cobra.Command{Use: "test"}
	addRunFlags(cmd)
	require.NoError(t, cmd.ParseFlags(nil))

	assert.Equal(t, map[string]interface{}{"log-level": "debug"}, flagOverrides(cmd))
}

func TestExampleConfigRoundTrips(t *testing.T) {
	data, err := exampleConfig()
	require.NoError(t, err)
	assert.Contains(t, string(data), "# rashset configuration")

	cfg := config.DefaultConfig()
	require.NoError(t, yaml.Unmarshal(data, cfg))
	require.NoError(t, cfg.Validate())

	assert.False(t, cfg.HasBingCredentials(), "placeholders must read as missing")
	assert.False(t, cfg.HasRedditCredentials())
	assert.Equal(t, config.DefaultBMRQueries, cfg.Queries.BMR)
	assert.Equal(t, config.DefaultRASHQueries, cfg.Queries.RASH)
}

func TestMaskedConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Bing.APIKey = "abcd1234efgh5678"
	cfg.Reddit.Password = "short"
	cfg.Reddit.ClientID = "YOUR_REDDIT_CLIENT_ID"

	display := maskedConfig(cfg)

	assert.Equal(t, "abcd...5678", display.Bing.APIKey)
	assert.Equal(t, "********", display.Reddit.Password)
	assert.Equal(t, "YOUR_REDDIT_CLIENT_ID", display.Reddit.ClientID)
	assert.Equal(t, "abcd1234efgh5678", cfg.Bing.APIKey, "original must be untouched")
}

func TestCredentialWarnings(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Len(t, credentialWarnings(cfg), 2)

	cfg.Bing.APIKey = "key"
	cfg.Reddit.Enabled = false
	assert.Empty(t, credentialWarnings(cfg))

	cfg.Bing.Enabled = false
	warnings := credentialWarnings(cfg)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "disabled")
}
