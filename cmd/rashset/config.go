package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"rashset/pkg/auth"
	"rashset/pkg/config"
	"rashset/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage rashset configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (RASHSET_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.rashset.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging every source.

Credentials are masked.`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Load the configuration and check it for invalid values.

Missing credentials are reported as warnings since the affected source is
skipped at run time.`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleHeader = `# rashset configuration
#
# Credentials may be left as placeholders here and supplied instead through
# RASHSET_BING_KEY / RASHSET_REDDIT_* environment variables or 'rashset auth set'.
# Placeholder values starting with YOUR_ are treated as missing.

`

// exampleConfig renders the defaults with placeholder credentials
func exampleConfig() ([]byte, error) {
	cfg := config.DefaultConfig()
	cfg.Bing.APIKey = "YOUR_BING_SEARCH_V7_SUBSCRIPTION_KEY"
	cfg.Reddit.ClientID = "YOUR_REDDIT_CLIENT_ID"
	cfg.Reddit.ClientSecret = "YOUR_REDDIT_CLIENT_SECRET"
	cfg.Reddit.Username = "YOUR_REDDIT_USERNAME"
	cfg.Reddit.Password = "YOUR_REDDIT_PASSWORD"

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	return append([]byte(exampleHeader), data...), nil
}

// maskedConfig returns a copy of cfg with credentials masked for display
func maskedConfig(cfg *config.Config) config.Config {
	display := *cfg
	for _, field := range []*string{
		&display.Bing.APIKey,
		&display.Reddit.ClientID,
		&display.Reddit.ClientSecret,
		&display.Reddit.Password,
	} {
		if !config.IsPlaceholder(*field) {
			*field = auth.MaskSecret(*field)
		}
	}
	return display
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".rashset.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("Use a different path with --config or remove the existing file")
		os.Exit(1)
	}

	data, err := exampleConfig()
	if err != nil {
		ui.PrintError("Failed to render example configuration", err.Error())
		os.Exit(1)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			ui.PrintError("Failed to create configuration directory", err.Error())
			os.Exit(1)
		}
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Add your API credentials, or store them with 'rashset auth set <name>'")
	fmt.Println("2. Run 'rashset config validate' to check the configuration")
	fmt.Println("3. Start collecting with 'rashset run'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	display := maskedConfig(cfg)
	data, err := yaml.Marshal(&display)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (RASHSET_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (default locations)")
	}
	fmt.Println("4. Default values")
}

// credentialWarnings lists the sources that will be skipped for lack of credentials
func credentialWarnings(cfg *config.Config) []string {
	var warnings []string
	if cfg.Bing.Enabled && !cfg.HasBingCredentials() {
		warnings = append(warnings, "Bing API key not configured; Bing will be skipped")
	}
	if cfg.Reddit.Enabled && !cfg.HasRedditCredentials() {
		warnings = append(warnings, "Reddit credentials incomplete; Reddit will be skipped")
	}
	if !cfg.Bing.Enabled && !cfg.Reddit.Enabled {
		warnings = append(warnings, "Both sources are disabled; a run will collect nothing")
	}
	return warnings
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	if manager, err := auth.NewManager(); err == nil {
		auth.Resolve(cfg, manager)
	}

	var problems []string
	if err := os.MkdirAll(cfg.Output.RootDirectory, 0755); err != nil {
		problems = append(problems, fmt.Sprintf("Cannot create output directory: %v", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		os.Exit(1)
	}

	if warnings := credentialWarnings(cfg); len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Dataset root: %s\n", cfg.Output.RootDirectory)
	fmt.Printf("  Metadata log: %s\n", filepath.Join(cfg.Output.RootDirectory, cfg.Output.MetadataFile))
	fmt.Printf("  Queries: %d BMR, %d RASH\n", len(cfg.Queries.BMR), len(cfg.Queries.RASH))
	fmt.Printf("  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Printf("  Seed from disk: %t\n", cfg.Dedup.SeedFromDisk)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
