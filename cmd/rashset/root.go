package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "0.1.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd runs a collection when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "rashset",
	Short: "Collect a labelled facial rash image dataset",
	Long: `rashset builds a two-class image dataset for facial rash classification.

It runs a fixed list of search queries per label (BMR and RASH) against an
image search API and a content-community API, downloads every result,
drops perceptual duplicates and stores the rest as sequentially numbered
JPEGs with one metadata row per image.

Credentials can come from:
  - Stored secrets (use 'rashset auth set')
  - Environment variables (RASHSET_BING_KEY, RASHSET_REDDIT_*)
  - Configuration file`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Run:     runCollect,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.rashset.yaml or ~/.config/rashset/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.SetVersionTemplate(`rashset {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
