package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"rashset/pkg/auth"
	"rashset/pkg/collector"
	"rashset/pkg/config"
	"rashset/pkg/logger"
	"rashset/pkg/metrics"
	"rashset/pkg/ui"
)

var (
	// Run command flags
	outputDir    string
	bingCount    int
	redditLimit  int
	subreddit    string
	seedFromDisk bool
	skipBing     bool
	skipReddit   bool
	metricsFile  string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect images for every configured query",
	Long: `Collect images for every query of both labels.

Queries run in order, BMR first and then RASH. Each query is sent to the
image search API and then to the content-community API. Every result is
downloaded and fingerprinted. Images whose fingerprint was already seen in
this run are dropped and the rest are saved as <root>/<LABEL>/<LABEL>_WEB_<N>.jpg
with a row in <root>/dataset_metadata.csv.

A source without credentials is skipped with a warning. Failed downloads are
logged and skipped; the run only stops early on Ctrl-C.`,
	Example: `  # Collect with default settings into ./images
  rashset run

  # Collect into another directory, Bing only, fewer results per query
  rashset run --output ./dataset --skip-reddit --bing-count 20

  # Skip images already stored by a previous run
  rashset run --seed-from-disk

  # Write Prometheus text-format metrics when the run ends
  rashset run --metrics-file ./rashset.prom`,
	Args: cobra.NoArgs,
	Run:  runCollect,
}

func init() {
	rootCmd.AddCommand(runCmd)

	addRunFlags(runCmd)
	// The root command runs a collection too
	addRunFlags(rootCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "dataset root directory (default: images)")
	cmd.Flags().IntVar(&bingCount, "bing-count", 0, "image search results per query (1-150)")
	cmd.Flags().IntVar(&redditLimit, "reddit-limit", 0, "content-community results per query (1-100)")
	cmd.Flags().StringVar(&subreddit, "subreddit", "", "subreddit to search (default: all)")
	cmd.Flags().BoolVar(&seedFromDisk, "seed-from-disk", false, "fingerprint images already in the dataset before collecting")
	cmd.Flags().BoolVar(&skipBing, "skip-bing", false, "do not query the image search API")
	cmd.Flags().BoolVar(&skipReddit, "skip-reddit", false, "do not query the content-community API")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write run metrics in Prometheus text format to this file")
}

// flagOverrides builds the config override map from the flags the user set
func flagOverrides(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	set := cmd.Flags()

	if set.Changed("output") {
		flags["output"] = outputDir
	}
	if set.Changed("bing-count") {
		flags["bing-count"] = bingCount
	}
	if set.Changed("reddit-limit") {
		flags["reddit-limit"] = redditLimit
	}
	if set.Changed("subreddit") {
		flags["subreddit"] = subreddit
	}
	if set.Changed("seed-from-disk") {
		flags["seed-from-disk"] = seedFromDisk
	}
	if set.Changed("skip-bing") {
		flags["skip-bing"] = skipBing
	}
	if set.Changed("skip-reddit") {
		flags["skip-reddit"] = skipReddit
	}
	if set.Changed("metrics-file") {
		flags["metrics-file"] = metricsFile
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	return flags
}

func runCollect(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, flagOverrides(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	log := logger.GetLogger()

	// Stored secrets fill in whatever the file and environment left empty
	if manager, err := auth.NewManager(); err != nil {
		log.WithError(err).Warn("Secret stores unavailable, using configured credentials only")
	} else if filled := auth.Resolve(cfg, manager); len(filled) > 0 {
		log.WithField("secrets", filled).Debug("Credentials resolved from secret store")
	}

	m := metrics.New()
	c, err := collector.New(cfg, m, log)
	if err != nil {
		ui.PrintError("Failed to initialize collector", err.Error())
		os.Exit(1)
	}

	root := cfg.Output.RootDirectory
	session := collector.NewSession(root)
	if cfg.Dedup.SeedFromDisk {
		n, err := session.SeedFromDisk(root, log)
		if err != nil {
			ui.PrintError("Failed to seed fingerprints from disk", err.Error())
			os.Exit(1)
		}
		ui.PrintInfo("Known fingerprints", strconv.Itoa(n))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.PrintRunStart(root, filepath.Join(root, cfg.Output.MetadataFile), c.Sources())

	stats, runErr := c.Run(ctx, session)
	m.RunFinished(stats.Duration)

	if cfg.Metrics.TextfilePath != "" {
		if err := m.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			log.WithError(err).WithField("path", cfg.Metrics.TextfilePath).Error("Failed to write metrics file")
		}
	}

	ui.PrintRunSummary(stats, root)

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			ui.PrintWarning("Run interrupted; files and metadata written so far are kept")
		} else {
			ui.PrintError("Run stopped", runErr.Error())
		}
		stop()
		os.Exit(1)
	}
}
