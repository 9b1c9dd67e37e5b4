// Command bookgraph analyzes book files from the command line and manages
// stored analyses.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bookgraph/bookgraph"
)

var (
	flagConfig  string
	flagDB      string
	flagWorkers int
	flagNoStore bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "bookgraph",
	Short: "Infer character and place relationships from narrative text",
	Long: `bookgraph reads a book (txt or pdf), finds person, location and
organization entities, infers typed relations between them from lexical
context, and aggregates everything into an ontology with statistics.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelInfo
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML or JSON config file")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "path to the SQLite database file")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "extractor fan-out width (default from config)")
	rootCmd.PersistentFlags().BoolVar(&flagNoStore, "no-store", false, "skip persisting the analysis")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log pipeline progress")
}

// loadConfig resolves the effective engine config: file (if given), then
// flag overrides.
func loadConfig() (bookgraph.Config, error) {
	cfg := bookgraph.DefaultConfig()
	if flagConfig != "" {
		loaded, err := bookgraph.LoadConfig(flagConfig)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	if flagWorkers > 0 {
		cfg.Workers = flagWorkers
	}
	if flagNoStore {
		cfg.Persist = false
	}
	return cfg, nil
}

// openEngine builds an engine from the resolved config.
func openEngine() (bookgraph.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return bookgraph.New(cfg)
}
