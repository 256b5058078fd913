package main

import (
	"cardash/internal/config"
	"cardash/internal/engine"
	"cardash/internal/logger"
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	dataPath string

	// Loaded configuration
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "cardash",
	Short:         "Used-car dashboard: body type and price distribution aggregates",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); defaults and CARDASH_* env apply without one")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dataPath, "file", "", "source table (.csv, .tsv, .xlsx); overrides data.path")

	rootCmd.AddCommand(serveCmd, summarizeCmd)
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Fatal("%v", err)
	}
}

func loadConfig(cmd *cobra.Command) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	f := cmd.Flags()
	if f.Changed("log-level") {
		c.Logging.Level = logLevel
	}
	if f.Changed("file") {
		c.Data.Path = dataPath
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(c.Logging.Level, c.Logging.Format)
	cfg = c
	return nil
}

func newPipeline(store *engine.Store) (*engine.Pipeline, error) {
	source := engine.FileSource{
		Path: cfg.Data.Path,
		Options: engine.DecodeOptions{
			Delimiter: cfg.Data.DelimiterRune(),
			Sheet:     cfg.Data.Sheet,
		},
	}
	opts := engine.Options{
		CategoryField: cfg.Dashboard.CategoryField,
		NumericField:  cfg.Dashboard.NumericField,
		BinWidth:      cfg.Dashboard.BinWidth,
	}
	return engine.NewPipeline(source, opts, store)
}
