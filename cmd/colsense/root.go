package colsense

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/colsense/colsense/internal/config"
	"github.com/colsense/colsense/internal/logging"
)

var (
	flagDebug         bool
	flagNoColor       bool
	flagJSON          bool
	flagNoUpdateCheck bool
	flagEnvFile       string

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the colsense CLI.
var rootCmd = &cobra.Command{
	Use:   "colsense",
	Short: "Classify the sensitivity of data columns",
	Long: "colsense extracts column metadata from CSV files or JSON schemas and asks a Gemini model " +
		"to label each column Public, Internal, Confidential, PII or Finance-critical.",
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the colsense CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON")
	rootCmd.PersistentFlags().BoolVar(&flagNoUpdateCheck, "no-update-check", false, "disable update check")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "dotenv file read before the environment (existing variables win)")
}

// setup loads the dotenv file and installs the process logger.
func setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnv(flagEnvFile); err != nil {
		return fmt.Errorf("load %s: %w", flagEnvFile, err)
	}
	gcfg, lcfg := loadConfigs()

	level := logging.ParseLevel(pickString("", lcfg.LogLevel, gcfg.LogLevel))
	if flagDebug {
		level = slog.LevelDebug
	}
	logging.Init(logging.Options{
		Level:   level,
		NoColor: pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor),
		Writer:  cmd.ErrOrStderr(),
	})
	return nil
}
