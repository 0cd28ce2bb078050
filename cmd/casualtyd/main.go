package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/casualty-data-service/internal/config"
	"github.com/couchcryptid/casualty-data-service/internal/observability"
)

var version = "dev"

var (
	envFile string
	cfg     *config.Config
	logger  *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError reports a command failure. Cobra's own printing is silenced so
// usage is not dumped after runtime errors.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, "Error:", err)
}

var rootCmd = &cobra.Command{
	Use:           "casualtyd",
	Short:         "Fetch, cache and serve the casualty datasets",
	Long:          "casualtyd downloads the daily casualty series and the victims registry, keeps them cached on disk, and serves them over HTTP.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		var err error
		cfg, err = config.Load(files...)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger = observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load variables from this file before reading the environment")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "casualtyd", version)
	},
}
