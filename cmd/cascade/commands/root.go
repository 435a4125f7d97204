package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moolen/cascade/internal/logging"
)

const Version = "0.1.0"

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "cascade",
	Short: "Cascade - Incident Correlation and Clustering Engine",
	Long: `Cascade ingests heterogeneous telemetry, correlates events into
incidents across service dependencies, clusters recurring incidents by
evidence similarity and recommends remediation steps.`,
	Version: Version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level (debug, info, warn, error)")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(replayCmd)
}

// HandleError prints the error and exits
func HandleError(err error, msg string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
		os.Exit(1)
	}
}

// setupLog initializes the logging system
func setupLog(level string) error {
	return logging.Initialize(level)
}
