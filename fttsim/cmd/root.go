// Package cmd provides the command-line interface of fttsim.
package cmd

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

const (
	envMonitorPort = "FTTSIM_MONITOR_PORT"
	envTraceDB     = "FTTSIM_TRACE_DB"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fttsim",
	Short: "fttsim simulates Flexible Time-Triggered Ethernet networks.",
	Long: `fttsim simulates Flexible Time-Triggered Ethernet networks ` +
		`described in YAML or JSON topology files. Defaults for some flags ` +
		`can be set in a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		return loadEnvFile(envFile, cmd.Flags().Changed("env-file"))
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env",
		"File with environment defaults")
}

// loadEnvFile loads environment defaults. A missing default file is not an
// error; a missing file that was asked for is.
func loadEnvFile(path string, required bool) error {
	err := godotenv.Load(path)
	if err != nil && !required && errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Exit handlers, such as trace flushing, run before the
// process ends.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Printf("Error: %v", err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func envOr(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}

	return fallback
}
