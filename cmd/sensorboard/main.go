// Package main is the entry point for the sensorboard CLI.
//
// SensorBoard can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	sensorboard serve -c config.yaml    # Start the dashboard
//	sensorboard validate -c config.yaml # Validate configuration
//	sensorboard read -c config.yaml     # Read the sensor once
//	sensorboard version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "sensorboard",
	Short: "A live web page for a single HTTP sensor",
	Long: `SensorBoard reads a sensor's HTTP endpoint on a fixed timer and shows
the latest successful reading on a web page.

Every 2.5 seconds (by default) it requests "read" relative to the sensor's
base URL. A response that completes with status 200 replaces the reading on
the page verbatim. Anything else is dropped and the page keeps the last
good reading.

Quick start:
  1. Create a config file (sensorboard.yaml)
  2. Run: sensorboard serve -c sensorboard.yaml
  3. Open http://localhost:8080 in your browser

Example config:
  port: 8080
  interval: 2500ms
  source:
    base_url: http://esp8266.local/`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this sensorboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "sensorboard %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
