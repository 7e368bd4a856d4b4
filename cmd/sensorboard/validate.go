package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sensorboard"
	"github.com/jpalmerr/sensorboard/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a SensorBoard configuration file without starting the server.

This command parses the YAML, expands environment variables, validates all
fields and resolves the read URL. No request is sent to the sensor.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  sensorboard validate -c config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	sb, err := sensorboard.New(opts...)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:       %d\n", sb.Port())
	fmt.Fprintf(out, "  Interval:   %s\n", sb.Interval())
	fmt.Fprintf(out, "  Read URL:   %s\n", sb.Source().URL())
	timeout := "none"
	if d := sb.Source().Timeout(); d > 0 {
		timeout = d.String()
	}
	fmt.Fprintf(out, "  Timeout:    %s\n", timeout)
	fmt.Fprintf(out, "  Surface id: %s\n", sb.SurfaceID())

	return nil
}
