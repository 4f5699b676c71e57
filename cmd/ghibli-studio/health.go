// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ghibli-studio/internal/conversion"
	"github.com/pdiddy/ghibli-studio/pkg/types"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the conversion service is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client := conversion.NewClient(cfg.Conversion, conversion.WithLogger(logger))

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		report, err := client.Health(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "unreachable: %s (%s)\n", client.HealthURL(), types.UserMessage(err))
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		fmt.Printf("%s: %s (%s)\n", report.Service, report.Status, client.HealthURL())
		if !report.Healthy() {
			return fmt.Errorf("service reported status %q", report.Status)
		}
		return nil
	},
}

func init() {
	healthCmd.Flags().Bool("json", false, "output the health report as JSON")

	rootCmd.AddCommand(healthCmd)
}
