package main

import (
	"context"

	"github.com/spf13/cobra"

	"webscout/cmd/webscout/scan"
	"webscout/cmd/webscout/server"
)

func Execute() error {
	var rootCmd = &cobra.Command{
		Use:   "webscout",
		Short: "A web reconnaissance and vulnerability scanning orchestrator",
		Long:  `Webscout orchestrates external scanners and web analysis APIs against a target and aggregates their output into a uniform scan record`,
	}

	rootCmd.AddCommand(scan.NewScanCommand())
	rootCmd.AddCommand(server.NewServerCommand())
	return rootCmd.ExecuteContext(context.Background())
}
