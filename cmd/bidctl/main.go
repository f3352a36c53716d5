// cmd/bidctl/main.go
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bidctl",
		Short: "Operator tooling for the BidBuddy workers",
		Long: `bidctl scores tenders offline, inspects the worker registry,
runs database migrations and stages tender PDFs in object storage.`,
		SilenceUsage: true,
	}
	root.AddCommand(
		newScoreCmd(),
		newRegistryCmd(),
		newMigrateCmd(),
		newTenderCmd(),
	)
	return root
}
