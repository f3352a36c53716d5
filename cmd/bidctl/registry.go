// cmd/bidctl/registry.go
package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"bidbuddy-workers/pkg/registry"
)

func newRegistryCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect and maintain the worker registry",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "configs/worker-registry.json", "path to the registry file")

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered workers by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}

			groups := reg.ByCategory()
			categories := make([]string, 0, len(groups))
			for c := range groups {
				categories = append(categories, c)
			}
			sort.Strings(categories)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tTASK TYPE\tSTATUS\tTIMEOUT\tRETRIES")
			for _, c := range categories {
				for _, w := range groups[c] {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", c, w.TaskType, w.ImplementationStatus, w.Timeout, w.Retries)
				}
			}
			return tw.Flush()
		},
	}

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Validate the registry file",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := reg.Validate(); err != nil {
				return fmt.Errorf("registry validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d workers.\n", len(reg.Workers))
			return nil
		},
	}

	update := &cobra.Command{
		Use:   "update <id> <field> <value>",
		Short: "Update one field of a registered worker",
		Long: `Updates status, version, displayName, description, timeout or retries.

Example:
  bidctl registry update quick-check status verified`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := reg.Update(args[0], args[1], args[2]); err != nil {
				return err
			}
			if err := reg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated worker %s, field %s to %s\n", args[0], args[1], args[2])
			return nil
		},
	}

	cmd.AddCommand(list, validate, update)
	return cmd
}
