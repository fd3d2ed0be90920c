package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meridian-sci/meridian/pkg/client"
)

var (
	workflowIDs    []string
	workflowOutput string
)

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Export and import workflow documents",
}

var workflowExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export protocols to a workflow JSON document",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]int64, 0, len(workflowIDs))
		for _, raw := range workflowIDs {
			id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid protocol id %q: %w", raw, err)
			}
			ids = append(ids, id)
		}

		c := client.NewClient(apiAddr)
		data, err := c.ExportWorkflow(ids)
		if err != nil {
			return fmt.Errorf("failed to export workflow: %w", err)
		}
		if workflowOutput == "" {
			fmt.Println(string(data))
			return nil
		}
		if err := os.WriteFile(workflowOutput, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", workflowOutput, err)
		}
		fmt.Printf("✓ Workflow exported: %s\n", workflowOutput)
		return nil
	},
}

var workflowImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a workflow JSON document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		c := client.NewClient(apiAddr)
		imported, err := c.ImportWorkflow(data)
		if err != nil {
			return fmt.Errorf("failed to import workflow: %w", err)
		}
		fmt.Printf("✓ Workflow imported: %d protocol(s)\n", len(imported))
		for _, p := range imported {
			fmt.Printf("  %-6d %s\n", p.ID, p.Label)
		}
		return nil
	},
}

func init() {
	workflowExportCmd.Flags().StringSliceVar(&workflowIDs, "id", nil, "protocol id to export (repeatable, default all)")
	workflowExportCmd.Flags().StringVar(&workflowOutput, "output", "", "write to file instead of stdout")

	workflowCmd.AddCommand(workflowExportCmd, workflowImportCmd)
}
