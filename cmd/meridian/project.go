package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meridian-sci/meridian/pkg/api"
	"github.com/meridian-sci/meridian/pkg/project"
	"github.com/meridian-sci/meridian/pkg/proto"
)

var (
	projectRunsView int
	projectReadOnly bool
	projectListen   string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage a project directory",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create PATH",
	Short: "Lay out a new project directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := project.Create(args[0], proto.NewRegistry(), projectRunsView, projectReadOnly)
		if err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
		defer p.Close()
		fmt.Printf("✓ Project created: %s\n", p.Path())
		return nil
	},
}

var projectInfoCmd = &cobra.Command{
	Use:   "info PATH",
	Short: "Show a project's settings and host inventory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := project.Load(args[0], proto.NewRegistry())
		if err != nil {
			return fmt.Errorf("failed to load project: %w", err)
		}
		defer p.Close()

		fmt.Printf("Path:      %s\n", p.Path())
		fmt.Printf("Read-only: %t\n", p.IsReadOnly())
		fmt.Printf("Created:   %s\n", p.CreationTime().Format("2006-01-02 15:04:05"))
		fmt.Printf("Hosts:     %v\n", p.HostNames())
		return nil
	},
}

var projectServeCmd = &cobra.Command{
	Use:   "serve PATH",
	Short: "Open a project and serve it over HTTP until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := project.Load(args[0], proto.NewRegistry())
		if err != nil {
			return fmt.Errorf("failed to load project: %w", err)
		}
		defer p.Close()

		p.Start()
		fmt.Printf("✓ Scheduler started for %s\n", p.ShortName())

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		server := api.NewServer(p)
		fmt.Printf("✓ Listening on %s\n", projectListen)
		if err := server.Start(ctx, projectListen); err != nil {
			return fmt.Errorf("failed to serve project: %w", err)
		}
		return nil
	},
}

func init() {
	projectCreateCmd.Flags().IntVar(&projectRunsView, "runs-view", 1, "initial runs view (0=all, 1=tree, 2=flat)")
	projectCreateCmd.Flags().BoolVar(&projectReadOnly, "read-only", false, "open the new project read-only")
	projectServeCmd.Flags().StringVar(&projectListen, "listen", ":8080", "HTTP listen address")

	projectCmd.AddCommand(projectCreateCmd, projectInfoCmd, projectServeCmd)
}
