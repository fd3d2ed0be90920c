package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridian-sci/meridian/pkg/client"
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Inspect a project's host inventory",
}

var hostListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured hosts",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(apiAddr)
		names, err := c.ListHosts()
		if err != nil {
			return fmt.Errorf("failed to list hosts: %w", err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var hostShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show one host's configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(apiAddr)
		cfg, err := c.GetHost(args[0])
		if err != nil {
			return fmt.Errorf("failed to get host %s: %w", args[0], err)
		}
		for k, v := range cfg {
			fmt.Printf("%-16s %v\n", k, v)
		}
		return nil
	},
}

func init() {
	hostCmd.AddCommand(hostListCmd, hostShowCmd)
}
