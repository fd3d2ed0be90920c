package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/meridian-sci/meridian/pkg/client"
	"github.com/meridian-sci/meridian/pkg/types"
)

var (
	protocolClassName string
	protocolLabel     string
	protocolHost      string
	protocolPrereqs   []int64
)

var protocolCmd = &cobra.Command{
	Use:   "protocol",
	Short: "Manage protocols on a running project",
}

var protocolNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a new protocol",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(apiAddr)
		p, err := c.CreateProtocol(protocolClassName, protocolLabel, protocolHost, nil)
		if err != nil {
			return fmt.Errorf("failed to create protocol: %w", err)
		}
		fmt.Printf("✓ Protocol created: %d (%s)\n", p.ID, p.Label)
		return nil
	},
}

var protocolListCmd = &cobra.Command{
	Use:   "list",
	Short: "List protocols",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(apiAddr)
		protocols, err := c.ListProtocols("")
		if err != nil {
			return fmt.Errorf("failed to list protocols: %w", err)
		}
		fmt.Printf("%-6s %-30s %-24s %-12s\n", "ID", "LABEL", "CLASS", "STATUS")
		for _, p := range protocols {
			fmt.Printf("%-6d %-30s %-24s %-12s\n", p.ID, truncate(p.Label, 30), truncate(p.ClassName, 24), p.Status)
		}
		return nil
	},
}

func protocolIDArg(args []string) (int64, error) {
	return strconv.ParseInt(args[0], 10, 64)
}

func simpleLifecycleCmd(use, short, verb string, action func(*client.Client, int64) (*types.Protocol, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := protocolIDArg(args)
			if err != nil {
				return fmt.Errorf("invalid protocol id: %w", err)
			}
			c := client.NewClient(apiAddr)
			p, err := action(c, id)
			if err != nil {
				return fmt.Errorf("failed to %s protocol: %w", verb, err)
			}
			fmt.Printf("✓ Protocol %s: %d (status=%s)\n", verb, p.ID, p.Status)
			return nil
		},
	}
}

var protocolLaunchCmd = simpleLifecycleCmd("launch ID", "Launch a protocol", "launched", (*client.Client).LaunchProtocol)
var protocolStopCmd = simpleLifecycleCmd("stop ID", "Stop a running protocol", "stopped", (*client.Client).StopProtocol)
var protocolResetCmd = simpleLifecycleCmd("reset ID", "Reset a protocol's run state", "reset", (*client.Client).ResetProtocol)
var protocolContinueCmd = simpleLifecycleCmd("continue ID", "Continue a protocol waiting on an interactive step", "continued", (*client.Client).ContinueProtocol)
var protocolCopyCmd = simpleLifecycleCmd("copy ID", "Copy a protocol", "copied", (*client.Client).CopyProtocol)

var protocolScheduleCmd = &cobra.Command{
	Use:   "schedule ID",
	Short: "Schedule a protocol pending prerequisites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := protocolIDArg(args)
		if err != nil {
			return fmt.Errorf("invalid protocol id: %w", err)
		}
		c := client.NewClient(apiAddr)
		p, err := c.ScheduleProtocol(id, protocolPrereqs)
		if err != nil {
			return fmt.Errorf("failed to schedule protocol: %w", err)
		}
		fmt.Printf("✓ Protocol scheduled: %d (status=%s)\n", p.ID, p.Status)
		return nil
	},
}

var protocolDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a protocol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := protocolIDArg(args)
		if err != nil {
			return fmt.Errorf("invalid protocol id: %w", err)
		}
		c := client.NewClient(apiAddr)
		if err := c.DeleteProtocol(id); err != nil {
			return fmt.Errorf("failed to delete protocol: %w", err)
		}
		fmt.Printf("✓ Protocol deleted: %d\n", id)
		return nil
	},
}

func init() {
	protocolNewCmd.Flags().StringVar(&protocolClassName, "class", "", "protocol class name (required)")
	protocolNewCmd.Flags().StringVar(&protocolLabel, "label", "", "protocol label")
	protocolNewCmd.Flags().StringVar(&protocolHost, "host", "", "host to run on")
	protocolNewCmd.MarkFlagRequired("class")

	protocolScheduleCmd.Flags().Int64SliceVar(&protocolPrereqs, "prerequisite", nil, "prerequisite protocol id (repeatable)")

	protocolCmd.AddCommand(protocolNewCmd, protocolListCmd, protocolLaunchCmd, protocolScheduleCmd,
		protocolStopCmd, protocolResetCmd, protocolContinueCmd, protocolCopyCmd, protocolDeleteCmd)
}
