// Command meridian is the CLI front end for a project: create and serve
// a project directory, and drive a running one's protocols, workflows
// and hosts over its REST API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridian-sci/meridian/pkg/log"
)

var (
	logLevel string
	logJSON  bool
	apiAddr  string
)

var rootCmd = &cobra.Command{
	Use:   "meridian",
	Short: "Scientific workflow orchestration",
	Long:  "meridian manages projects: directed graphs of protocols executed locally, via MPI, or through a batch queue.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON")
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "http://127.0.0.1:8080", "project server address, for protocol/workflow/host commands")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(protocolCmd)
	rootCmd.AddCommand(workflowCmd)
	rootCmd.AddCommand(hostCmd)
}

func initLogging() {
	level := log.InfoLevel
	switch logLevel {
	case "debug":
		level = log.DebugLevel
	case "warn":
		level = log.WarnLevel
	case "error":
		level = log.ErrorLevel
	}
	log.Init(log.Config{Level: level, JSONOutput: logJSON})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
