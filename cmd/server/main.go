// Package main is the taskpulse server binary. It serves the HTTP API and
// runs the due-soon and overdue notification scheduler, and carries the
// operational commands (migrations, admin promotion, one-off scans).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// configFile is the optional YAML configuration file shared by every command.
var configFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "taskpulse",
		Short: "Task management API with due-date notifications",
		Long: `taskpulse serves the task management HTTP API and periodically notifies
users about tasks that are due soon or overdue.

Configuration is read from defaults, an optional YAML file (--config or
./config.yaml) and TASKPULSE_* environment variables, in increasing precedence.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a YAML config file")

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newPromoteAdminCmd())
	root.AddCommand(newScanCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
