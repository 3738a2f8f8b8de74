package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taskflow/internal/config"
	"taskflow/internal/logger"
)

// state is shared by the subcommands of one root command.
type state struct {
	version string
	cfg     config.Config
}

// NewRootCmd builds the taskflow command tree.
func NewRootCmd(version string) *cobra.Command {
	st := &state{version: version}

	root := &cobra.Command{
		Use:   "taskflow",
		Short: "TaskFlow - personal task tracker",
		Long: `TaskFlow keeps tasks and categories consistent across an HTTP API, a Telegram bot
and JSON/XLSX backups.

Settings come from the environment, .env and an optional YAML file named by TASKFLOW_CONFIG.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			st.cfg = cfg
			logger.InitWriter(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogJSON)
			return nil
		},
	}
	root.Version = version

	root.AddCommand(
		newServeCmd(st),
		newExportCmd(st),
		newImportCmd(st),
		newStatsCmd(st),
	)
	return root
}

// Execute runs the root command.
func Execute(version string) error {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
