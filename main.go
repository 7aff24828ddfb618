// Program chanplan manages named channel tables for handheld radios: it
// imports and exports the radio's CSV format, validates edits, and keeps
// every table (with per-channel comments) in a local store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var configDir string

var rootCmd = &cobra.Command{
	Use:           "chanplan",
	Short:         "Manage handheld radio channel tables",
	Long:          `chanplan keeps named channel groups for a 30-channel handheld radio, imports and exports the radio's CSV format, and edits channels in a terminal grid or a line shell.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUI(cmd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the chanplan version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "chanplan version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default $CHANPLAN_CONFIG_PATH or data/config)")
	rootCmd.AddCommand(
		newUICommand(),
		newImportCommand(),
		newExportCommand(),
		newGroupsCommand(),
		newRenameCommand(),
		newDeleteCommand(),
		newValidateCommand(),
		newShellCommand(),
		newBackupCommand(),
		versionCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
