package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/logger"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ui"
)

var crashesCmd = &cobra.Command{
	Use:   "crashes [name]",
	Short: "List crash logs, or print one",
	Long: `A panic writes a crash log with the version, command, inputs and stack.
Without arguments the logs are listed newest first; with a name (or "last")
that log is printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		return runCrashes(cmd.OutOrStdout(), name)
	},
}

func init() {
	rootCmd.AddCommand(crashesCmd)
}

func runCrashes(w io.Writer, name string) error {
	logs, err := logger.ListCrashLogs()
	if err != nil {
		return staged(stageLoad, fmt.Errorf("list crash logs: %w", err))
	}
	if name == "" {
		if len(logs) == 0 {
			fmt.Fprintln(w, ui.StyleSubtle.Render("No crash logs."))
			return nil
		}
		for i := len(logs) - 1; i >= 0; i-- {
			fmt.Fprintln(w, filepath.Base(logs[i]))
		}
		return nil
	}

	var path string
	for _, l := range logs {
		if filepath.Base(l) == name || strings.TrimSuffix(filepath.Base(l), filepath.Ext(l)) == name {
			path = l
		}
	}
	if name == "last" && len(logs) > 0 {
		path = logs[len(logs)-1]
	}
	if path == "" {
		return staged(stageUsage, apperr.NotFound("crash log", name))
	}
	content, err := logger.ReadCrashLog(path)
	if err != nil {
		return staged(stageLoad, err)
	}
	fmt.Fprint(w, content)
	return nil
}
