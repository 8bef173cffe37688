package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var auditLogCmd = &cobra.Command{
	Use:   "audit-log",
	Short: "Display the lifecycle events of the project",
	Args:  cobra.NoArgs,
	RunE:  runAuditLog,
}

var (
	auditLogJSON  bool
	auditLogLines int
)

func init() {
	auditLogCmd.Flags().BoolVar(&auditLogJSON, "json", false, "Output events as JSON lines")
	auditLogCmd.Flags().IntVarP(&auditLogLines, "lines", "n", 0, "Show only the last N events")
	rootCmd.AddCommand(auditLogCmd)
}

func runAuditLog(cmd *cobra.Command, args []string) error {
	a := current()
	out := cmd.OutOrStdout()

	events, err := a.Audit.Events(auditLogLines)
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}

	if len(events) == 0 {
		logInfo("No events recorded for %s", a.Project.Root)
		return nil
	}

	for _, e := range events {
		if auditLogJSON {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to marshal event: %w", err)
			}
			fmt.Fprintln(out, string(data))
			continue
		}

		ts := e.Timestamp.Local().Format("2006-01-02 15:04:05")
		line := fmt.Sprintf("[%s] %-7s %s", ts, e.Type, e.App)
		if e.Details != "" {
			line += " (" + e.Details + ")"
		}
		fmt.Fprintln(out, line)
	}

	return nil
}
