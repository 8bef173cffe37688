package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/flatplay/internal/manifest"
	"github.com/firefly-engineering/flatplay/internal/session"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the selected manifest, its build state and running sessions",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a := current()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Project: %s\n", a.Project.Root)

	if path := a.Locator.SelectedPath(); path == "" {
		fmt.Fprintln(out, "Manifest: (none selected)")
	} else if m, err := manifest.Load(path); err != nil {
		fmt.Fprintf(out, "Manifest: %s (unreadable: %v)\n", a.Locator.RelPath(path), err)
	} else {
		fmt.Fprintf(out, "Manifest: %s (%s)\n", a.Locator.RelPath(path), m.ID)
		fmt.Fprintf(out, "Build directory: %s\n", a.BuildDirs(m).Root)
		fmt.Fprintf(out, "Built: %s\n", boolStatus(a.Builder.IsBuilt(m)))
	}
	fmt.Fprintln(out)

	statuses, err := a.Controller.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		fmt.Fprintln(out, "Sessions: none")
		return nil
	}

	fmt.Fprintln(out, "Sessions:")
	for _, s := range statuses {
		bus := s.Session.SandboxBusID
		if bus == "" {
			bus = "-"
		}
		fmt.Fprintf(out, "  %s  pid %d  up %s  bus %s\n",
			s.Session.ApplicationID,
			s.Session.ProcessID,
			session.FormatUptime(s.Uptime),
			bus)
	}
	return nil
}

func boolStatus(b bool) string {
	if b {
		return "✓"
	}
	return "✗"
}
