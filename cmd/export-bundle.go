package cmd

import (
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/flatplay/internal/audit"
)

var exportBundleCmd = &cobra.Command{
	Use:   "export-bundle [destination]",
	Short: "Export the built application as a .flatpak bundle",
	Long: `Export the built application as a single-file bundle.

The bundle is written to <app-id>.flatpak in the project directory unless a
destination is given. Relative destinations are resolved against the
project directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExportBundle,
}

func init() {
	rootCmd.AddCommand(exportBundleCmd)
}

func runExportBundle(cmd *cobra.Command, args []string) error {
	a := current()

	m, err := resolveManifest()
	if err != nil {
		return err
	}

	var dest string
	if len(args) == 1 {
		dest = args[0]
	}

	logInfo("Exporting %s", m.ID)
	path, err := a.Builder.Export(cmd.Context(), m, dest)
	if err != nil {
		a.Record(audit.EventError, m.ID, "export: "+err.Error())
		return err
	}

	a.Record(audit.EventExport, m.ID, path)
	logSuccess("Bundle written to %s", path)
	return nil
}
