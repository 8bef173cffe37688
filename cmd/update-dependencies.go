package cmd

import (
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/flatplay/internal/audit"
)

var updateDependenciesCmd = &cobra.Command{
	Use:   "update-dependencies",
	Short: "Download fresh sources for all modules, then build",
	Args:  cobra.NoArgs,
	RunE:  runUpdateDependencies,
}

var updateNoBuild bool

func init() {
	updateDependenciesCmd.Flags().BoolVar(&updateNoBuild, "no-build", false, "Only download sources")
	rootCmd.AddCommand(updateDependenciesCmd)
}

func runUpdateDependencies(cmd *cobra.Command, args []string) error {
	a := current()

	m, err := resolveManifest()
	if err != nil {
		return err
	}

	logInfo("Updating dependencies of %s", m.ID)
	if err := a.Builder.UpdateDependencies(cmd.Context(), m); err != nil {
		a.Record(audit.EventError, m.ID, "update: "+err.Error())
		return err
	}
	a.Record(audit.EventUpdate, m.ID, "")
	logSuccess("Dependencies updated")

	if updateNoBuild {
		return nil
	}
	return buildManifest(cmd.Context(), m, false)
}
