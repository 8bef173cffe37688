package cmd

import (
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/flatplay/internal/audit"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the build state of the selected manifest",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	a := current()

	m, err := resolveManifest()
	if err != nil {
		return err
	}

	if err := a.Builder.Clean(m); err != nil {
		return err
	}

	a.Record(audit.EventClean, m.ID, "")
	logSuccess("Removed build state of %s", m.ID)
	return nil
}
