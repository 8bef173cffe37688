package cmd

import (
	"github.com/spf13/cobra"
)

var buildAndRunCmd = &cobra.Command{
	Use:   "build-and-run",
	Short: "Build the application, then run it",
	Args:  cobra.NoArgs,
	RunE:  runBuildAndRun,
}

var buildAndRunClean bool

func init() {
	buildAndRunCmd.Flags().BoolVar(&buildAndRunClean, "clean", false, "Remove build state before building")
	rootCmd.AddCommand(buildAndRunCmd)
}

func runBuildAndRun(cmd *cobra.Command, args []string) error {
	m, err := resolveManifest()
	if err != nil {
		return err
	}
	if err := buildManifest(cmd.Context(), m, buildAndRunClean); err != nil {
		return err
	}
	_, err = runManifest(cmd.Context(), m)
	return err
}
