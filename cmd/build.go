package cmd

import (
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the application",
	Long: `Build the application described by the selected manifest.

Dependencies are built on the first run only; later builds rebuild just the
application module. Use --clean to start from scratch.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

var buildClean bool

func init() {
	buildCmd.Flags().BoolVar(&buildClean, "clean", false, "Remove build state before building")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	m, err := resolveManifest()
	if err != nil {
		return err
	}
	return buildManifest(cmd.Context(), m, buildClean)
}
