package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/flatplay/internal/app"
	"github.com/firefly-engineering/flatplay/internal/logging"
)

var (
	verbose    bool
	jsonOutput bool
	projectDir string
)

var rootCmd = &cobra.Command{
	Use:   "flatplay",
	Short: "Build, run and stop Flatpak applications from their manifest",
	Long: `flatplay drives flatpak-builder and flatpak to build a Flatpak
application from the manifest in the current project and run it in place.

Running flatplay without a command builds the application and runs it.
Sessions are tracked across invocations, so a later "flatplay stop"
finds the application started by an earlier "flatplay run".`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup(verbose, jsonOutput, os.Stderr)
		if app.Default != nil {
			return nil
		}
		dir := projectDir
		if dir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			dir = wd
		}
		a, err := app.New(dir)
		if err != nil {
			return err
		}
		app.SetDefault(a)
		return nil
	},
	RunE: runBuildAndRun,
}

// Execute runs the command line with ctx as the cancellation context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "C", "", "Project directory (default: current directory)")
	rootCmd.Flags().BoolVar(&buildAndRunClean, "clean", false, "Remove build state before building")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
)
