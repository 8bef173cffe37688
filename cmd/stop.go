package cmd

import (
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/flatplay/internal/audit"
)

var stopCmd = &cobra.Command{
	Use:   "stop [app-id]",
	Short: "Stop the running application",
	Long: `Stop the running application of the selected manifest, or the session
of app-id when given.

The application is first asked to quit over the session bus; it is
terminated after the stop timeout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	a := current()

	var appID string
	if len(args) == 1 {
		appID = args[0]
	} else {
		m, err := resolveManifest()
		if err != nil {
			return err
		}
		appID = m.ID
	}

	logInfo("Stopping %s...", appID)
	sess, err := a.Controller.Stop(cmd.Context(), appID)
	if err != nil {
		return err
	}

	a.Record(audit.EventStop, appID, "")
	logSuccess("Stopped %s (pid %d)", appID, sess.ProcessID)
	return nil
}
