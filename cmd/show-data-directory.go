package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var showDataDirectoryCmd = &cobra.Command{
	Use:   "show-data-directory",
	Short: "Print the application's per-user data directory",
	Args:  cobra.NoArgs,
	RunE:  runShowDataDirectory,
}

// userHomeDir is replaced in tests.
var userHomeDir = os.UserHomeDir

func init() {
	rootCmd.AddCommand(showDataDirectoryCmd)
}

func runShowDataDirectory(cmd *cobra.Command, args []string) error {
	m, err := resolveManifest()
	if err != nil {
		return err
	}

	home, err := userHomeDir()
	if err != nil {
		return fmt.Errorf("failed to determine home directory: %w", err)
	}

	dir := filepath.Join(home, ".var", "app", m.ID)
	fmt.Fprintln(cmd.OutOrStdout(), dir)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logWarning("%s has not been created yet; run the application first", dir)
	}
	return nil
}
