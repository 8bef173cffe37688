package cmd

import (
	"github.com/spf13/cobra"
)

var runtimeTerminalCmd = &cobra.Command{
	Use:   "runtime-terminal",
	Short: "Open a shell in the manifest's SDK",
	Args:  cobra.NoArgs,
	RunE:  runRuntimeTerminal,
}

var buildTerminalCmd = &cobra.Command{
	Use:   "build-terminal",
	Short: "Open a shell in the application's build environment",
	Args:  cobra.NoArgs,
	RunE:  runBuildTerminal,
}

func init() {
	rootCmd.AddCommand(runtimeTerminalCmd)
	rootCmd.AddCommand(buildTerminalCmd)
}

func runRuntimeTerminal(cmd *cobra.Command, args []string) error {
	m, err := resolveManifest()
	if err != nil {
		return err
	}
	return current().Builder.RuntimeTerminal(cmd.Context(), m)
}

func runBuildTerminal(cmd *cobra.Command, args []string) error {
	m, err := resolveManifest()
	if err != nil {
		return err
	}
	return current().Builder.BuildTerminal(cmd.Context(), m)
}
