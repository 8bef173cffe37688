package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/firefly-engineering/flatplay/internal/audit"
	"github.com/firefly-engineering/flatplay/internal/errors"
	"github.com/firefly-engineering/flatplay/internal/manifest"
	"github.com/firefly-engineering/flatplay/internal/tui"
)

var selectManifestCmd = &cobra.Command{
	Use:   "select-manifest [path]",
	Short: "Choose the manifest used by the other commands",
	Long: `Choose the manifest used by the other commands.

Without a path, an interactive picker lists the manifests found in the
project when running in a terminal. Otherwise the manifest is resolved as
by the other commands: a single manifest is selected, several fail until
one is chosen by path. The list is then printed with the current
selection marked with "*".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSelectManifest,
}

// isTerminal reports whether the picker can run; replaced in tests.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func init() {
	rootCmd.AddCommand(selectManifestCmd)
}

func runSelectManifest(cmd *cobra.Command, args []string) error {
	a := current()

	if len(args) == 1 {
		return selectManifest(args[0])
	}

	if !isTerminal() {
		m, err := resolveManifest()
		if err != nil {
			return err
		}
		candidates, err := a.Locator.Locate()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), tui.SimpleList(manifestEntries(candidates, m.Path, a.Locator.RelPath)))
		return nil
	}

	candidates, err := a.Locator.Locate()
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return errors.ManifestNotFound("no manifest found in " + a.Project.Root)
	}

	entries := manifestEntries(candidates, a.Locator.SelectedPath(), a.Locator.RelPath)

	result, err := tui.RunPicker(entries)
	if err != nil {
		return fmt.Errorf("picker failed: %w", err)
	}
	if result.Action != tui.ActionSelect || result.Entry == nil {
		return nil
	}
	return selectManifest(result.Entry.Path)
}

func selectManifest(choice string) error {
	a := current()

	m, err := a.Locator.Select(choice)
	if err != nil {
		return err
	}

	rel := a.Locator.RelPath(m.Path)
	a.Record(audit.EventSelect, m.ID, rel)
	logSuccess("Selected %s (%s)", rel, m.ID)
	return nil
}

func manifestEntries(candidates []manifest.Candidate, selected string, rel func(string) string) []*tui.Entry {
	entries := make([]*tui.Entry, len(candidates))
	for i, c := range candidates {
		entries[i] = &tui.Entry{
			Path:    c.Path,
			RelPath: rel(c.Path),
			AppID:   c.ID,
			Current: c.Path == selected,
		}
	}
	return entries
}
