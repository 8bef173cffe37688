package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/flatplay/internal/errors"
	"github.com/firefly-engineering/flatplay/internal/system"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the output of the latest run",
	Args:  cobra.NoArgs,
	RunE:  runLogs,
}

var logsLines int

func init() {
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 50, "Number of lines to show (0 for all)")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	a := current()

	m, err := resolveManifest()
	if err != nil {
		return err
	}

	path, err := latestRunLog(a.BuildDirs(m).Logs, a.FS)
	if err != nil {
		return err
	}
	if path == "" {
		logInfo("No runs recorded for %s", m.ID)
		return nil
	}

	data, err := a.FS.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ExitGeneralError, "failed to read run log", err)
	}

	out := cmd.OutOrStdout()
	if logsLines <= 0 {
		_, err := out.Write(data)
		return err
	}
	tail := system.NewTailBuffer(logsLines)
	_, _ = tail.Write(data)
	for _, line := range tail.Lines() {
		fmt.Fprintln(out, line)
	}
	return nil
}

// latestRunLog returns the newest log in dir. Run ids are time-ordered, so
// the lexically greatest name is the latest run.
func latestRunLog(dir string, fsys system.FileSystem) (string, error) {
	if !fsys.IsDir(dir) {
		return "", nil
	}
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return "", errors.Wrap(errors.ExitGeneralError, "failed to list run logs", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".log") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}
