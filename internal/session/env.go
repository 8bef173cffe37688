package session

import (
	"sort"
	"strings"
)

const a11yMountPoint = "/run/flatpak/at-spi-bus"

// hostEnvArgs returns --env flags for every forwarded variable set on the host.
func hostEnvArgs(keys []string, lookup func(string) (string, bool)) []string {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	var args []string
	seen := make(map[string]bool)
	for _, key := range sorted {
		if seen[key] {
			continue
		}
		seen[key] = true
		if value, ok := lookup(key); ok {
			args = append(args, "--env="+key+"="+value)
		}
	}
	return args
}

// a11yArgs exposes the host accessibility bus at address inside the sandbox.
// It returns nil for addresses that are not unix sockets.
func a11yArgs(address string) []string {
	rest, ok := strings.CutPrefix(address, "unix:path=")
	if !ok || rest == "" {
		return nil
	}
	path, suffix := rest, ""
	if i := strings.IndexByte(rest, ','); i >= 0 {
		path, suffix = rest[:i], rest[i:]
	}
	if path == "" {
		return nil
	}
	return []string{
		"--bind-mount=" + a11yMountPoint + "=" + path,
		"--env=AT_SPI_BUS_ADDRESS=unix:path=" + a11yMountPoint + suffix,
	}
}
