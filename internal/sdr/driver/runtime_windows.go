//go:build windows && amd64

package driver

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindRuntime locates a bundled capture binary relative to the running
// executable or the current working directory, since Windows installs
// rarely have the SDR toolchain on PATH the way Linux packages do.
func FindRuntime(runtime string) (string, error) {
	var lookup []string

	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	lookup = append(lookup, filepath.Dir(exePath))

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	lookup = append(lookup, cwd)

	for _, dir := range lookup {
		matches, err := filepath.Glob(filepath.Join(dir, "bin", "*", "windows", "x64", fmt.Sprintf("%s.exe", runtime)))
		if err != nil || len(matches) == 0 {
			continue
		}

		binPath := matches[0]
		if _, err = os.Stat(binPath); err != nil {
			continue
		}

		return binPath, nil
	}

	return "", NewRuntimeError(fmt.Sprintf("driver: binary %q not found", runtime))
}
