//go:build !windows

package config

import (
	"os"
	"path/filepath"
)

func defaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "ultrasearch")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "ultrasearch")
	}
	return filepath.Join(home, ".local", "state", "ultrasearch")
}
