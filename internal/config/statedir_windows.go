//go:build windows

package config

import (
	"os"
	"path/filepath"
)

func defaultStateDir() string {
	if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
		return filepath.Join(dir, "UltraSearch")
	}
	return filepath.Join(os.TempDir(), "UltraSearch")
}
