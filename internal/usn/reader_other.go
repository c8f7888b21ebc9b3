//go:build !windows

package usn

import (
	"github.com/joyshmitz/ultrasearch/internal/model"
	"github.com/joyshmitz/ultrasearch/internal/ultraerr"
)

// osOpenJournal has no non-Windows implementation: the USN journal is an
// NTFS/Windows-only concept.
func osOpenJournal(volume model.VolumeInfo) (journalReader, error) {
	return nil, ultraerr.ErrNotSupported
}
