//go:build !windows

package mft

import (
	"github.com/joyshmitz/ultrasearch/internal/model"
	"github.com/joyshmitz/ultrasearch/internal/ultraerr"
)

// osOpenReader has no non-Windows implementation: MFT enumeration is an
// NTFS/Windows-only concept (spec §4.2 "NotSupported... fatal precondition").
func osOpenReader(volume model.VolumeInfo) (reader, error) {
	return nil, ultraerr.ErrNotSupported
}
