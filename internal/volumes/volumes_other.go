//go:build !windows

package volumes

import "github.com/joyshmitz/ultrasearch/internal/ultraerr"

// osDiscoverRaw has no non-Windows implementation: NTFS volume enumeration
// is a Windows-only concept (spec §4.1 is written against the Windows
// volume APIs). Tests on other platforms inject a fake via SetDiscoverer.
func osDiscoverRaw() (map[string][]rune, error) {
	return nil, ultraerr.ErrNotSupported
}
