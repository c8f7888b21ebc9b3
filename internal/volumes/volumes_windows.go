//go:build windows

package volumes

import (
	"fmt"
	"strings"

	"golang.org/x/sys/windows"
)

// osDiscoverRaw walks the logical drive mask, keeps NTFS drives, and
// groups drive letters by volume GUID path. One bad drive (GetVolumeInformationW
// or GetVolumeNameForVolumeMountPointW failing) is logged and skipped; it
// never aborts discovery of the remaining drives (spec §4.1 "Errors").
func osDiscoverRaw() (map[string][]rune, error) {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return nil, fmt.Errorf("GetLogicalDrives: %w", err)
	}
	if mask == 0 {
		return nil, fmt.Errorf("GetLogicalDrives returned no drives")
	}

	byGUID := make(map[string][]rune)

	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		letter := rune('A' + i)
		root := fmt.Sprintf(`%c:\`, letter)

		fsName, ok := volumeFileSystem(root)
		if !ok {
			log.WithField("root", root).Warn("GetVolumeInformationW failed; skipping")
			continue
		}
		if !strings.EqualFold(fsName, "ntfs") {
			continue
		}

		guid, ok := volumeGUIDPath(root)
		if !ok {
			log.WithField("root", root).Warn("GetVolumeNameForVolumeMountPointW failed; skipping")
			continue
		}

		byGUID[guid] = append(byGUID[guid], letter)
	}

	return byGUID, nil
}

func volumeFileSystem(root string) (string, bool) {
	rootPtr, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return "", false
	}

	var fsNameBuf [32]uint16
	var serial, maxComponent, flags uint32

	err = windows.GetVolumeInformation(
		rootPtr,
		nil, 0,
		&serial,
		&maxComponent,
		&flags,
		&fsNameBuf[0],
		uint32(len(fsNameBuf)),
	)
	if err != nil {
		return "", false
	}
	return windows.UTF16ToString(fsNameBuf[:]), true
}

func volumeGUIDPath(root string) (string, bool) {
	rootPtr, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return "", false
	}

	var guidBuf [64]uint16
	err = windows.GetVolumeNameForVolumeMountPoint(rootPtr, &guidBuf[0], uint32(len(guidBuf)))
	if err != nil {
		return "", false
	}
	return windows.UTF16ToString(guidBuf[:]), true
}
