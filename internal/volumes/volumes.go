// Package volumes implements Volume Discovery (spec §4.1): enumerating
// mounted NTFS volumes and assigning each a stable small runtime id.
package volumes

import (
	"sort"

	"github.com/joyshmitz/ultrasearch/internal/logging"
	"github.com/joyshmitz/ultrasearch/internal/model"
)

var log = logging.For("volume-discovery")

// rawDiscovery maps an NTFS volume's GUID path to its currently mounted
// drive letters. Implemented per-platform.
type rawDiscovery func() (map[string][]rune, error)

var discoverRaw rawDiscovery = osDiscoverRaw

// SetDiscoverer overrides the raw discovery function, for tests. It returns
// a restore function.
func SetDiscoverer(fn func() (map[string][]rune, error)) (restore func()) {
	prev := discoverRaw
	discoverRaw = fn
	return func() { discoverRaw = prev }
}

// Discover enumerates NTFS volumes and returns them ordered by assigned
// id: ids are assigned by a stable sort on GUID path, counting from 1, so
// that rediscovery across restarts keeps ids consistent as long as the set
// of GUIDs is unchanged.
func Discover() ([]model.VolumeInfo, error) {
	byGUID, err := discoverRaw()
	if err != nil {
		return nil, err
	}
	return assignIDs(byGUID), nil
}

func assignIDs(byGUID map[string][]rune) []model.VolumeInfo {
	guids := make([]string, 0, len(byGUID))
	for guid := range byGUID {
		guids = append(guids, guid)
	}
	sort.Strings(guids)

	vols := make([]model.VolumeInfo, 0, len(guids))
	for i, guid := range guids {
		letters := append([]rune(nil), byGUID[guid]...)
		sort.Slice(letters, func(a, b int) bool { return letters[a] < letters[b] })
		vols = append(vols, model.VolumeInfo{
			ID:           uint16(i + 1),
			GUIDPath:     guid,
			DriveLetters: letters,
		})
	}
	return vols
}
