// Package cursorstore persists per-volume USN journal cursors (spec §6
// "Persisted state"): a tiny 16-byte binary file per volume so a restart
// resumes near where the watcher left off instead of rescanning.
package cursorstore

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/joyshmitz/ultrasearch/internal/model"
)

const recordSize = 16 // journal_id uint64 + last_usn uint64, little-endian

// Store reads and writes cursors/<volume_id>.bin files under a root
// directory (PersistConfig.StateDir joined with "cursors").
type Store struct {
	dir string
}

// Open ensures dir exists and returns a Store rooted there.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "cursorstore: creating %s", dir)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(volume uint16) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d.bin", volume))
}

// Load returns the persisted cursor for volume, or ok=false if none has
// ever been written (a fresh volume starts at the zero cursor per
// spec §4.11).
func (s *Store) Load(volume uint16) (cursor model.JournalCursor, ok bool, err error) {
	data, err := os.ReadFile(s.path(volume))
	if errors.Is(err, os.ErrNotExist) {
		return model.JournalCursor{}, false, nil
	}
	if err != nil {
		return model.JournalCursor{}, false, errors.Wrapf(err, "cursorstore: reading volume %d", volume)
	}
	if len(data) != recordSize {
		return model.JournalCursor{}, false, errors.Errorf("cursorstore: volume %d cursor file is %d bytes, want %d", volume, len(data), recordSize)
	}
	return model.JournalCursor{
		JournalID: binary.LittleEndian.Uint64(data[0:8]),
		LastUSN:   binary.LittleEndian.Uint64(data[8:16]),
	}, true, nil
}

// Save writes cursor for volume, replacing any prior file atomically via
// a write-then-rename so a crash mid-write never leaves a truncated file
// behind for Load to choke on.
func (s *Store) Save(volume uint16, cursor model.JournalCursor) error {
	buf := make([]byte, recordSize)
	binary.LittleEndian.PutUint64(buf[0:8], cursor.JournalID)
	binary.LittleEndian.PutUint64(buf[8:16], cursor.LastUSN)

	final := s.path(volume)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return errors.Wrapf(err, "cursorstore: writing volume %d", volume)
	}
	if err := os.Rename(tmp, final); err != nil {
		return errors.Wrapf(err, "cursorstore: committing volume %d", volume)
	}
	return nil
}
