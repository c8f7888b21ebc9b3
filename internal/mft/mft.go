// Package mft implements the MFT Enumerator (spec §4.2): a pull-based,
// per-volume sequence of FileMeta derived from the Master File Table.
package mft

import (
	"path/filepath"
	"strings"

	"github.com/joyshmitz/ultrasearch/internal/docid"
	"github.com/joyshmitz/ultrasearch/internal/logging"
	"github.com/joyshmitz/ultrasearch/internal/model"
	"github.com/joyshmitz/ultrasearch/internal/ultraerr"
)

var log = logging.For("mft-enumerator")

// rawRecord is what the platform-specific reader hands back for one MFT
// entry, before path resolution and FileMeta construction.
type rawRecord struct {
	frn       uint64
	parentFRN uint64
	isDir     bool
	size      uint64
	created   int64
	modified  int64
}

// reader yields raw MFT records for a volume. Implemented per-platform.
// A non-nil error from next ends the sequence, whatever its cause
// (NotSupported, AccessDenied, or an I/O error reading the next chunk).
type reader interface {
	// next returns the next record, or ok=false when the sequence is
	// exhausted. err is set only for a fatal, sequence-ending condition.
	next() (rec rawRecord, ok bool, err error)
	// resolvePath returns the best-effort full path for frn given what the
	// reader has observed so far this pass.
	resolvePath(frn uint64) (string, error)
	close()
}

type openReader func(volume model.VolumeInfo) (reader, error)

var open openReader = osOpenReader

// Enumerator produces a lazy sequence of FileMeta for one volume. Callers
// drive pacing by calling Next in a loop (spec §4.2 "pull-based").
type Enumerator struct {
	volume model.VolumeInfo
	r      reader
}

// Open begins MFT enumeration for volume. Returns ultraerr.ErrNotSupported
// if the platform isn't NTFS-capable, ultraerr.ErrAccessDenied if the
// volume couldn't be opened with sufficient privilege.
func Open(volume model.VolumeInfo) (*Enumerator, error) {
	if len(volume.DriveLetters) == 0 {
		return nil, ultraerr.Wrap(ultraerr.ErrNotSupported, "volume has no drive letter to open")
	}
	r, err := open(volume)
	if err != nil {
		return nil, err
	}
	return &Enumerator{volume: volume, r: r}, nil
}

// Close releases the underlying volume handle.
func (e *Enumerator) Close() {
	e.r.close()
}

// Next returns the next FileMeta, or ok=false when the volume has been
// fully enumerated. Any error from the reader, transient I/O errors
// included, stops the sequence and is returned; it is not skipped or
// retried. A record whose path cannot be resolved is logged at Debug and
// skipped, and the sequence continues with the following record.
func (e *Enumerator) Next() (meta model.FileMeta, ok bool, err error) {
	for {
		rec, ok, rerr := e.r.next()
		if rerr != nil {
			return model.FileMeta{}, false, rerr
		}
		if !ok {
			return model.FileMeta{}, false, nil
		}

		key := docid.FromParts(e.volume.ID, rec.frn)
		parent := docid.FromParts(e.volume.ID, rec.parentFRN)

		path, perr := e.r.resolvePath(rec.frn)
		if perr != nil {
			log.WithError(perr).WithField("frn", rec.frn).Debug("path resolution failed; skipping record")
			continue
		}

		name := filepath.Base(path)
		ext := strings.TrimPrefix(filepath.Ext(name), ".")

		var flags model.FileFlags
		if rec.isDir {
			flags |= model.FlagIsDir
		}

		return model.FileMeta{
			Key:      key,
			Volume:   e.volume.ID,
			Parent:   &parent,
			Name:     name,
			Ext:      ext,
			Path:     path,
			Size:     rec.size,
			Created:  rec.created,
			Modified: rec.modified,
			Flags:    flags,
		}, true, nil
	}
}
