// Package ultraerr collects the sentinel error taxonomy from spec §7, so
// callers up and down the stack can dispatch on error identity
// (errors.Is) after unwrapping github.com/pkg/errors wrapping.
package ultraerr

import "github.com/pkg/errors"

var (
	// ErrNotSupported signals a fatal, non-retried precondition failure:
	// the platform or volume does not support NTFS/USN at all.
	ErrNotSupported = errors.New("ultrasearch: operation not supported on this platform")

	// ErrAccessDenied signals insufficient privilege to read the MFT or
	// journal of a volume; fatal for that volume, operator-visible.
	ErrAccessDenied = errors.New("ultrasearch: access denied")

	// ErrGapDetected signals a USN cursor that can no longer be resumed
	// from; the caller must rescan the volume.
	ErrGapDetected = errors.New("ultrasearch: usn journal gap detected")

	// ErrExtractUnsupported signals no extractor backend claimed the
	// file; final, not retried.
	ErrExtractUnsupported = errors.New("ultrasearch: no extractor backend supports this file")

	// ErrExtractFailed signals a backend-level extraction failure that
	// may be retried once with the next backend.
	ErrExtractFailed = errors.New("ultrasearch: content extraction failed")

	// ErrWorkerTimeout signals a worker process exceeded its deadline.
	ErrWorkerTimeout = errors.New("ultrasearch: worker process timed out")

	// ErrWorkerCrash signals a worker process exited non-zero or was
	// killed by a signal.
	ErrWorkerCrash = errors.New("ultrasearch: worker process crashed")

	// ErrIPCFrame signals a malformed or oversize IPC frame; the
	// connection is reset, the error never propagates past the server.
	ErrIPCFrame = errors.New("ultrasearch: malformed ipc frame")

	// ErrQueryTimeout signals a search that did not complete before its
	// deadline; callers still get whatever hits were ready.
	ErrQueryTimeout = errors.New("ultrasearch: query timed out")

	// ErrIndexCommitError signals a failed text-index commit for the
	// current tick; the batch is discarded, not re-enqueued.
	ErrIndexCommitError = errors.New("ultrasearch: index commit failed")

	// ErrDiscoveryFailed signals a transient volume-enumeration failure.
	ErrDiscoveryFailed = errors.New("ultrasearch: volume discovery failed")
)

// Wrap annotates err with a message while preserving errors.Is/As against
// the sentinels above, mirroring how the teacher's backends wrap low-level
// I/O errors before returning them up through fs.Fs methods.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}

// Wrapf is Wrap with formatting.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}
