package ipc

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/joyshmitz/ultrasearch/internal/ultraerr"
)

// WriteFrame writes a {u32 length, bytes payload} frame (spec §4.12).
func WriteFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return errors.Wrap(err, "ipc: writing frame length")
	}
	if _, err := w.Write(payload); err != nil {
		return errors.Wrap(err, "ipc: writing frame payload")
	}
	return nil
}

// ReadFrame reads one frame, rejecting it with ultraerr.ErrIPCFrame if its
// declared length exceeds maxBytes.
func ReadFrame(r io.Reader, maxBytes uint32) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > maxBytes {
		return nil, errors.Wrapf(ultraerr.ErrIPCFrame, "frame of %d bytes exceeds cap %d", n, maxBytes)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, errors.Wrap(err, "ipc: reading frame payload")
	}
	return payload, nil
}
