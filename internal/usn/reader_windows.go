//go:build windows

package usn

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/joyshmitz/ultrasearch/internal/model"
	"github.com/joyshmitz/ultrasearch/internal/ultraerr"
)

const (
	fsctlQueryUsnJournal = 0x000900f4
	fsctlReadUsnJournal  = 0x000900bb
	usnReadChunkSize     = 1 << 16
)

// usnJournalData mirrors USN_JOURNAL_DATA_V0.
type usnJournalData struct {
	UsnJournalID    uint64
	FirstUsn        int64
	NextUsn         int64
	LowestValidUsn  int64
	MaxUsn          int64
	MaximumSize     uint64
	AllocationDelta uint64
}

// readUsnJournalData mirrors READ_USN_JOURNAL_DATA_V0.
type readUsnJournalData struct {
	StartUsn          int64
	ReasonMask        uint32
	ReturnOnlyOnClose uint32
	Timeout           uint64
	BytesToWaitFor    uint64
	UsnJournalID      uint64
}

const allReasons = 0xFFFFFFFF

type windowsJournalReader struct {
	handle windows.Handle
	buf    []byte
}

func osOpenJournal(volume model.VolumeInfo) (journalReader, error) {
	if len(volume.DriveLetters) == 0 {
		return nil, ultraerr.Wrap(ultraerr.ErrNotSupported, "volume has no drive letter")
	}
	root := fmt.Sprintf(`\\.\%c:`, volume.DriveLetters[0])
	rootPtr, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return nil, ultraerr.Wrap(err, "encode volume root")
	}

	h, err := windows.CreateFile(
		rootPtr,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS,
		0,
	)
	if err != nil {
		if err == windows.ERROR_ACCESS_DENIED {
			return nil, ultraerr.Wrap(ultraerr.ErrAccessDenied, root)
		}
		return nil, ultraerr.Wrapf(err, "open volume %s", root)
	}

	return &windowsJournalReader{handle: h, buf: make([]byte, usnReadChunkSize)}, nil
}

func (r *windowsJournalReader) close() { _ = windows.CloseHandle(r.handle) }

func (r *windowsJournalReader) queryJournal() (journalHead, error) {
	var data usnJournalData
	var bytesReturned uint32
	err := windows.DeviceIoControl(
		r.handle,
		fsctlQueryUsnJournal,
		nil, 0,
		(*byte)(unsafe.Pointer(&data)),
		uint32(unsafe.Sizeof(data)),
		&bytesReturned,
		nil,
	)
	if err != nil {
		return journalHead{}, err
	}
	return journalHead{
		journalID: data.UsnJournalID,
		firstUSN:  uint64(data.FirstUsn),
		nextUSN:   uint64(data.NextUsn),
	}, nil
}

func (r *windowsJournalReader) readRecords(startUSN uint64) ([]RawRecord, error) {
	head, err := r.queryJournal()
	if err != nil {
		return nil, err
	}

	var out []RawRecord
	cursor := startUSN

	for cursor < head.nextUSN {
		req := readUsnJournalData{
			StartUsn:     int64(cursor),
			ReasonMask:   allReasons,
			UsnJournalID: head.journalID,
		}

		var bytesReturned uint32
		err := windows.DeviceIoControl(
			r.handle,
			fsctlReadUsnJournal,
			(*byte)(unsafe.Pointer(&req)),
			uint32(unsafe.Sizeof(req)),
			&r.buf[0],
			uint32(len(r.buf)),
			&bytesReturned,
			nil,
		)
		if err != nil {
			return out, err
		}
		if bytesReturned <= 8 {
			break
		}

		nextStart := binary.LittleEndian.Uint64(r.buf[0:8])
		off := 8
		for off < int(bytesReturned) {
			rec, n, ok := parseUsnJournalRecord(r.buf[off:int(bytesReturned)])
			if !ok {
				break
			}
			out = append(out, rec)
			off += n
		}
		if nextStart <= cursor {
			break
		}
		cursor = nextStart
	}

	return out, nil
}

func parseUsnJournalRecord(buf []byte) (RawRecord, int, bool) {
	if len(buf) < 60 {
		return RawRecord{}, 0, false
	}
	recordLength := binary.LittleEndian.Uint32(buf[0:4])
	if recordLength == 0 || int(recordLength) > len(buf) {
		return RawRecord{}, 0, false
	}

	frn := binary.LittleEndian.Uint64(buf[8:16]) & ((1 << 48) - 1)
	parentFRN := binary.LittleEndian.Uint64(buf[16:24]) & ((1 << 48) - 1)
	usnValue := binary.LittleEndian.Uint64(buf[24:32])
	reason := binary.LittleEndian.Uint32(buf[40:44])
	fileAttributes := binary.LittleEndian.Uint32(buf[52:56])
	fileNameLength := binary.LittleEndian.Uint16(buf[56:58])
	fileNameOffset := binary.LittleEndian.Uint16(buf[58:60])

	name := ""
	start := int(fileNameOffset)
	end := start + int(fileNameLength)
	if start >= 0 && end <= len(buf) && end > start {
		u16 := make([]uint16, fileNameLength/2)
		for i := range u16 {
			u16[i] = binary.LittleEndian.Uint16(buf[start+i*2 : start+i*2+2])
		}
		name = string(utf16.Decode(u16))
	}

	const fileAttrDirectory = 0x10
	rec := RawRecord{
		USN:       usnValue,
		Reason:    reason,
		FRN:       frn,
		ParentFRN: parentFRN,
		Name:      name,
		IsDir:     fileAttributes&fileAttrDirectory != 0,
	}
	return rec, int(recordLength), true
}
