//go:build windows

package mft

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/joyshmitz/ultrasearch/internal/model"
	"github.com/joyshmitz/ultrasearch/internal/ultraerr"
)

const (
	fsctlEnumUSNData  = 0x000900b3
	mftChunkSize      = 1 << 20 // 1 MiB read buffer, matches original_source ReaderConfig default
	maxResolveDepth   = 512     // mirrors metacache's self-loop guard; a real NTFS tree never nests this deep
	fileAttrDirectory = 0x10
)

// mftEnumData mirrors MFT_ENUM_DATA_V0.
type mftEnumData struct {
	StartFileReferenceNumber uint64
	LowUsn                   int64
	HighUsn                  int64
}

// nameEntry is everything the path resolver needs for one FRN, harvested
// from each USN_RECORD_V2 as it streams past.
type nameEntry struct {
	name      string
	parentFRN uint64
}

type windowsReader struct {
	handle     windows.Handle
	nextFRN    uint64
	buf        []byte
	bufOff     int
	bufLen     int
	exhausted  bool
	volumeRoot string
	driveLabel string
	names      map[uint64]nameEntry
}

func osOpenReader(volume model.VolumeInfo) (reader, error) {
	letter := volume.DriveLetters[0]
	root := fmt.Sprintf(`\\.\%c:`, letter)
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

	return &windowsReader{
		handle:     h,
		volumeRoot: root,
		driveLabel: fmt.Sprintf(`%c:`, letter),
		buf:        make([]byte, mftChunkSize),
		names:      make(map[uint64]nameEntry),
	}, nil
}

func (r *windowsReader) close() {
	_ = windows.CloseHandle(r.handle)
}

func (r *windowsReader) next() (rawRecord, bool, error) {
	for {
		if r.bufOff < r.bufLen {
			rec, entry, frn, n, ok := parseUsnRecord(r.buf[r.bufOff:r.bufLen])
			if ok {
				r.bufOff += n
				r.names[frn] = entry
				return rec, true, nil
			}
			r.bufOff = r.bufLen
		}
		if r.exhausted {
			return rawRecord{}, false, nil
		}
		if err := r.fetchChunk(); err != nil {
			return rawRecord{}, false, ultraerr.Wrapf(err, "FSCTL_ENUM_USN_DATA on %s", r.volumeRoot)
		}
	}
}

func (r *windowsReader) fetchChunk() error {
	req := mftEnumData{StartFileReferenceNumber: r.nextFRN, LowUsn: 0, HighUsn: int64(^uint64(0) >> 1)}

	var bytesReturned uint32
	err := windows.DeviceIoControl(
		r.handle,
		fsctlEnumUSNData,
		(*byte)(unsafe.Pointer(&req)),
		uint32(unsafe.Sizeof(req)),
		&r.buf[0],
		uint32(len(r.buf)),
		&bytesReturned,
		nil,
	)
	if err != nil {
		if err == windows.ERROR_HANDLE_EOF {
			r.exhausted = true
			r.bufLen = 0
			return nil
		}
		return err
	}
	if bytesReturned <= 8 {
		r.exhausted = true
		r.bufLen = 0
		return nil
	}

	r.nextFRN = binary.LittleEndian.Uint64(r.buf[0:8])
	r.bufOff = 8
	r.bufLen = int(bytesReturned)
	return nil
}

// parseUsnRecord reads one USN_RECORD_V2 from buf, returning the bytes
// consumed. Field offsets follow the documented USN_RECORD_V2 layout.
func parseUsnRecord(buf []byte) (rawRecord, nameEntry, uint64, int, bool) {
	if len(buf) < 60 {
		return rawRecord{}, nameEntry{}, 0, 0, false
	}
	recordLength := binary.LittleEndian.Uint32(buf[0:4])
	if recordLength == 0 || int(recordLength) > len(buf) {
		return rawRecord{}, nameEntry{}, 0, 0, false
	}

	frn := binary.LittleEndian.Uint64(buf[8:16]) & ((1 << 48) - 1)
	parentFRN := binary.LittleEndian.Uint64(buf[16:24]) & ((1 << 48) - 1)
	fileSize := binary.LittleEndian.Uint64(buf[40:48])
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

	rec := rawRecord{
		frn:       frn,
		parentFRN: parentFRN,
		isDir:     fileAttributes&fileAttrDirectory != 0,
		size:      fileSize,
	}
	entry := nameEntry{name: name, parentFRN: parentFRN}
	return rec, entry, frn, int(recordLength), true
}

// resolvePath walks the parent chain assembled from records already seen
// this enumeration pass. A parent not yet observed (possible since
// FSCTL_ENUM_USN_DATA doesn't guarantee parent-before-child ordering)
// truncates the path at that point rather than blocking on a second pass;
// the Metadata Cache's own resolver fills in the rest once the USN Tailer
// catches the remaining records.
func (r *windowsReader) resolvePath(frn uint64) (string, error) {
	var parts []string
	cur := frn
	for depth := 0; depth < maxResolveDepth; depth++ {
		entry, ok := r.names[cur]
		if !ok {
			break
		}
		parts = append(parts, entry.name)
		if entry.parentFRN == cur {
			break
		}
		cur = entry.parentFRN
	}
	if len(parts) == 0 {
		return "", nil
	}

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return r.driveLabel + `\` + strings.Join(parts, `\`), nil
}
