// Package usn implements the USN Tailer (spec §4.3): translating USN
// journal records into FileEvents, with gap detection and same-tick
// coalescing.
package usn

import "github.com/joyshmitz/ultrasearch/internal/model"

// Reason bits, matching the documented USN_REASON_* values. Kept here
// rather than imported from golang.org/x/sys/windows since that package
// doesn't expose the USN reason constants.
const (
	ReasonDataOverwrite     uint32 = 0x00000001
	ReasonDataExtend        uint32 = 0x00000002
	ReasonDataTruncation    uint32 = 0x00000004
	ReasonBasicInfoChange   uint32 = 0x00008000
	ReasonFileCreate        uint32 = 0x00000100
	ReasonFileDelete        uint32 = 0x00000200
	ReasonRenameOldName     uint32 = 0x00001000
	ReasonRenameNewName     uint32 = 0x00002000
	ReasonReparsePointChg   uint32 = 0x00100000
	ReasonObjectIDChange    uint32 = 0x00080000
	ReasonClose             uint32 = 0x80000000
	ReasonFileAttributesChg uint32 = 0x00000400 // BASIC_INFO_CHANGE's sibling in some records
)

// RawRecord is one USN journal record after platform-specific decoding,
// independent of the on-wire USN_RECORD_V2 layout.
type RawRecord struct {
	USN       uint64
	Reason    uint32
	FRN       uint64
	ParentFRN uint64
	Name      string
	IsDir     bool
	Size      uint64
	Modified  int64
}

// eventPriority ranks coalesced event kinds within one batch per spec
// §4.3 "strongest event wins": Deleted > Renamed > Modified >
// AttributesChanged.
func eventPriority(k model.EventKind) int {
	switch k {
	case model.EventDeleted:
		return 4
	case model.EventRenamed:
		return 3
	case model.EventModified:
		return 2
	case model.EventAttributesChanged:
		return 1
	default:
		return 0
	}
}
