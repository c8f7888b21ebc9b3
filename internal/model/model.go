// Package model holds the plain data types shared across the ingestion,
// scheduling, and cache layers — the Go shapes of spec §3's data model.
package model

import (
	"github.com/joyshmitz/ultrasearch/internal/docid"
)

// FileFlags is a bitset of boolean file attributes.
type FileFlags uint32

const (
	// FlagIsDir marks a directory entry.
	FlagIsDir FileFlags = 1 << iota
	// FlagReparsePoint marks a reparse point (symlink/junction/mount).
	FlagReparsePoint
	// FlagHidden marks a hidden file per NTFS attributes.
	FlagHidden
	// FlagSystem marks a system file per NTFS attributes.
	FlagSystem
)

// Has reports whether all bits in mask are set.
func (f FileFlags) Has(mask FileFlags) bool { return f&mask == mask }

// FileMeta is the per-file record carried through ingestion, the metadata
// cache, and into the text index.
type FileMeta struct {
	Key      docid.DocKey
	Volume   uint16
	Parent   *docid.DocKey
	Name     string
	Ext      string // empty when the file has no extension
	Path     string // empty until resolved
	Size     uint64
	Created  int64 // unix seconds
	Modified int64 // unix seconds
	Flags    FileFlags
}

// IsDir reports whether the entry is a directory.
func (m FileMeta) IsDir() bool { return m.Flags.Has(FlagIsDir) }

// EventKind tags the variant carried by a FileEvent. Go has no sum types,
// so FileEvent is a flat struct with only the fields relevant to Kind
// populated — the same shape the original Rust enum collapses to once you
// strip the tag.
type EventKind int

const (
	EventCreated EventKind = iota
	EventDeleted
	EventModified
	EventRenamed
	EventAttributesChanged
)

func (k EventKind) String() string {
	switch k {
	case EventCreated:
		return "created"
	case EventDeleted:
		return "deleted"
	case EventModified:
		return "modified"
	case EventRenamed:
		return "renamed"
	case EventAttributesChanged:
		return "attributes_changed"
	default:
		return "unknown"
	}
}

// FileEvent is a tagged union over the five USN-derived event kinds.
type FileEvent struct {
	Kind EventKind

	// Created carries Meta.
	// Deleted / Modified / AttributesChanged carry Doc.
	// Renamed carries From and To (To.Key is the post-rename DocKey).
	Meta *FileMeta
	Doc  docid.DocKey
	From docid.DocKey
	To   *FileMeta
}

// NewCreated builds a Created event.
func NewCreated(meta FileMeta) FileEvent {
	return FileEvent{Kind: EventCreated, Meta: &meta}
}

// NewDeleted builds a Deleted event.
func NewDeleted(doc docid.DocKey) FileEvent {
	return FileEvent{Kind: EventDeleted, Doc: doc}
}

// NewModified builds a Modified event.
func NewModified(doc docid.DocKey) FileEvent {
	return FileEvent{Kind: EventModified, Doc: doc}
}

// NewRenamed builds a Renamed event.
func NewRenamed(from docid.DocKey, to FileMeta) FileEvent {
	return FileEvent{Kind: EventRenamed, From: from, To: &to}
}

// NewAttributesChanged builds an AttributesChanged event.
func NewAttributesChanged(doc docid.DocKey) FileEvent {
	return FileEvent{Kind: EventAttributesChanged, Doc: doc}
}

// DocKey returns the DocKey the event is about, regardless of kind.
func (e FileEvent) DocKey() docid.DocKey {
	switch e.Kind {
	case EventCreated:
		return e.Meta.Key
	case EventRenamed:
		return e.To.Key
	default:
		return e.Doc
	}
}

// JournalCursor is a volume's resume point into its USN journal.
type JournalCursor struct {
	LastUSN   uint64
	JournalID uint64
}

// VolumeInfo describes one discovered NTFS volume.
type VolumeInfo struct {
	ID           uint16
	GUIDPath     string
	DriveLetters []rune
}

// JobCategory is one of the three scheduler lanes.
type JobCategory int

const (
	JobCritical JobCategory = iota
	JobMetadata
	JobContent
)

func (c JobCategory) String() string {
	switch c {
	case JobCritical:
		return "critical"
	case JobMetadata:
		return "metadata"
	case JobContent:
		return "content"
	default:
		return "unknown"
	}
}

// JobPayloadKind tags a Job's payload.
type JobPayloadKind int

const (
	PayloadMetadataUpdate JobPayloadKind = iota
	PayloadContentIndex
	PayloadDelete
	PayloadRename
)

// Job is a unit of scheduler work.
type Job struct {
	Category JobCategory
	Payload  JobPayloadKind
	EstBytes uint64

	Doc  docid.DocKey // MetadataUpdate, ContentIndex, Delete
	Path string       // ContentIndex
	Size uint64       // ContentIndex

	From docid.DocKey // Rename
	To   docid.DocKey // Rename
}

// IdleState classifies recent user activity.
type IdleState int

const (
	Active IdleState = iota
	WarmIdle
	DeepIdle
)

func (s IdleState) String() string {
	switch s {
	case Active:
		return "active"
	case WarmIdle:
		return "warm_idle"
	case DeepIdle:
		return "deep_idle"
	default:
		return "unknown"
	}
}

// SystemLoad is a rolling snapshot of OS load counters.
type SystemLoad struct {
	CPUPercent       float32
	MemUsedPercent   float32
	DiskBytesPerSec  uint64
	DiskBusy         bool
	SampleDurationMS int64
}

// Budget caps a scheduler tick's selection across all lanes combined.
type Budget struct {
	MaxFiles int
	MaxBytes uint64
}

// Unlimited returns a Budget with no effective limit.
func Unlimited() Budget {
	return Budget{MaxFiles: int(^uint(0) >> 1), MaxBytes: ^uint64(0)}
}
