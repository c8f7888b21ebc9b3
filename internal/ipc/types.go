// Package ipc implements the IPC Server (spec §4.12): a length-prefixed
// binary protocol served over a local named pipe on Windows or a Unix
// domain socket elsewhere, carrying Search and Status requests.
package ipc

import "github.com/google/uuid"

// Mode selects how a search balances name matches against content matches.
type Mode uint8

const (
	ModeAuto Mode = iota
	ModeNameOnly
	ModeContent
	ModeHybrid
)

// Field is a queryable FileMeta attribute.
type Field uint8

const (
	FieldName Field = iota
	FieldPath
	FieldExt
	FieldContent
	FieldSize
	FieldModified
	FieldCreated
	FieldFlags
	FieldVolume
)

// Modifier selects how a Term's value is matched.
type Modifier uint8

const (
	ModifierTerm Modifier = iota
	ModifierPhrase
	ModifierPrefix
	ModifierFuzzy
)

// RangeOp is a comparison operator for a Range query node.
type RangeOp uint8

const (
	RangeGt RangeOp = iota
	RangeGe
	RangeLt
	RangeLe
	RangeBetween
)

// RangeValueKind tags which arm of RangeValue is populated.
type RangeValueKind uint8

const (
	RangeValueI64 RangeValueKind = iota
	RangeValueU64
)

// RangeValue is the typed bound(s) of a Range query node: I64{lo, hi?} for
// timestamps, U64{lo, hi?} for sizes.
type RangeValue struct {
	Kind  RangeValueKind
	LoI64 int64
	HiI64 int64
	LoU64 uint64
	HiU64 uint64
	HasHi bool
}

// QueryKind tags the variant held by a QueryExpr.
type QueryKind uint8

const (
	QueryTerm QueryKind = iota
	QueryRange
	QueryNot
	QueryAnd
	QueryOr
)

// TermQuery is a QueryExpr's Term payload.
type TermQuery struct {
	Field         Field
	HasField      bool
	Value         string
	Modifier      Modifier
	FuzzyDistance uint8 // only meaningful when Modifier == ModifierFuzzy
}

// RangeQuery is a QueryExpr's Range payload.
type RangeQuery struct {
	Field Field
	Op    RangeOp
	Value RangeValue
}

// QueryExpr is the recursive query AST (spec §6): Go has no sum types, so
// only the field matching Kind is populated, the same flattening FileEvent
// uses for the USN event variants.
type QueryExpr struct {
	Kind QueryKind

	Term  *TermQuery   // QueryTerm
	Range *RangeQuery  // QueryRange
	Not   *QueryExpr   // QueryNot
	Nodes []QueryExpr  // QueryAnd / QueryOr
}

// NewTerm builds a Term query node.
func NewTerm(t TermQuery) QueryExpr { return QueryExpr{Kind: QueryTerm, Term: &t} }

// NewRange builds a Range query node.
func NewRange(r RangeQuery) QueryExpr { return QueryExpr{Kind: QueryRange, Range: &r} }

// NewNot builds a Not query node.
func NewNot(inner QueryExpr) QueryExpr { return QueryExpr{Kind: QueryNot, Not: &inner} }

// NewAnd builds an And query node.
func NewAnd(nodes ...QueryExpr) QueryExpr { return QueryExpr{Kind: QueryAnd, Nodes: nodes} }

// NewOr builds an Or query node.
func NewOr(nodes ...QueryExpr) QueryExpr { return QueryExpr{Kind: QueryOr, Nodes: nodes} }

// SearchRequest is the wire shape of a search call.
type SearchRequest struct {
	ID        uuid.UUID
	Query     QueryExpr
	Limit     uint32
	Offset    uint32
	Mode      Mode
	TimeoutMS uint64
	HasTimeout bool
}

// SearchHit is one ranked result.
type SearchHit struct {
	Key      uint64 // docid.DocKey
	Score    float32
	Name     string
	HasName  bool
	Path     string
	HasPath  bool
	Ext      string
	HasExt   bool
	Size     uint64
	HasSize  bool
	Modified int64
	HasModified bool
	Snippet  string
	HasSnippet bool
}

// SearchResponse is the wire shape of a search reply.
type SearchResponse struct {
	ID        uuid.UUID
	Hits      []SearchHit
	Total     uint64
	Truncated bool
	TookMS    uint64
	ServedBy  string
	HasServedBy bool
}

// StatusRequest is the wire shape of a status call.
type StatusRequest struct {
	ID uuid.UUID
}

// VolumeStatus is one volume's entry in a StatusResponse.
type VolumeStatus struct {
	Volume       uint16
	IndexedFiles uint64
	PendingFiles uint64
	LastUSN      uint64
	HasLastUSN   bool
	JournalID    uint64
	HasJournalID bool
}

// MetricsSnapshot is the optional metrics block of a StatusResponse.
type MetricsSnapshot struct {
	SearchLatencyMsP50 float32
	HasP50             bool
	SearchLatencyMsP95 float32
	HasP95             bool
	WorkerCPUPct       float32
	HasWorkerCPUPct    bool
	WorkerMemBytes     uint64
	HasWorkerMemBytes  bool
	QueueDepth         uint32
	HasQueueDepth      bool
	ActiveWorkers      uint32
	HasActiveWorkers   bool
	ContentEnqueued    uint64
	HasContentEnqueued bool
	ContentDropped     uint64
	HasContentDropped  bool
}

// StatusResponse is the wire shape of a status reply.
type StatusResponse struct {
	ID                 uuid.UUID
	Volumes            []VolumeStatus
	LastIndexCommitTS  int64
	HasLastIndexCommitTS bool
	SchedulerState     string
	Metrics            MetricsSnapshot
	HasMetrics         bool
	ServedBy           string
	HasServedBy        bool
}
