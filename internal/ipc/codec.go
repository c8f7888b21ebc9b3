package ipc

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/joyshmitz/ultrasearch/internal/ultraerr"
)

// MessageKind tags the payload that follows inside a frame, since the wire
// protocol multiplexes four message types over one connection.
type MessageKind uint8

const (
	MsgSearchRequest MessageKind = iota
	MsgSearchResponse
	MsgStatusRequest
	MsgStatusResponse
)

// encoder writes the fixed-width little-endian, length-prefixed encoding
// spec §6 specifies. Every Write* is infallible (bytes.Buffer never
// returns an error), so callers don't need to check after each field.
type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) u8(v uint8)   { e.buf.WriteByte(v) }
func (e *encoder) boolean(v bool) {
	if v {
		e.buf.WriteByte(1)
	} else {
		e.buf.WriteByte(0)
	}
}
func (e *encoder) u16(v uint16) { var b [2]byte; binary.LittleEndian.PutUint16(b[:], v); e.buf.Write(b[:]) }
func (e *encoder) u32(v uint32) { var b [4]byte; binary.LittleEndian.PutUint32(b[:], v); e.buf.Write(b[:]) }
func (e *encoder) u64(v uint64) { var b [8]byte; binary.LittleEndian.PutUint64(b[:], v); e.buf.Write(b[:]) }
func (e *encoder) i64(v int64)  { e.u64(uint64(v)) }
func (e *encoder) f32(v float32) { e.u32(math.Float32bits(v)) }
func (e *encoder) str(v string) {
	e.u32(uint32(len(v)))
	e.buf.WriteString(v)
}
func (e *encoder) uuidVal(v uuid.UUID) { e.buf.Write(v[:]) }
func (e *encoder) bytes() []byte       { return e.buf.Bytes() }

// decoder is the inverse of encoder, reading from a fixed byte slice.
// Every method returns ultraerr.ErrIPCFrame (wrapped) on truncation so the
// server can uniformly reset the connection on a malformed frame.
type decoder struct {
	data []byte
	pos  int
}

func newDecoder(data []byte) *decoder { return &decoder{data: data} }

func (d *decoder) need(n int) error {
	if d.pos+n > len(d.data) {
		return errors.Wrap(ultraerr.ErrIPCFrame, "truncated field")
	}
	return nil
}

func (d *decoder) u8() (uint8, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	v := d.data[d.pos]
	d.pos++
	return v, nil
}

func (d *decoder) boolean() (bool, error) {
	v, err := d.u8()
	return v != 0, err
}

func (d *decoder) u16() (uint16, error) {
	if err := d.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(d.data[d.pos:])
	d.pos += 2
	return v, nil
}

func (d *decoder) u32() (uint32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(d.data[d.pos:])
	d.pos += 4
	return v, nil
}

func (d *decoder) u64() (uint64, error) {
	if err := d.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(d.data[d.pos:])
	d.pos += 8
	return v, nil
}

func (d *decoder) i64() (int64, error) {
	v, err := d.u64()
	return int64(v), err
}

func (d *decoder) f32() (float32, error) {
	v, err := d.u32()
	return math.Float32frombits(v), err
}

func (d *decoder) str() (string, error) {
	n, err := d.u32()
	if err != nil {
		return "", err
	}
	if err := d.need(int(n)); err != nil {
		return "", err
	}
	s := string(d.data[d.pos : d.pos+int(n)])
	d.pos += int(n)
	return s, nil
}

func (d *decoder) uuidVal() (uuid.UUID, error) {
	if err := d.need(16); err != nil {
		return uuid.UUID{}, err
	}
	var u uuid.UUID
	copy(u[:], d.data[d.pos:d.pos+16])
	d.pos += 16
	return u, nil
}

// --- QueryExpr ---

func (e *encoder) queryExpr(q QueryExpr) {
	e.u8(uint8(q.Kind))
	switch q.Kind {
	case QueryTerm:
		e.termQuery(*q.Term)
	case QueryRange:
		e.rangeQuery(*q.Range)
	case QueryNot:
		e.queryExpr(*q.Not)
	case QueryAnd, QueryOr:
		e.u32(uint32(len(q.Nodes)))
		for _, n := range q.Nodes {
			e.queryExpr(n)
		}
	}
}

func (d *decoder) queryExpr() (QueryExpr, error) {
	kind, err := d.u8()
	if err != nil {
		return QueryExpr{}, err
	}
	switch QueryKind(kind) {
	case QueryTerm:
		t, err := d.termQuery()
		if err != nil {
			return QueryExpr{}, err
		}
		return NewTerm(t), nil
	case QueryRange:
		r, err := d.rangeQuery()
		if err != nil {
			return QueryExpr{}, err
		}
		return NewRange(r), nil
	case QueryNot:
		inner, err := d.queryExpr()
		if err != nil {
			return QueryExpr{}, err
		}
		return NewNot(inner), nil
	case QueryAnd, QueryOr:
		n, err := d.u32()
		if err != nil {
			return QueryExpr{}, err
		}
		nodes := make([]QueryExpr, 0, n)
		for i := uint32(0); i < n; i++ {
			child, err := d.queryExpr()
			if err != nil {
				return QueryExpr{}, err
			}
			nodes = append(nodes, child)
		}
		if QueryKind(kind) == QueryAnd {
			return NewAnd(nodes...), nil
		}
		return NewOr(nodes...), nil
	default:
		return QueryExpr{}, errors.Wrapf(ultraerr.ErrIPCFrame, "unknown query kind %d", kind)
	}
}

func (e *encoder) termQuery(t TermQuery) {
	e.boolean(t.HasField)
	e.u8(uint8(t.Field))
	e.str(t.Value)
	e.u8(uint8(t.Modifier))
	e.u8(t.FuzzyDistance)
}

func (d *decoder) termQuery() (TermQuery, error) {
	var t TermQuery
	var err error
	if t.HasField, err = d.boolean(); err != nil {
		return t, err
	}
	field, err := d.u8()
	if err != nil {
		return t, err
	}
	t.Field = Field(field)
	if t.Value, err = d.str(); err != nil {
		return t, err
	}
	mod, err := d.u8()
	if err != nil {
		return t, err
	}
	t.Modifier = Modifier(mod)
	if t.FuzzyDistance, err = d.u8(); err != nil {
		return t, err
	}
	return t, nil
}

func (e *encoder) rangeQuery(r RangeQuery) {
	e.u8(uint8(r.Field))
	e.u8(uint8(r.Op))
	e.u8(uint8(r.Value.Kind))
	switch r.Value.Kind {
	case RangeValueI64:
		e.i64(r.Value.LoI64)
		e.boolean(r.Value.HasHi)
		e.i64(r.Value.HiI64)
	case RangeValueU64:
		e.u64(r.Value.LoU64)
		e.boolean(r.Value.HasHi)
		e.u64(r.Value.HiU64)
	}
}

func (d *decoder) rangeQuery() (RangeQuery, error) {
	var r RangeQuery
	field, err := d.u8()
	if err != nil {
		return r, err
	}
	r.Field = Field(field)
	op, err := d.u8()
	if err != nil {
		return r, err
	}
	r.Op = RangeOp(op)
	kind, err := d.u8()
	if err != nil {
		return r, err
	}
	r.Value.Kind = RangeValueKind(kind)
	switch r.Value.Kind {
	case RangeValueI64:
		if r.Value.LoI64, err = d.i64(); err != nil {
			return r, err
		}
		if r.Value.HasHi, err = d.boolean(); err != nil {
			return r, err
		}
		if r.Value.HiI64, err = d.i64(); err != nil {
			return r, err
		}
	case RangeValueU64:
		if r.Value.LoU64, err = d.u64(); err != nil {
			return r, err
		}
		if r.Value.HasHi, err = d.boolean(); err != nil {
			return r, err
		}
		if r.Value.HiU64, err = d.u64(); err != nil {
			return r, err
		}
	default:
		return r, errors.Wrapf(ultraerr.ErrIPCFrame, "unknown range value kind %d", kind)
	}
	return r, nil
}

// --- top-level messages ---

// EncodeSearchRequest serializes req, tagged so DecodeMessage can dispatch.
func EncodeSearchRequest(req SearchRequest) []byte {
	e := &encoder{}
	e.u8(uint8(MsgSearchRequest))
	e.uuidVal(req.ID)
	e.queryExpr(req.Query)
	e.u32(req.Limit)
	e.u32(req.Offset)
	e.u8(uint8(req.Mode))
	e.boolean(req.HasTimeout)
	e.u64(req.TimeoutMS)
	return e.bytes()
}

func decodeSearchRequest(d *decoder) (SearchRequest, error) {
	var r SearchRequest
	var err error
	if r.ID, err = d.uuidVal(); err != nil {
		return r, err
	}
	if r.Query, err = d.queryExpr(); err != nil {
		return r, err
	}
	if r.Limit, err = d.u32(); err != nil {
		return r, err
	}
	if r.Offset, err = d.u32(); err != nil {
		return r, err
	}
	mode, err := d.u8()
	if err != nil {
		return r, err
	}
	r.Mode = Mode(mode)
	if r.HasTimeout, err = d.boolean(); err != nil {
		return r, err
	}
	if r.TimeoutMS, err = d.u64(); err != nil {
		return r, err
	}
	return r, nil
}

// EncodeSearchResponse serializes resp.
func EncodeSearchResponse(resp SearchResponse) []byte {
	e := &encoder{}
	e.u8(uint8(MsgSearchResponse))
	e.uuidVal(resp.ID)
	e.u32(uint32(len(resp.Hits)))
	for _, h := range resp.Hits {
		e.searchHit(h)
	}
	e.u64(resp.Total)
	e.boolean(resp.Truncated)
	e.u64(resp.TookMS)
	e.boolean(resp.HasServedBy)
	e.str(resp.ServedBy)
	return e.bytes()
}

func (e *encoder) searchHit(h SearchHit) {
	e.u64(h.Key)
	e.f32(h.Score)
	e.boolean(h.HasName)
	e.str(h.Name)
	e.boolean(h.HasPath)
	e.str(h.Path)
	e.boolean(h.HasExt)
	e.str(h.Ext)
	e.boolean(h.HasSize)
	e.u64(h.Size)
	e.boolean(h.HasModified)
	e.i64(h.Modified)
	e.boolean(h.HasSnippet)
	e.str(h.Snippet)
}

func (d *decoder) searchHit() (SearchHit, error) {
	var h SearchHit
	var err error
	if h.Key, err = d.u64(); err != nil {
		return h, err
	}
	if h.Score, err = d.f32(); err != nil {
		return h, err
	}
	if h.HasName, err = d.boolean(); err != nil {
		return h, err
	}
	if h.Name, err = d.str(); err != nil {
		return h, err
	}
	if h.HasPath, err = d.boolean(); err != nil {
		return h, err
	}
	if h.Path, err = d.str(); err != nil {
		return h, err
	}
	if h.HasExt, err = d.boolean(); err != nil {
		return h, err
	}
	if h.Ext, err = d.str(); err != nil {
		return h, err
	}
	if h.HasSize, err = d.boolean(); err != nil {
		return h, err
	}
	if h.Size, err = d.u64(); err != nil {
		return h, err
	}
	if h.HasModified, err = d.boolean(); err != nil {
		return h, err
	}
	if h.Modified, err = d.i64(); err != nil {
		return h, err
	}
	if h.HasSnippet, err = d.boolean(); err != nil {
		return h, err
	}
	if h.Snippet, err = d.str(); err != nil {
		return h, err
	}
	return h, nil
}

func decodeSearchResponse(d *decoder) (SearchResponse, error) {
	var r SearchResponse
	var err error
	if r.ID, err = d.uuidVal(); err != nil {
		return r, err
	}
	n, err := d.u32()
	if err != nil {
		return r, err
	}
	r.Hits = make([]SearchHit, 0, n)
	for i := uint32(0); i < n; i++ {
		h, err := d.searchHit()
		if err != nil {
			return r, err
		}
		r.Hits = append(r.Hits, h)
	}
	if r.Total, err = d.u64(); err != nil {
		return r, err
	}
	if r.Truncated, err = d.boolean(); err != nil {
		return r, err
	}
	if r.TookMS, err = d.u64(); err != nil {
		return r, err
	}
	if r.HasServedBy, err = d.boolean(); err != nil {
		return r, err
	}
	if r.ServedBy, err = d.str(); err != nil {
		return r, err
	}
	return r, nil
}

// EncodeStatusRequest serializes req.
func EncodeStatusRequest(req StatusRequest) []byte {
	e := &encoder{}
	e.u8(uint8(MsgStatusRequest))
	e.uuidVal(req.ID)
	return e.bytes()
}

func decodeStatusRequest(d *decoder) (StatusRequest, error) {
	var r StatusRequest
	var err error
	r.ID, err = d.uuidVal()
	return r, err
}

// EncodeStatusResponse serializes resp.
func EncodeStatusResponse(resp StatusResponse) []byte {
	e := &encoder{}
	e.u8(uint8(MsgStatusResponse))
	e.uuidVal(resp.ID)
	e.u32(uint32(len(resp.Volumes)))
	for _, v := range resp.Volumes {
		e.volumeStatus(v)
	}
	e.boolean(resp.HasLastIndexCommitTS)
	e.i64(resp.LastIndexCommitTS)
	e.str(resp.SchedulerState)
	e.boolean(resp.HasMetrics)
	e.metricsSnapshot(resp.Metrics)
	e.boolean(resp.HasServedBy)
	e.str(resp.ServedBy)
	return e.bytes()
}

func (e *encoder) volumeStatus(v VolumeStatus) {
	e.u16(v.Volume)
	e.u64(v.IndexedFiles)
	e.u64(v.PendingFiles)
	e.boolean(v.HasLastUSN)
	e.u64(v.LastUSN)
	e.boolean(v.HasJournalID)
	e.u64(v.JournalID)
}

func (d *decoder) volumeStatus() (VolumeStatus, error) {
	var v VolumeStatus
	var err error
	if v.Volume, err = d.u16(); err != nil {
		return v, err
	}
	if v.IndexedFiles, err = d.u64(); err != nil {
		return v, err
	}
	if v.PendingFiles, err = d.u64(); err != nil {
		return v, err
	}
	if v.HasLastUSN, err = d.boolean(); err != nil {
		return v, err
	}
	if v.LastUSN, err = d.u64(); err != nil {
		return v, err
	}
	if v.HasJournalID, err = d.boolean(); err != nil {
		return v, err
	}
	if v.JournalID, err = d.u64(); err != nil {
		return v, err
	}
	return v, nil
}

func (e *encoder) metricsSnapshot(m MetricsSnapshot) {
	e.boolean(m.HasP50)
	e.f32(m.SearchLatencyMsP50)
	e.boolean(m.HasP95)
	e.f32(m.SearchLatencyMsP95)
	e.boolean(m.HasWorkerCPUPct)
	e.f32(m.WorkerCPUPct)
	e.boolean(m.HasWorkerMemBytes)
	e.u64(m.WorkerMemBytes)
	e.boolean(m.HasQueueDepth)
	e.u32(m.QueueDepth)
	e.boolean(m.HasActiveWorkers)
	e.u32(m.ActiveWorkers)
	e.boolean(m.HasContentEnqueued)
	e.u64(m.ContentEnqueued)
	e.boolean(m.HasContentDropped)
	e.u64(m.ContentDropped)
}

func (d *decoder) metricsSnapshot() (MetricsSnapshot, error) {
	var m MetricsSnapshot
	var err error
	if m.HasP50, err = d.boolean(); err != nil {
		return m, err
	}
	if m.SearchLatencyMsP50, err = d.f32(); err != nil {
		return m, err
	}
	if m.HasP95, err = d.boolean(); err != nil {
		return m, err
	}
	if m.SearchLatencyMsP95, err = d.f32(); err != nil {
		return m, err
	}
	if m.HasWorkerCPUPct, err = d.boolean(); err != nil {
		return m, err
	}
	if m.WorkerCPUPct, err = d.f32(); err != nil {
		return m, err
	}
	if m.HasWorkerMemBytes, err = d.boolean(); err != nil {
		return m, err
	}
	if m.WorkerMemBytes, err = d.u64(); err != nil {
		return m, err
	}
	if m.HasQueueDepth, err = d.boolean(); err != nil {
		return m, err
	}
	if m.QueueDepth, err = d.u32(); err != nil {
		return m, err
	}
	if m.HasActiveWorkers, err = d.boolean(); err != nil {
		return m, err
	}
	if m.ActiveWorkers, err = d.u32(); err != nil {
		return m, err
	}
	if m.HasContentEnqueued, err = d.boolean(); err != nil {
		return m, err
	}
	if m.ContentEnqueued, err = d.u64(); err != nil {
		return m, err
	}
	if m.HasContentDropped, err = d.boolean(); err != nil {
		return m, err
	}
	if m.ContentDropped, err = d.u64(); err != nil {
		return m, err
	}
	return m, nil
}

func decodeStatusResponse(d *decoder) (StatusResponse, error) {
	var r StatusResponse
	var err error
	if r.ID, err = d.uuidVal(); err != nil {
		return r, err
	}
	n, err := d.u32()
	if err != nil {
		return r, err
	}
	r.Volumes = make([]VolumeStatus, 0, n)
	for i := uint32(0); i < n; i++ {
		v, err := d.volumeStatus()
		if err != nil {
			return r, err
		}
		r.Volumes = append(r.Volumes, v)
	}
	if r.HasLastIndexCommitTS, err = d.boolean(); err != nil {
		return r, err
	}
	if r.LastIndexCommitTS, err = d.i64(); err != nil {
		return r, err
	}
	if r.SchedulerState, err = d.str(); err != nil {
		return r, err
	}
	if r.HasMetrics, err = d.boolean(); err != nil {
		return r, err
	}
	if r.Metrics, err = d.metricsSnapshot(); err != nil {
		return r, err
	}
	if r.HasServedBy, err = d.boolean(); err != nil {
		return r, err
	}
	if r.ServedBy, err = d.str(); err != nil {
		return r, err
	}
	return r, nil
}

// Message is the decoded result of DecodeMessage: exactly one of the four
// fields matching Kind is populated.
type Message struct {
	Kind           MessageKind
	SearchRequest  *SearchRequest
	SearchResponse *SearchResponse
	StatusRequest  *StatusRequest
	StatusResponse *StatusResponse
}

// DecodeMessage reads the kind tag and dispatches to the matching decoder.
func DecodeMessage(frame []byte) (Message, error) {
	if len(frame) < 1 {
		return Message{}, errors.Wrap(ultraerr.ErrIPCFrame, "empty frame")
	}
	d := newDecoder(frame[1:])
	switch MessageKind(frame[0]) {
	case MsgSearchRequest:
		r, err := decodeSearchRequest(d)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: MsgSearchRequest, SearchRequest: &r}, nil
	case MsgSearchResponse:
		r, err := decodeSearchResponse(d)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: MsgSearchResponse, SearchResponse: &r}, nil
	case MsgStatusRequest:
		r, err := decodeStatusRequest(d)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: MsgStatusRequest, StatusRequest: &r}, nil
	case MsgStatusResponse:
		r, err := decodeStatusResponse(d)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: MsgStatusResponse, StatusResponse: &r}, nil
	default:
		return Message{}, errors.Wrapf(ultraerr.ErrIPCFrame, "unknown message kind %d", frame[0])
	}
}
