// Package status implements the Status Provider (spec §9): an explicit
// handle, not a process-level global, that the IPC server's Status
// handler reads a consistent snapshot from. Writers call the small Set*
// and Record* methods (in ultrasearchd: once per volume after its MFT
// seed, and from the scheduler tick loop after each tick); Snapshot
// clones the whole record under a read lock so callers never observe a
// torn update.
package status

import (
	"sync"

	"github.com/joyshmitz/ultrasearch/internal/ipc"
)

type volumeState struct {
	volume       uint16
	indexedFiles uint64
	pendingFiles uint64
	lastUSN      uint64
	hasLastUSN   bool
	journalID    uint64
	hasJournalID bool
}

// Provider aggregates the fields a StatusResponse needs. Zero value is
// ready to use.
type Provider struct {
	mu sync.RWMutex

	volumes map[uint16]*volumeState

	lastIndexCommitTS    int64
	hasLastIndexCommitTS bool

	schedulerState string

	metrics    ipc.MetricsSnapshot
	hasMetrics bool

	servedBy    string
	hasServedBy bool
}

// New builds an empty Provider.
func New() *Provider {
	return &Provider{volumes: make(map[uint16]*volumeState)}
}

// SetServedBy records the host/instance identifier echoed back in every
// StatusResponse (spec §6's optional served_by field).
func (p *Provider) SetServedBy(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.servedBy = name
	p.hasServedBy = name != ""
}

// SetSchedulerState records the scheduler's current human-readable state
// (ultrasearchd passes the idle state: "active", "warm_idle", "deep_idle").
func (p *Provider) SetSchedulerState(state string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.schedulerState = state
}

// RecordIndexCommit marks that a text-index commit completed at ts (unix
// seconds).
func (p *Provider) RecordIndexCommit(ts int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastIndexCommitTS = ts
	p.hasLastIndexCommitTS = true
}

// RecordMetrics replaces the metrics block surfaced in StatusResponse.
func (p *Provider) RecordMetrics(m ipc.MetricsSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metrics = m
	p.hasMetrics = true
}

func (p *Provider) volumeLocked(volume uint16) *volumeState {
	vs, ok := p.volumes[volume]
	if !ok {
		vs = &volumeState{volume: volume}
		p.volumes[volume] = vs
	}
	return vs
}

// RecordVolumeCursor updates a volume's last-seen USN/journal id. The
// watcher does not call it, so ultrasearchd's status responses carry no
// per-volume cursor.
func (p *Provider) RecordVolumeCursor(volume uint16, journalID, lastUSN uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	vs := p.volumeLocked(volume)
	vs.journalID, vs.hasJournalID = journalID, true
	vs.lastUSN, vs.hasLastUSN = lastUSN, true
}

// RecordVolumeCounts updates a volume's indexed/pending file counts.
// ultrasearchd calls it once per volume, after seeding it from the MFT.
func (p *Provider) RecordVolumeCounts(volume uint16, indexed, pending uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	vs := p.volumeLocked(volume)
	vs.indexedFiles = indexed
	vs.pendingFiles = pending
}

// Snapshot copies the current record into a StatusResponse under a read
// lock, per spec §9's "consistent view of their last complete update; no
// torn reads".
func (p *Provider) Snapshot() ipc.StatusResponse {
	p.mu.RLock()
	defer p.mu.RUnlock()

	resp := ipc.StatusResponse{
		SchedulerState:       p.schedulerState,
		LastIndexCommitTS:    p.lastIndexCommitTS,
		HasLastIndexCommitTS: p.hasLastIndexCommitTS,
		Metrics:              p.metrics,
		HasMetrics:           p.hasMetrics,
		ServedBy:             p.servedBy,
		HasServedBy:          p.hasServedBy,
	}

	resp.Volumes = make([]ipc.VolumeStatus, 0, len(p.volumes))
	for _, vs := range p.volumes {
		resp.Volumes = append(resp.Volumes, ipc.VolumeStatus{
			Volume:       vs.volume,
			IndexedFiles: vs.indexedFiles,
			PendingFiles: vs.pendingFiles,
			LastUSN:      vs.lastUSN,
			HasLastUSN:   vs.hasLastUSN,
			JournalID:    vs.journalID,
			HasJournalID: vs.hasJournalID,
		})
	}
	return resp
}
