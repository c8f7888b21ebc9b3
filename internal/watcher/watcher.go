// Package watcher implements the Change Watcher (spec §4.11): a
// per-volume loop that tails the USN journal, turns events into
// scheduler jobs, rescans on a journal gap, and falls back to polling
// the MFT when USN tailing isn't supported on a volume.
package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/joyshmitz/ultrasearch/internal/config"
	"github.com/joyshmitz/ultrasearch/internal/cursorstore"
	"github.com/joyshmitz/ultrasearch/internal/docid"
	"github.com/joyshmitz/ultrasearch/internal/jobqueue"
	"github.com/joyshmitz/ultrasearch/internal/logging"
	"github.com/joyshmitz/ultrasearch/internal/metacache"
	"github.com/joyshmitz/ultrasearch/internal/mft"
	"github.com/joyshmitz/ultrasearch/internal/model"
	"github.com/joyshmitz/ultrasearch/internal/ultraerr"
	"github.com/joyshmitz/ultrasearch/internal/usn"
)

var log = logging.For("change-watcher")

// tailer is the subset of *usn.Tailer the watcher drives; a seam for tests.
type tailer interface {
	Tail(cursor model.JournalCursor) ([]model.FileEvent, model.JournalCursor, error)
	Close()
}

type openTailer func(volume model.VolumeInfo, resolve usn.MetaResolver) (tailer, error)

var newTailer openTailer = func(volume model.VolumeInfo, resolve usn.MetaResolver) (tailer, error) {
	return usn.Open(volume, resolve)
}

// enumerator is the subset of *mft.Enumerator the watcher drives for
// rescans and the polling fallback; a seam for tests.
type enumerator interface {
	Next() (model.FileMeta, bool, error)
	Close()
}

type openEnumerator func(volume model.VolumeInfo) (enumerator, error)

var newEnumerator openEnumerator = func(volume model.VolumeInfo) (enumerator, error) {
	return mft.Open(volume)
}

// FilterVolumes keeps only volumes whose drive letters appear in
// mountPoints (each like `C:\`); an empty mountPoints means "all NTFS
// volumes", per spec §4.11.
func FilterVolumes(all []model.VolumeInfo, mountPoints []string) []model.VolumeInfo {
	if len(mountPoints) == 0 {
		return all
	}
	wanted := make(map[string]bool, len(mountPoints))
	for _, mp := range mountPoints {
		letter := strings.ToUpper(strings.TrimRight(mp, `\:`))
		wanted[letter] = true
	}
	var out []model.VolumeInfo
	for _, v := range all {
		for _, letter := range v.DriveLetters {
			if wanted[strings.ToUpper(string(letter))] {
				out = append(out, v)
				break
			}
		}
	}
	return out
}

type volumeState struct {
	volume   model.VolumeInfo
	cursor   model.JournalCursor
	tailer   tailer
	polling  bool
	lastPoll time.Time
}

// Watcher drives one goroutine per watched volume.
type Watcher struct {
	cfg     config.WatcherConfig
	persist time.Duration
	queues  *jobqueue.Queues
	cache   *metacache.Cache
	cursors *cursorstore.Store

	mu    sync.Mutex
	state map[uint16]*volumeState
}

// New builds a Watcher. persistInterval bounds how often an advanced
// cursor is written to disk (spec §6 "written at most every N seconds").
func New(cfg config.WatcherConfig, persistInterval time.Duration, queues *jobqueue.Queues, cache *metacache.Cache, cursors *cursorstore.Store) *Watcher {
	return &Watcher{
		cfg:     cfg,
		persist: persistInterval,
		queues:  queues,
		cache:   cache,
		cursors: cursors,
		state:   make(map[uint16]*volumeState),
	}
}

// Run watches volumes until ctx is cancelled, persisting every volume's
// cursor before returning.
func (w *Watcher) Run(ctx context.Context, volumes []model.VolumeInfo) {
	var wg sync.WaitGroup
	for _, v := range volumes {
		vs := w.initVolume(v)
		wg.Add(1)
		go func(vs *volumeState) {
			defer wg.Done()
			w.watchVolume(ctx, vs)
		}(vs)
	}
	wg.Wait()
}

func (w *Watcher) initVolume(volume model.VolumeInfo) *volumeState {
	vs := &volumeState{volume: volume}

	if cursor, ok, err := w.cursors.Load(volume.ID); err != nil {
		log.WithError(err).WithField("volume", volume.ID).Warn("failed to load persisted cursor; starting fresh")
	} else if ok {
		vs.cursor = cursor
	}

	t, err := newTailer(volume, w.resolverFor(volume.ID))
	switch {
	case err == nil:
		vs.tailer = t
	case errors.Is(err, ultraerr.ErrNotSupported):
		log.WithField("volume", volume.ID).Warn("usn journal not supported; falling back to polling")
		vs.polling = true
	default:
		log.WithError(err).WithField("volume", volume.ID).Error("failed to open usn tailer; falling back to polling")
		vs.polling = true
	}

	w.mu.Lock()
	w.state[volume.ID] = vs
	w.mu.Unlock()
	return vs
}

// resolverFor builds the MetaResolver the USN Tailer uses to turn a raw
// record into a FileMeta for Created/Renamed events. The record itself
// already carries name, parent FRN, size and modified time; only the
// full path has to come from the metadata cache, and only once the
// parent has actually been seen there.
func (w *Watcher) resolverFor(volume uint16) usn.MetaResolver {
	return func(rec usn.RawRecord) (model.FileMeta, bool) {
		key := docid.FromParts(volume, rec.FRN)
		parent := docid.FromParts(volume, rec.ParentFRN)

		var flags model.FileFlags
		if rec.IsDir {
			flags |= model.FlagIsDir
		}

		meta := model.FileMeta{
			Key:      key,
			Volume:   volume,
			Parent:   &parent,
			Name:     rec.Name,
			Ext:      strings.TrimPrefix(filepath.Ext(rec.Name), "."),
			Size:     rec.Size,
			Modified: rec.Modified,
			Flags:    flags,
		}

		if parentPath, ok := w.cache.ResolvePath(parent); ok {
			meta.Path = filepath.Join(parentPath, rec.Name)
		} else {
			// Parent not cached yet: this can happen when a create races
			// ahead of its parent directory's own create record. Still
			// usable by name; path reconstruction catches up once the
			// parent appears (spec §9 design notes).
			meta.Path = rec.Name
		}

		return meta, true
	}
}

func (w *Watcher) watchVolume(ctx context.Context, vs *volumeState) {
	ticker := time.NewTicker(w.cfg.TickInterval)
	defer ticker.Stop()

	lastPersist := time.Now()

	for {
		select {
		case <-ctx.Done():
			w.persistCursor(vs)
			if vs.tailer != nil {
				vs.tailer.Close()
			}
			return
		case <-ticker.C:
			if vs.polling {
				w.pollTick(vs)
				continue
			}
			w.tailTick(vs)
			if time.Since(lastPersist) >= w.persist {
				w.persistCursor(vs)
				lastPersist = time.Now()
			}
		}
	}
}

func (w *Watcher) persistCursor(vs *volumeState) {
	if err := w.cursors.Save(vs.volume.ID, vs.cursor); err != nil {
		log.WithError(err).WithField("volume", vs.volume.ID).Error("failed to persist cursor")
	}
}

func (w *Watcher) tailTick(vs *volumeState) {
	events, next, err := vs.tailer.Tail(vs.cursor)
	if err != nil {
		if errors.Is(err, ultraerr.ErrGapDetected) {
			log.WithField("volume", vs.volume.ID).Warn("usn journal gap detected; rescanning volume")
			w.rescan(vs)
			vs.cursor = model.JournalCursor{}
			return
		}
		log.WithError(err).WithField("volume", vs.volume.ID).Warn("usn tail failed; will retry next tick")
		return
	}

	vs.cursor = next
	for _, ev := range events {
		w.dispatchEvent(ev)
	}
}

// dispatchEvent applies an event's cache side effect and enqueues the job
// it implies, per spec §4.11's mapping (Created/Renamed→Content,
// Modified/AttributesChanged→Metadata if resolvable, Deleted→Critical).
func (w *Watcher) dispatchEvent(ev model.FileEvent) {
	switch ev.Kind {
	case model.EventCreated:
		w.cache.Put(*ev.Meta)
		w.queues.Push(model.JobContent, model.Job{
			Payload:  model.PayloadContentIndex,
			Doc:      ev.Meta.Key,
			Path:     ev.Meta.Path,
			Size:     ev.Meta.Size,
			EstBytes: ev.Meta.Size,
		})

	case model.EventRenamed:
		w.cache.Put(*ev.To)
		w.queues.Push(model.JobContent, model.Job{
			Payload:  model.PayloadRename,
			From:     ev.From,
			To:       ev.To.Key,
			Doc:      ev.To.Key,
			Path:     ev.To.Path,
			Size:     ev.To.Size,
			EstBytes: ev.To.Size,
		})

	case model.EventDeleted:
		w.cache.Remove(ev.Doc)
		w.queues.Push(model.JobCritical, model.Job{
			Payload: model.PayloadDelete,
			Doc:     ev.Doc,
		})

	case model.EventModified, model.EventAttributesChanged:
		if path, ok := w.cache.ResolvePath(ev.Doc); ok {
			w.queues.Push(model.JobMetadata, model.Job{
				Payload: model.PayloadMetadataUpdate,
				Doc:     ev.Doc,
				Path:    path,
			})
		} else {
			log.WithField("doc", ev.Doc).Debug("metadata event for unresolved path; dropping")
		}
	}
}

// rescan re-runs MFT enumeration for vs.volume and repopulates the
// metadata cache, used after a journal gap (spec §4.11 step 3).
func (w *Watcher) rescan(vs *volumeState) {
	e, err := newEnumerator(vs.volume)
	if err != nil {
		log.WithError(err).WithField("volume", vs.volume.ID).Error("rescan failed to open mft enumerator")
		return
	}
	defer e.Close()

	count := 0
	for {
		meta, ok, err := e.Next()
		if err != nil {
			log.WithError(err).WithField("volume", vs.volume.ID).Error("rescan aborted")
			return
		}
		if !ok {
			break
		}
		w.cache.Put(meta)
		count++
	}
	log.WithField("volume", vs.volume.ID).WithField("files", count).Info("rescan complete")
}

// pollTick drives the polling fallback (spec §4.11 step 4): walk the MFT
// and compare each entry's modified time against the cache, enqueueing
// Content jobs for new files and Metadata jobs for changed ones. It does
// not detect deletions; that needs a full before/after key-set diff,
// deferred until a volume needs the fallback path in practice.
func (w *Watcher) pollTick(vs *volumeState) {
	if !vs.lastPoll.IsZero() && time.Since(vs.lastPoll) < w.cfg.PollFallbackInterval {
		return
	}
	vs.lastPoll = time.Now()

	e, err := newEnumerator(vs.volume)
	if err != nil {
		log.WithError(err).WithField("volume", vs.volume.ID).Error("polling fallback failed to open mft enumerator")
		return
	}
	defer e.Close()

	for {
		meta, ok, err := e.Next()
		if err != nil {
			log.WithError(err).WithField("volume", vs.volume.ID).Error("polling fallback aborted")
			return
		}
		if !ok {
			break
		}

		existing, _, found := w.cache.Get(meta.Key)
		switch {
		case !found:
			w.cache.Put(meta)
			w.queues.Push(model.JobContent, model.Job{
				Payload:  model.PayloadContentIndex,
				Doc:      meta.Key,
				Path:     meta.Path,
				Size:     meta.Size,
				EstBytes: meta.Size,
			})
		case existing.Modified != meta.Modified:
			w.cache.Put(meta)
			w.queues.Push(model.JobMetadata, model.Job{
				Payload: model.PayloadMetadataUpdate,
				Doc:     meta.Key,
				Path:    meta.Path,
			})
		}
	}
}

