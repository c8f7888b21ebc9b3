package usn

import (
	"github.com/joyshmitz/ultrasearch/internal/docid"
	"github.com/joyshmitz/ultrasearch/internal/model"
)

// MetaResolver builds the FileMeta for a record that just got a
// Created/Renamed event, given everything the USN record itself carried
// (name, parent, size, modified time) plus whatever else the caller's
// metadata cache already knows (notably the resolved path). Returns
// ok=false when the record can't be turned into a usable FileMeta yet
// (e.g. its parent hasn't been seen), which drops the event.
type MetaResolver func(rec RawRecord) (model.FileMeta, bool)

// Translator converts raw USN records into coalesced FileEvents,
// maintaining cross-tick state for partial renames. A rename half seen in
// one tick and not completed by the next is buffered by FRN for that one
// tick, then falls back to Modified (spec §4.3).
type Translator struct {
	volume  uint16
	pending map[uint64]struct{}
}

// NewTranslator builds a Translator for one volume.
func NewTranslator(volume uint16) *Translator {
	return &Translator{volume: volume, pending: make(map[uint64]struct{})}
}

// Translate converts one batch of records to FileEvents. Within the
// batch, events for the same FRN are coalesced to the single strongest
// event per eventPriority; batch order otherwise follows each FRN's first
// appearance.
func (t *Translator) Translate(records []RawRecord, resolve MetaResolver) []model.FileEvent {
	order := make([]uint64, 0, len(records))
	best := make(map[uint64]model.FileEvent, len(records))

	consider := func(frn uint64, ev model.FileEvent) {
		if cur, ok := best[frn]; ok {
			if eventPriority(ev.Kind) <= eventPriority(cur.Kind) {
				return
			}
		} else {
			order = append(order, frn)
		}
		best[frn] = ev
	}

	seenThisBatch := make(map[uint64]bool)

	for _, rec := range records {
		doc := docid.FromParts(t.volume, rec.FRN)
		seenThisBatch[rec.FRN] = true

		switch {
		case rec.Reason&ReasonFileDelete != 0:
			delete(t.pending, rec.FRN)
			consider(rec.FRN, model.NewDeleted(doc))

		case rec.Reason&ReasonRenameOldName != 0 && rec.Reason&ReasonRenameNewName != 0:
			delete(t.pending, rec.FRN)
			if meta, ok := resolve(rec); ok {
				consider(rec.FRN, model.NewRenamed(doc, meta))
			} else {
				consider(rec.FRN, model.NewModified(doc))
			}

		case rec.Reason&ReasonRenameOldName != 0:
			t.pending[rec.FRN] = struct{}{}

		case rec.Reason&ReasonRenameNewName != 0:
			if _, waiting := t.pending[rec.FRN]; waiting {
				delete(t.pending, rec.FRN)
				if meta, ok := resolve(rec); ok {
					consider(rec.FRN, model.NewRenamed(doc, meta))
				} else {
					consider(rec.FRN, model.NewModified(doc))
				}
			} else {
				t.pending[rec.FRN] = struct{}{}
			}

		case rec.Reason&(ReasonDataExtend|ReasonDataOverwrite|ReasonDataTruncation) != 0:
			consider(rec.FRN, model.NewModified(doc))

		case rec.Reason&(ReasonBasicInfoChange|ReasonFileAttributesChg|ReasonReparsePointChg|ReasonObjectIDChange) != 0:
			if rec.Reason&(ReasonReparsePointChg|ReasonObjectIDChange) != 0 {
				log.WithField("volume", t.volume).WithField("frn", rec.FRN).WithField("reason", rec.Reason).
					Warn("rare usn reason mapped to AttributesChanged")
			}
			consider(rec.FRN, model.NewAttributesChanged(doc))

		case rec.Reason&ReasonFileCreate != 0:
			if meta, ok := resolve(rec); ok {
				consider(rec.FRN, model.NewCreated(meta))
			}
		}
	}

	for frn := range t.pending {
		if seenThisBatch[frn] {
			continue
		}
		// Not resolved within the tick after it was first buffered: the
		// one tick of grace has elapsed, fall back to Modified.
		consider(frn, model.NewModified(docid.FromParts(t.volume, frn)))
		delete(t.pending, frn)
	}

	out := make([]model.FileEvent, 0, len(order))
	for _, frn := range order {
		out = append(out, best[frn])
	}
	return out
}
