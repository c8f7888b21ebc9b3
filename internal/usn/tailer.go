package usn

import (
	"github.com/joyshmitz/ultrasearch/internal/logging"
	"github.com/joyshmitz/ultrasearch/internal/model"
	"github.com/joyshmitz/ultrasearch/internal/ultraerr"
)

var log = logging.For("usn-tailer")

// journalHead is a snapshot of the journal's identity and extent, used to
// detect gaps before reading any records.
type journalHead struct {
	journalID uint64
	firstUSN  uint64
	nextUSN   uint64
}

// journalReader is the platform-specific half of the tailer.
type journalReader interface {
	queryJournal() (journalHead, error)
	readRecords(startUSN uint64) ([]RawRecord, error)
	close()
}

type openJournal func(volume model.VolumeInfo) (journalReader, error)

var openJournalReader openJournal = osOpenJournal

// Tailer reads new USN records for one volume and translates them to
// FileEvents.
type Tailer struct {
	volume     model.VolumeInfo
	journal    journalReader
	translator *Translator
	resolve    MetaResolver
}

// Open begins tailing volume's USN journal. resolve is used to build
// Created/Renamed events with full FileMeta.
func Open(volume model.VolumeInfo, resolve MetaResolver) (*Tailer, error) {
	j, err := openJournalReader(volume)
	if err != nil {
		return nil, err
	}
	return &Tailer{
		volume:     volume,
		journal:    j,
		translator: NewTranslator(volume.ID),
		resolve:    resolve,
	}, nil
}

// Close releases the underlying journal handle.
func (t *Tailer) Close() { t.journal.close() }

// Tail reads all records past cursor up to the current journal head and
// returns the translated events plus the advanced cursor. Returns
// ultraerr.ErrGapDetected when the journal has been recreated (journal_id
// changed) or the cursor's last_usn precedes the earliest available
// record, together with the input cursor unchanged; callers must rescan
// via the MFT Enumerator and reset the cursor to the zero value, which
// makes the next Tail start from the current journal head.
func (t *Tailer) Tail(cursor model.JournalCursor) ([]model.FileEvent, model.JournalCursor, error) {
	head, err := t.journal.queryJournal()
	if err != nil {
		return nil, cursor, ultraerr.Wrap(err, "query usn journal")
	}

	initializing := cursor.JournalID == 0 && cursor.LastUSN == 0
	if !initializing {
		if head.journalID != cursor.JournalID {
			log.WithField("volume", t.volume.ID).Warn("usn journal id changed; gap detected")
			return nil, cursor, ultraerr.ErrGapDetected
		}
		if cursor.LastUSN < head.firstUSN {
			log.WithField("volume", t.volume.ID).Warn("usn cursor precedes journal start; gap detected")
			return nil, cursor, ultraerr.ErrGapDetected
		}
	}

	startUSN := cursor.LastUSN
	if initializing {
		startUSN = head.nextUSN
	}

	records, err := t.journal.readRecords(startUSN)
	if err != nil {
		return nil, cursor, ultraerr.Wrap(err, "read usn records")
	}

	events := t.translator.Translate(records, t.resolve)
	newCursor := model.JournalCursor{JournalID: head.journalID, LastUSN: head.nextUSN}
	return events, newCursor, nil
}
