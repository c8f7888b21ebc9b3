// Package textindex is the minimal reimplementation of the external "text
// index" façade spec §2 treats as a black box: documents go in via
// AddDocument/Commit, hits come out via Search (ordered by DocKey, every
// hit scored 1; there is no relevance ranking). Persistence is a
// bbolt database; a small in-memory inverted index sits in front of it so
// Search doesn't have to walk the database per query, mirroring the
// teacher's own "persistent store plus in-memory view" split in
// `backend/cache`.
package textindex

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/pkg/errors"

	"github.com/joyshmitz/ultrasearch/internal/docid"
	"github.com/joyshmitz/ultrasearch/internal/ipc"
	"github.com/joyshmitz/ultrasearch/internal/logging"
)

var log = logging.For("textindex")

var docsBucket = []byte("documents")

// Document is one unit of indexable content: a file's metadata plus
// whatever text content was extracted for it (may be empty for
// metadata-only entries).
type Document struct {
	Key      docid.DocKey
	Volume   uint16
	Name     string
	Path     string
	Ext      string
	Content  string
	Size     uint64
	Created  int64
	Modified int64
}

// Index is the text index façade. Safe for concurrent Search calls; Commit
// must not overlap with another Commit (single-writer, spec §5).
type Index struct {
	db *bolt.DB

	mu      sync.RWMutex
	docs    map[docid.DocKey]Document
	postings map[string]map[docid.DocKey]struct{} // lowercased term -> doc set

	pendingMu sync.Mutex
	pending   []Document
}

// Open creates or opens the bbolt database at path and rebuilds the
// in-memory index from whatever was last committed.
func Open(path string) (*Index, error) {
	db, err := bolt.Open(path, 0o644, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "textindex: opening %s", path)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(docsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "textindex: creating bucket")
	}

	idx := &Index{
		db:       db,
		docs:     make(map[docid.DocKey]Document),
		postings: make(map[string]map[docid.DocKey]struct{}),
	}
	if err := idx.reload(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// Close closes the underlying database.
func (idx *Index) Close() error { return idx.db.Close() }

func (idx *Index) reload() error {
	return idx.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(docsBucket)
		return b.ForEach(func(k, v []byte) error {
			var doc Document
			if err := json.Unmarshal(v, &doc); err != nil {
				return errors.Wrapf(err, "textindex: corrupt record for key %x", k)
			}
			idx.indexDoc(doc)
			return nil
		})
	})
}

// AddDocument stages doc for the next Commit; it is not visible to Search
// until then, matching spec §5's "text-index commits happen in batch: all
// jobs selected in one tick produce one commit".
func (idx *Index) AddDocument(doc Document) {
	idx.pendingMu.Lock()
	defer idx.pendingMu.Unlock()
	idx.pending = append(idx.pending, doc)
}

// Commit flushes every document staged since the last Commit to the
// database and the in-memory index in one batch.
func (idx *Index) Commit() error {
	idx.pendingMu.Lock()
	batch := idx.pending
	idx.pending = nil
	idx.pendingMu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	err := idx.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(docsBucket)
		for _, doc := range batch {
			data, err := json.Marshal(doc)
			if err != nil {
				return errors.Wrap(err, "textindex: marshaling document")
			}
			if err := b.Put(docKeyBytes(doc.Key), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "textindex: committing batch")
	}

	idx.mu.Lock()
	for _, doc := range batch {
		idx.indexDocLocked(doc)
	}
	idx.mu.Unlock()

	log.WithField("documents", len(batch)).Debug("textindex: commit")
	return nil
}

func (idx *Index) indexDoc(doc Document) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.indexDocLocked(doc)
}

func (idx *Index) indexDocLocked(doc Document) {
	idx.docs[doc.Key] = doc
	for _, term := range tokenize(doc.Name + " " + doc.Content) {
		set, ok := idx.postings[term]
		if !ok {
			set = make(map[docid.DocKey]struct{})
			idx.postings[term] = set
		}
		set[doc.Key] = struct{}{}
	}
}

// UpdateMetadata stages a metadata-only refresh for key: name/path/size/
// timestamps change, but any content text already committed for key is
// preserved rather than clobbered, since a metadata-lane job never carries
// re-extracted content.
func (idx *Index) UpdateMetadata(key docid.DocKey, volume uint16, name, path, ext string, size uint64, created, modified int64) {
	idx.mu.RLock()
	existing, ok := idx.docs[key]
	idx.mu.RUnlock()

	doc := Document{
		Key: key, Volume: volume, Name: name, Path: path, Ext: ext,
		Size: size, Created: created, Modified: modified,
	}
	if ok {
		doc.Content = existing.Content
	}
	idx.AddDocument(doc)
}

// Remove deletes a document by key, immediately (not staged), matching the
// Critical lane's synchronous delete semantics (spec §4.9).
func (idx *Index) Remove(key docid.DocKey) error {
	if err := idx.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(docsBucket).Delete(docKeyBytes(key))
	}); err != nil {
		return errors.Wrap(err, "textindex: removing document")
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.docs, key)
	for term, set := range idx.postings {
		delete(set, key)
		if len(set) == 0 {
			delete(idx.postings, term)
		}
	}
	return nil
}

// Search evaluates query against the committed index and returns up to
// limit hits starting at offset, plus the total match count.
func (idx *Index) Search(query ipc.QueryExpr, limit, offset uint32) (hits []ipc.SearchHit, total uint64, err error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	matched, err := idx.eval(query)
	if err != nil {
		return nil, 0, err
	}

	keys := make([]docid.DocKey, 0, len(matched))
	for k := range matched {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	total = uint64(len(keys))
	if uint64(offset) >= total {
		return nil, total, nil
	}
	end := uint64(offset) + uint64(limit)
	if limit == 0 || end > total {
		end = total
	}

	for _, k := range keys[offset:end] {
		doc := idx.docs[k]
		hits = append(hits, ipc.SearchHit{
			Key: uint64(doc.Key), Score: 1,
			HasName: true, Name: doc.Name,
			HasPath: doc.Path != "", Path: doc.Path,
			HasExt: doc.Ext != "", Ext: doc.Ext,
			HasSize: true, Size: doc.Size,
			HasModified: true, Modified: doc.Modified,
		})
	}
	return hits, total, nil
}

func (idx *Index) eval(q ipc.QueryExpr) (map[docid.DocKey]struct{}, error) {
	switch q.Kind {
	case ipc.QueryTerm:
		return idx.evalTerm(*q.Term), nil
	case ipc.QueryRange:
		return idx.evalRange(*q.Range), nil
	case ipc.QueryNot:
		inner, err := idx.eval(*q.Not)
		if err != nil {
			return nil, err
		}
		out := make(map[docid.DocKey]struct{})
		for k := range idx.docs {
			if _, excluded := inner[k]; !excluded {
				out[k] = struct{}{}
			}
		}
		return out, nil
	case ipc.QueryAnd:
		var out map[docid.DocKey]struct{}
		for i, node := range q.Nodes {
			set, err := idx.eval(node)
			if err != nil {
				return nil, err
			}
			if i == 0 {
				out = set
				continue
			}
			out = intersect(out, set)
		}
		if out == nil {
			out = make(map[docid.DocKey]struct{})
		}
		return out, nil
	case ipc.QueryOr:
		out := make(map[docid.DocKey]struct{})
		for _, node := range q.Nodes {
			set, err := idx.eval(node)
			if err != nil {
				return nil, err
			}
			for k := range set {
				out[k] = struct{}{}
			}
		}
		return out, nil
	default:
		return nil, errors.Errorf("textindex: unknown query kind %d", q.Kind)
	}
}

func (idx *Index) evalTerm(t ipc.TermQuery) map[docid.DocKey]struct{} {
	out := make(map[docid.DocKey]struct{})
	needle := strings.ToLower(t.Value)

	if t.Modifier == ipc.ModifierPrefix {
		for term, set := range idx.postings {
			if strings.HasPrefix(term, needle) {
				for k := range set {
					out[k] = struct{}{}
				}
			}
		}
		return out
	}

	if set, ok := idx.postings[needle]; ok {
		for k := range set {
			out[k] = struct{}{}
		}
	}
	return out
}

func (idx *Index) evalRange(r ipc.RangeQuery) map[docid.DocKey]struct{} {
	out := make(map[docid.DocKey]struct{})
	for k, doc := range idx.docs {
		var v int64
		switch r.Field {
		case ipc.FieldSize:
			v = int64(doc.Size)
		case ipc.FieldModified:
			v = doc.Modified
		case ipc.FieldCreated:
			v = doc.Created
		default:
			continue
		}
		if rangeMatches(r, v) {
			out[k] = struct{}{}
		}
	}
	return out
}

func rangeMatches(r ipc.RangeQuery, v int64) bool {
	var lo, hi int64
	switch r.Value.Kind {
	case ipc.RangeValueI64:
		lo, hi = r.Value.LoI64, r.Value.HiI64
	case ipc.RangeValueU64:
		lo, hi = int64(r.Value.LoU64), int64(r.Value.HiU64)
	}
	switch r.Op {
	case ipc.RangeGt:
		return v > lo
	case ipc.RangeGe:
		return v >= lo
	case ipc.RangeLt:
		return v < lo
	case ipc.RangeLe:
		return v <= lo
	case ipc.RangeBetween:
		return v >= lo && (!r.Value.HasHi || v <= hi)
	default:
		return false
	}
}

func intersect(a, b map[docid.DocKey]struct{}) map[docid.DocKey]struct{} {
	out := make(map[docid.DocKey]struct{})
	small, big := a, b
	if len(b) < len(a) {
		small, big = b, a
	}
	for k := range small {
		if _, ok := big[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	seen := make(map[string]bool, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func docKeyBytes(k docid.DocKey) []byte {
	b := make([]byte, 8)
	v := uint64(k)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}
