// Package metacache implements the Metadata Cache (spec §4.4): an
// interned, slot-allocated in-memory structure that accelerates
// filename→path resolution over millions of entries, plus an LRU of
// already-resolved paths.
package metacache

import (
	"os"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/joyshmitz/ultrasearch/internal/docid"
	"github.com/joyshmitz/ultrasearch/internal/model"
)

// maxPathDepth bounds resolve_path traversal so a corrupt/cyclic parent
// chain can never cause an unbounded walk (spec §9).
const maxPathDepth = 512

// CachedItem is the compact in-memory form of a FileMeta.
type CachedItem struct {
	Key      docid.DocKey
	Parent   *docid.DocKey
	name     symbol
	Size     uint64
	Modified int64
	Flags    model.FileFlags
}

// Cache is the metadata cache. Readers should treat it as single-writer,
// multi-reader (spec §5): Put/Remove/Clear take the write lock, Get and
// ResolvePath take read/write locks respectively since ResolvePath may
// populate the path LRU.
type Cache struct {
	mu       sync.RWMutex
	slots    *slotMap[CachedItem]
	lookup   map[docid.DocKey]slotKey
	interner *interner
	paths    *lru.Cache[docid.DocKey, string]
}

// New builds a Cache whose resolved-path LRU holds at most pathCapacity
// entries.
func New(pathCapacity int) *Cache {
	if pathCapacity <= 0 {
		pathCapacity = 1000
	}
	paths, _ := lru.New[docid.DocKey, string](pathCapacity)
	return &Cache{
		slots:    newSlotMap[CachedItem](),
		lookup:   make(map[docid.DocKey]slotKey),
		interner: newInterner(),
		paths:    paths,
	}
}

// Put inserts or updates a FileMeta in place, invalidating any cached
// resolved path for that key.
func (c *Cache) Put(meta model.FileMeta) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.paths.Remove(meta.Key)
	nameSym := c.interner.intern(meta.Name)

	if sk, ok := c.lookup[meta.Key]; ok {
		if item, ok := c.slots.get(sk); ok {
			item.Parent = meta.Parent
			item.name = nameSym
			item.Size = meta.Size
			item.Modified = meta.Modified
			item.Flags = meta.Flags
			return
		}
	}

	sk := c.slots.insert(CachedItem{
		Key:      meta.Key,
		Parent:   meta.Parent,
		name:     nameSym,
		Size:     meta.Size,
		Modified: meta.Modified,
		Flags:    meta.Flags,
	})
	c.lookup[meta.Key] = sk
}

// Remove deletes the slot and mapping for key, invalidating its cached
// path.
func (c *Cache) Remove(key docid.DocKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.paths.Remove(key)
	if sk, ok := c.lookup[key]; ok {
		delete(c.lookup, key)
		c.slots.remove(sk)
	}
}

// Get returns the cached item for key, or false if absent. The returned
// name has already been resolved from the interner for convenience.
func (c *Cache) Get(key docid.DocKey) (item CachedItem, name string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sk, found := c.lookup[key]
	if !found {
		return CachedItem{}, "", false
	}
	slot, found := c.slots.get(sk)
	if !found {
		return CachedItem{}, "", false
	}
	return *slot, c.interner.resolve(slot.name), true
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.slots.len()
}

// ResolvePath walks the parent chain for key until it hits an entry with
// no parent, a self-referential parent (corrupt data), or the depth cap,
// whichever comes first. Results are cached in the path LRU.
func (c *Cache) ResolvePath(key docid.DocKey) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.paths.Get(key); ok {
		return p, true
	}

	var segments []string
	current := key
	for depth := 0; depth < maxPathDepth; depth++ {
		sk, found := c.lookup[current]
		if !found {
			if depth == 0 {
				return "", false
			}
			break
		}
		item, found := c.slots.get(sk)
		if !found {
			break
		}
		segments = append(segments, c.interner.resolve(item.name))

		if item.Parent == nil {
			break
		}
		if *item.Parent == current {
			// Self-referential parent: corrupt USN data. Stop here and
			// return the best-effort partial path built so far.
			break
		}
		current = *item.Parent
	}

	reverse(segments)
	full := strings.Join(segments, string(os.PathSeparator))
	c.paths.Add(key, full)
	return full, true
}

// Clear drops every entry, the interner, and the path LRU.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.slots.clear()
	c.lookup = make(map[docid.DocKey]slotKey)
	c.interner.reset()
	c.paths.Purge()
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
