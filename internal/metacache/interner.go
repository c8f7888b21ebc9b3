package metacache

// symbol is an interned string handle, the Go analogue of the `lasso::Spur`
// the original metadata cache used for filenames (spec §4.4 "name is an
// interned symbol").
type symbol uint32

// interner deduplicates filename strings. Stale symbols from updated
// entries are never reclaimed individually — they leak harmlessly until
// reset() is called from Cache.Clear(), exactly as spec §4.4 documents.
type interner struct {
	strings []string
	index   map[string]symbol
}

func newInterner() *interner {
	return &interner{index: make(map[string]symbol)}
}

func (in *interner) intern(s string) symbol {
	if sym, ok := in.index[s]; ok {
		return sym
	}
	sym := symbol(len(in.strings))
	in.strings = append(in.strings, s)
	in.index[s] = sym
	return sym
}

func (in *interner) resolve(sym symbol) string {
	if int(sym) >= len(in.strings) {
		return ""
	}
	return in.strings[sym]
}

func (in *interner) reset() {
	in.strings = in.strings[:0]
	in.index = make(map[string]symbol)
}
