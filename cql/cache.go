package cql

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/rotisserie/eris"
)

// Parsed ASTs carry no world state, so one process-wide cache serves every
// world. Entries are keyed by the xxhash of the trimmed source and verified
// against the source before use.
type cacheEntry struct {
	src  string
	term *astTerm
}

var parseCache sync.Map // uint64 -> *cacheEntry

func parseTerm(src string) (*astTerm, error) {
	trimmed := normalize(src)
	if trimmed == "" {
		return nil, eris.New("query expression is empty")
	}
	key := xxhash.Sum64String(trimmed)
	if v, ok := parseCache.Load(key); ok {
		entry := v.(*cacheEntry)
		if entry.src == trimmed {
			return entry.term, nil
		}
	}
	term, err := parser.ParseString("", trimmed)
	if err != nil {
		return nil, err
	}
	parseCache.Store(key, &cacheEntry{src: trimmed, term: term})
	return term, nil
}
