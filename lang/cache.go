package lang

import (
	"bytes"
	"encoding/gob"
	"io"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// compileCache memoizes compiled templates keyed by the combined hash
// of source text and compile options. Entries are never evicted; the
// cache is intended for a bounded set of templates compiled repeatedly,
// not for arbitrary user input.
var compileCache sync.Map

// compileState guards one cache slot so concurrent compiles of the same
// source do the work once.
type compileState struct {
	once sync.Once
	tmpl *Template
	err  error
}

// hashConfig encodes the options that affect compilation with gob and
// hashes them with xxh3.
func hashConfig(cfg config) uint64 {
	var buf bytes.Buffer

	enc := gob.NewEncoder(&buf)

	_ = enc.Encode(cfg.mixinDir)
	_ = enc.Encode(cfg.whileLimit)

	return xxh3.Hash(buf.Bytes())
}

// cacheKeyFor combines the source hash with the options hash.
func cacheKeyFor(source string, cfg config) string {
	return strconv.FormatUint(xxh3.Hash([]byte(source))^hashConfig(cfg), 36)
}

// compileCached compiles through the cache. Sources compiled with a
// loader bypass the cache entirely, since their output depends on
// files the hash cannot see.
func compileCached(source string, cfg config) (*Template, error) {
	if !cfg.cache || cfg.loader != nil {
		return compile(source, cfg)
	}

	entry := new(compileState)

	stored, _ := compileCache.LoadOrStore(cacheKeyFor(source, cfg), entry)
	if state, ok := stored.(*compileState); ok {
		entry = state
	}

	entry.once.Do(func() {
		entry.tmpl, entry.err = compile(source, cfg)
	})

	return entry.tmpl, entry.err
}

// CompileReader reads template source through an asynchronous
// read-ahead buffer and compiles it.
func CompileReader(r io.Reader, opts ...Option) (*Template, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, NewError("read template source").Wrap(err)
	}

	return Compile(string(data), opts...)
}
