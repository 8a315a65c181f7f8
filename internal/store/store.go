// Package store is the content-addressed parse cache: a parsed
// *lex.Document, keyed by the BLAKE3 hash of its source bytes plus the
// indentation settings that produced it, persisted as an xz-compressed
// JSON blob and indexed in SQLite, fronted by an in-memory TTL cache.
package store

import (
	"bytes"
	"database/sql"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/lexlang/lex/core/cache"
	"github.com/lexlang/lex/core/cas"
	"github.com/lexlang/lex/core/lex"
	sqlitedrv "github.com/lexlang/lex/core/sqlite"
	"github.com/lexlang/lex/internal/errs"
)

// memCacheMaxBytes bounds the in-memory front door's total estimated JSON
// footprint; documents beyond that live only in the blob store until evicted
// back in on the next Get.
const memCacheMaxBytes = 64 * 1024 * 1024

// Store is a parse cache backed by a content-addressed blob store and a
// SQLite index, with a byte-budgeted in-memory LRU front door for hot
// lookups.
type Store struct {
	blobs *cas.Store
	db    *sql.DB
	mem   *cache.BoundedCache[string, *lex.Document]
}

// Open opens (creating if necessary) a Store rooted at dir. dir holds the
// blob tree (dir/blobs/...) and the SQLite index (dir/index.db).
func Open(dir string) (*Store, error) {
	blobs, err := cas.NewStore(dir)
	if err != nil {
		return nil, fmt.Errorf("store: open blob store: %w", err)
	}

	db, err := sqlitedrv.Open(filepath.Join(dir, "index.db"))
	if err != nil {
		return nil, fmt.Errorf("store: open index: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	return &Store{
		blobs: blobs,
		db:    db,
		mem: cache.NewBoundedCache[string, *lex.Document](
			cache.Config{MaxSize: 256},
			memCacheMaxBytes,
			estimateDocumentBytes,
		),
	}, nil
}

// estimateDocumentBytes sizes a cached *lex.Document by its JSON encoding,
// the same measure the blob store persists, so the in-memory byte budget
// reflects the actual cost a miss would otherwise pay to reconstruct.
func estimateDocumentBytes(doc *lex.Document) int64 {
	data, err := lex.MarshalDocumentJSON(doc)
	if err != nil {
		return 0
	}
	return int64(len(data))
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS parse_cache (
	cache_key  TEXT PRIMARY KEY,
	blob_hash  TEXT NOT NULL,
	byte_size  INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
`

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Key derives a parse-cache key from source bytes and the indentation
// settings that will govern how they're parsed: the same source parsed
// under a different indent step is a cache miss, not a stale hit.
func Key(src []byte, indentStep, tabWidth int) string {
	fingerprint := fmt.Sprintf("%s:%d:%d", cas.Blake3Hash(src), indentStep, tabWidth)
	return cas.Blake3Hash([]byte(fingerprint))
}

// Get looks up a previously cached Document by key. The second return
// value is false on a cache miss (the caller should parse and call Put).
func (s *Store) Get(key string) (*lex.Document, bool, error) {
	if doc, ok := s.mem.Get(key); ok {
		return doc, true, nil
	}

	var blobHash string
	err := s.db.QueryRow(`SELECT blob_hash FROM parse_cache WHERE cache_key = ?`, key).Scan(&blobHash)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: query index: %w", err)
	}

	compressed, err := s.blobs.Retrieve(blobHash)
	if err != nil {
		return nil, false, errs.NewIO("retrieve blob", blobHash, err)
	}
	if actual := cas.Hash(compressed); actual != blobHash {
		return nil, false, errs.NewCacheIntegrity(key, blobHash, actual)
	}
	data, err := decompress(compressed)
	if err != nil {
		return nil, false, errs.Wrap(err, "store: decompress blob")
	}
	doc, err := lex.UnmarshalDocumentJSON(data)
	if err != nil {
		return nil, false, &errs.ParseError{Format: "document JSON", Message: err.Error(), Err: err}
	}

	s.mem.Put(key, doc)
	return doc, true, nil
}

// Put stores doc under key, compressing its JSON encoding with xz before
// handing it to the content-addressed blob store.
func (s *Store) Put(key string, doc *lex.Document) error {
	data, err := lex.MarshalDocumentJSON(doc)
	if err != nil {
		return fmt.Errorf("store: encode document: %w", err)
	}
	compressed, err := compress(data)
	if err != nil {
		return fmt.Errorf("store: compress document: %w", err)
	}
	blobHash, err := s.blobs.Store(compressed)
	if err != nil {
		return fmt.Errorf("store: write blob: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO parse_cache (cache_key, blob_hash, byte_size, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET blob_hash = excluded.blob_hash,
			byte_size = excluded.byte_size, created_at = excluded.created_at`,
		key, blobHash, len(compressed), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("store: update index: %w", err)
	}

	s.mem.Put(key, doc)
	return nil
}

// Stats is a snapshot of the on-disk index: entry count and total
// compressed-blob bytes recorded for those entries.
type Stats struct {
	Entries int
	Bytes   int64
}

// Stats reports the SQLite index's current size, independent of what the
// in-memory front door currently holds.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	row := s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(byte_size), 0) FROM parse_cache`)
	if err := row.Scan(&st.Entries, &st.Bytes); err != nil {
		return Stats{}, fmt.Errorf("store: stats query: %w", err)
	}
	return st, nil
}

// Clear drops every index row and invalidates the in-memory front door.
// Blobs already on disk are left in place (cas.Store is content-addressed
// and shared; a cleared index just forgets which entries were cache hits).
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM parse_cache`); err != nil {
		return fmt.Errorf("store: clear index: %w", err)
	}
	s.mem.Clear()
	return nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
