// Package journal records every script load attempt in a SQLite database,
// keeping a brotli-compressed copy of the source that was loaded so earlier
// revisions of an effect can be inspected or restored.
package journal

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/tliron/commonlog"

	// Pure-Go SQLite driver for database/sql.
	_ "github.com/glebarez/sqlite"
)

var log = commonlog.GetLogger("livefx.journal")

const maxSourceSize = 16 * 1024 * 1024 // 16 MB

// ErrNotFound is returned by Source when no entry has the requested id.
var ErrNotFound = errors.New("journal entry not found")

const schema = `CREATE TABLE IF NOT EXISTS loads (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	path        TEXT    NOT NULL,
	loaded_at   INTEGER NOT NULL,
	ok          INTEGER NOT NULL,
	kind        TEXT    NOT NULL DEFAULT '',
	message     TEXT    NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL,
	source_br   BLOB
)`

// Entry is one load attempt.
type Entry struct {
	ID       int64
	Path     string
	LoadedAt time.Time
	OK       bool
	Kind     string // error kind for failed loads, empty on success
	Message  string
	Duration time.Duration
	Source   []byte // only populated by Record callers; List leaves it nil
}

// Journal is a handle on an open journal database.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the journal at path.
func Open(path string) (*Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal %q: %w", path, err)
	}
	// Writes come from the single update goroutine; one connection also
	// keeps an in-memory database alive across calls.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	log.Debugf("opened %s", path)
	return &Journal{db: db}, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Record stores e and returns its id. A zero LoadedAt is replaced by now.
func (j *Journal) Record(e Entry) (int64, error) {
	if e.LoadedAt.IsZero() {
		e.LoadedAt = time.Now()
	}
	var blob []byte
	if e.Source != nil {
		var err error
		if blob, err = compress(e.Source); err != nil {
			return 0, err
		}
	}
	res, err := j.db.Exec(
		`INSERT INTO loads (path, loaded_at, ok, kind, message, duration_ms, source_br)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Path, e.LoadedAt.UnixMilli(), e.OK, e.Kind, e.Message, e.Duration.Milliseconds(), blob)
	if err != nil {
		return 0, fmt.Errorf("recording load of %s: %w", e.Path, err)
	}
	return res.LastInsertId()
}

// List returns up to limit entries, newest first. A limit <= 0 returns all.
func (j *Journal) List(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.Query(
		`SELECT id, path, loaded_at, ok, kind, message, duration_ms
		 FROM loads ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing journal: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			loadedAt   int64
			durationMS int64
		)
		if err := rows.Scan(&e.ID, &e.Path, &loadedAt, &e.OK, &e.Kind, &e.Message, &durationMS); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		e.LoadedAt = time.UnixMilli(loadedAt)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

// Source returns the decompressed source stored with entry id.
func (j *Journal) Source(id int64) ([]byte, error) {
	var blob []byte
	err := j.db.QueryRow(`SELECT source_br FROM loads WHERE id = ?`, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading entry %d: %w", id, err)
	}
	if blob == nil {
		return nil, fmt.Errorf("entry %d has no stored source", id)
	}
	return decompress(blob)
}

func compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(blob []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(blob))
	out, err := io.ReadAll(io.LimitReader(r, maxSourceSize+1))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	if len(out) > maxSourceSize {
		return nil, fmt.Errorf("decompress: output exceeds maximum allowed size")
	}
	return out, nil
}
