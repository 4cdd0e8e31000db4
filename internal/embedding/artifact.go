package embedding

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
)

// SchemaVersion is the artifact layout version written by Save.
const SchemaVersion = 1

const schema = `
CREATE TABLE meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE embeddings (
	iri TEXT PRIMARY KEY,
	label TEXT NOT NULL,
	label_hash TEXT NOT NULL,
	vector BLOB NOT NULL
);`

// Save writes the index to a SQLite file at path. The file is written
// beside the target and renamed into place, so readers never see a partial
// artifact.
func Save(ix *Index, path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	db, err := sql.Open("sqlite", tmpPath)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	if err := writeDB(db, ix); err != nil {
		_ = db.Close()
		return err
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename artifact: %w", err)
	}
	return nil
}

func writeDB(db *sql.DB, ix *Index) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	meta := map[string]string{
		"schema_version": strconv.Itoa(SchemaVersion),
		"dimensions":     strconv.Itoa(ix.dims),
		"model":          ix.model,
	}
	for k, v := range meta {
		if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("write meta %s: %w", k, err)
		}
	}
	stmt, err := tx.Prepare(`INSERT INTO embeddings (iri, label, label_hash, vector) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	for _, e := range ix.entries {
		if _, err := stmt.Exec(e.IRI, e.Label, e.LabelHash, float32SliceToBytes(e.Vector)); err != nil {
			return fmt.Errorf("write vector %s: %w", e.IRI, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Open loads an artifact written by Save. Unknown schema versions, missing
// metadata and vectors of the wrong size are load errors.
func Open(path string) (*Index, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, apperr.NewLoadError(path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperr.NewLoadError(path, err)
	}
	defer func() { _ = db.Close() }()

	ix, err := readDB(db)
	if err != nil {
		return nil, apperr.NewLoadError(path, err)
	}
	return ix, nil
}

func readDB(db *sql.DB) (*Index, error) {
	meta := map[string]string{}
	rows, err := db.Query(`SELECT key, value FROM meta`)
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", err)
	}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan meta: %w", err)
		}
		meta[k] = v
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	version, err := strconv.Atoi(meta["schema_version"])
	if err != nil {
		return nil, errors.New("missing schema_version")
	}
	if version != SchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %d (want %d)", version, SchemaVersion)
	}
	dims, err := strconv.Atoi(meta["dimensions"])
	if err != nil || dims <= 0 {
		return nil, fmt.Errorf("invalid dimensions %q", meta["dimensions"])
	}

	rows, err = db.Query(`SELECT iri, label, label_hash, vector FROM embeddings ORDER BY iri`)
	if err != nil {
		return nil, fmt.Errorf("read embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var entries []Entry
	for rows.Next() {
		var e Entry
		var blob []byte
		if err := rows.Scan(&e.IRI, &e.Label, &e.LabelHash, &blob); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		if len(blob) != dims*4 {
			return nil, fmt.Errorf("vector for %s has %d bytes, want %d", e.IRI, len(blob), dims*4)
		}
		e.Vector = bytesToFloat32Slice(blob)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return newIndex(meta["model"], dims, entries), nil
}

// little-endian float32 blobs
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToFloat32Slice(buf []byte) []float32 {
	floats := make([]float32, len(buf)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return floats
}
