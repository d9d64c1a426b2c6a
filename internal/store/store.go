// Package store provides a SQLite-backed durable record store. Each budget
// instance owns a small set of named, versioned JSON blobs (user edits, the
// last good snapshot) that survive process restarts.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	instance_id TEXT NOT NULL,
	record      TEXT NOT NULL,
	version     INTEGER NOT NULL,
	payload     BLOB NOT NULL,
	updated_at  TEXT NOT NULL,
	PRIMARY KEY (instance_id, record)
);
`

// Store provides whole-record read/write access keyed by a stable
// per-instance identifier plus a record name.
type Store struct {
	db *sql.DB
}

// Open opens or creates the record database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the record database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put writes a record, replacing any previous version.
func (s *Store) Put(instanceID, record string, version int, payload []byte) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`INSERT OR REPLACE INTO records
		(instance_id, record, version, payload, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		instanceID, record, version, payload, now,
	)
	return err
}

// Get reads a record. The second return value reports whether the record
// exists.
func (s *Store) Get(instanceID, record string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRow(
		"SELECT payload FROM records WHERE instance_id = ? AND record = ?",
		instanceID, record,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// Delete removes a single record.
func (s *Store) Delete(instanceID, record string) error {
	_, err := s.db.Exec("DELETE FROM records WHERE instance_id = ? AND record = ?", instanceID, record)
	return err
}

// DeleteInstance removes every record belonging to an instance. Used by
// whole-configuration teardown.
func (s *Store) DeleteInstance(instanceID string) error {
	_, err := s.db.Exec("DELETE FROM records WHERE instance_id = ?", instanceID)
	return err
}

// RecordCount returns the number of stored records.
func (s *Store) RecordCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&count)
	return count, err
}
