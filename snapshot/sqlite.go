package snapshot

import (
	"bytes"
	"database/sql"
	"encoding/gob"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"

	"hotswap/domain/settings"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    version INTEGER PRIMARY KEY,
    created INTEGER NOT NULL,
    body    BLOB    NOT NULL
);`

// SQLiteStore keeps a history of snapshots, newest wins. Keep bounds
// how many rows survive a Save; zero keeps everything.
type SQLiteStore struct {
	db   *sql.DB
	Keep int
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", path)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create snapshots table")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(doc settings.Document) error {
	var buf bytes.Buffer
	snap := Snapshot{Version: doc.Version, Created: time.Now(), Values: doc.Values()}
	if err := gob.NewEncoder(&buf).Encode(&snap); err != nil {
		return errors.Wrapf(err, "encode snapshot v%d", doc.Version)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO snapshots (version, created, body) VALUES (?, ?, ?)`,
		int64(doc.Version), snap.Created.UnixNano(), buf.Bytes(),
	); err != nil {
		return errors.Wrap(err, "insert snapshot")
	}
	if s.Keep > 0 {
		if _, err := tx.Exec(
			`DELETE FROM snapshots WHERE version NOT IN
			 (SELECT version FROM snapshots ORDER BY version DESC LIMIT ?)`,
			s.Keep,
		); err != nil {
			return errors.Wrap(err, "prune snapshots")
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Latest() (settings.Document, error) {
	var body []byte
	err := s.db.QueryRow(`SELECT body FROM snapshots ORDER BY version DESC LIMIT 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return settings.Empty(), nil
	}
	if err != nil {
		return settings.Document{}, err
	}

	var snap Snapshot
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&snap); err != nil {
		return settings.Document{}, errors.Wrap(err, "decode snapshot")
	}
	return settings.FromMap(snap.Version, snap.Values), nil
}

// Count reports how many snapshots are stored.
func (s *SQLiteStore) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
