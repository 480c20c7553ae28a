// Package boltstore is a player.Store backed by a single bbolt file.
// Records are stored under their capitalized name in one bucket,
// encoded with the same codec as the flat player files so the two
// backends round-trip identically.
package boltstore

import (
	"fmt"

	bbolt "go.etcd.io/bbolt"

	"github.com/smallmud/smallmud/pkg/flatfile"
	"github.com/smallmud/smallmud/pkg/player"
)

var bucketPlayers = []byte("players")

// Store wraps a bbolt database holding player records.
type Store struct {
	bolt *bbolt.DB
}

// Open opens or creates the bbolt database file at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPlayers)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltstore: create bucket: %w", err)
	}

	return &Store{bolt: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	if s.bolt != nil {
		return s.bolt.Close()
	}
	return nil
}

// Path returns the filesystem path of the database file.
func (s *Store) Path() string {
	if s.bolt != nil {
		return s.bolt.Path()
	}
	return ""
}

// Load reads the record for name, or player.ErrNotFound.
func (s *Store) Load(name string) (*player.Record, error) {
	var data []byte
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketPlayers).Get([]byte(name)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("boltstore: load %s: %w", name, err)
	}
	if data == nil {
		return nil, player.ErrNotFound
	}
	return flatfile.DecodeRecord(name, data)
}

// Save persists the record under its name.
func (s *Store) Save(rec *player.Record) error {
	err := s.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketPlayers).Put([]byte(rec.Name), flatfile.EncodeRecord(rec))
	})
	if err != nil {
		return fmt.Errorf("boltstore: save %s: %w", rec.Name, err)
	}
	return nil
}

// Exists reports whether a record is stored for name.
func (s *Store) Exists(name string) (bool, error) {
	var found bool
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket(bucketPlayers).Get([]byte(name)) != nil
		return nil
	})
	return found, err
}

var _ player.Store = (*Store)(nil)
