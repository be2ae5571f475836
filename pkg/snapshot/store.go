// Package snapshot keeps previous versions of dataset files in a bbolt
// database, one bucket per file, so an overwritten file can be restored.
package snapshot

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned when a snapshot is not found.
var ErrNotFound = errors.New("snapshot not found")

// DefaultKeep is the number of snapshots kept per file when none is configured.
const DefaultKeep = 20

// Entry is one stored version of a file.
type Entry struct {
	Seq     uint64    `json:"seq"`
	TakenAt time.Time `json:"taken_at"`
	Size    int       `json:"size"`
	Content []byte    `json:"content,omitempty"`
}

// Store represents the bbolt database wrapper.
type Store struct {
	db   *bolt.DB
	keep int
	now  func() time.Time
}

// Open opens (creating if needed) the snapshot database at dbPath. Each
// file keeps its newest keep snapshots; keep <= 0 means DefaultKeep.
func Open(dbPath string, keep int) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &Store{db: db, keep: keep, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Snapshot stores previous as the newest version of key and prunes the
// oldest versions beyond the retention limit.
func (s *Store) Snapshot(key string, previous []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(key))
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", key, err)
		}

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}

		data, err := json.Marshal(Entry{
			Seq:     seq,
			TakenAt: s.now().UTC(),
			Size:    len(previous),
			Content: previous,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot: %w", err)
		}
		if err := b.Put(itob(seq), data); err != nil {
			return err
		}

		return prune(b, s.keep)
	})
}

// prune deletes the oldest entries of b until at most keep remain.
func prune(b *bolt.Bucket, keep int) error {
	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}
	if len(keys) <= keep {
		return nil
	}

	for _, k := range keys[:len(keys)-keep] {
		if err := b.Delete(k); err != nil {
			return fmt.Errorf("failed to prune snapshot: %w", err)
		}
	}
	return nil
}

// Keys returns the snapshotted file keys in byte order.
func (s *Store) Keys() ([]string, error) {
	keys := []string{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			keys = append(keys, string(name))
			return nil
		})
	})
	return keys, err
}

// List returns the snapshots of key, newest first, without their content.
// An unknown key has no snapshots.
func (s *Store) List(key string) ([]Entry, error) {
	entries := []Entry{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(key))
		if b == nil {
			return nil
		}

		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to unmarshal snapshot %d: %w", btoi(k), err)
			}
			e.Content = nil
			entries = append(entries, e)
		}
		return nil
	})
	return entries, err
}

// Get returns snapshot seq of key with its content. Seq 0 selects the newest.
func (s *Store) Get(key string, seq uint64) (*Entry, error) {
	var entry Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(key))
		if b == nil {
			return ErrNotFound
		}

		var data []byte
		if seq == 0 {
			_, data = b.Cursor().Last()
		} else {
			data = b.Get(itob(seq))
		}
		if data == nil {
			return ErrNotFound
		}

		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// itob converts a sequence number to a byte slice for use as a bbolt key.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func btoi(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}
