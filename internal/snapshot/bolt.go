package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var bucketSnapshots = []byte("snapshots")

// BoltStore keeps snapshots in a single bbolt file
type BoltStore struct {
	db  *bbolt.DB
	now func() time.Time
}

// OpenBolt opens (or creates) DATA_DIR/snapshots.db
func OpenBolt(dataDir string) (*BoltStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	opts := &bbolt.Options{
		Timeout:      1 * time.Second,
		FreelistType: bbolt.FreelistArrayType,
	}

	db, err := bbolt.Open(filepath.Join(dataDir, "snapshots.db"), 0o600, opts)
	if err != nil {
		return nil, fmt.Errorf("open boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSnapshots)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &BoltStore{db: db, now: time.Now}, nil
}

// Save writes data under key, replacing any previous snapshot
func (s *BoltStore) Save(_ context.Context, key string, data []byte) error {
	snap, err := json.Marshal(Snapshot{Key: key, Data: data, SavedAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Put([]byte(key), snap)
	})
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", key, err)
	}
	return nil
}

// Load reads the snapshot stored under key
func (s *BoltStore) Load(_ context.Context, key string) (Snapshot, error) {
	var snap Snapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketSnapshots).Get([]byte(key))
		if raw == nil {
			return ErrNotFound
		}
		return json.Unmarshal(raw, &snap)
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot %s: %w", key, err)
	}
	return snap, nil
}

// Prune deletes snapshots saved before the cutoff
func (s *BoltStore) Prune(_ context.Context, before time.Time) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var snap Snapshot
			if err := json.Unmarshal(v, &snap); err != nil || snap.SavedAt.Before(before) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return removed, nil
}

// Close closes the database file
func (s *BoltStore) Close() error {
	return s.db.Close()
}
