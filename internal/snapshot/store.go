// Package snapshot keeps durable backups of upstream payloads so the service
// can answer from the last good copy when disease.sh is unreachable.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when no snapshot exists for a key
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one stored payload
type Snapshot struct {
	Key     string          `json:"key"`
	Data    json.RawMessage `json:"data"`
	SavedAt time.Time       `json:"saved_at"`
}

// Store persists snapshots by key
// ⭐ SSOT: 백업 저장소 인터페이스 (bbolt / PostgreSQL)
type Store interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) (Snapshot, error)
	Prune(ctx context.Context, before time.Time) (int, error)
	Close() error
}

// Snapshot keys
const (
	KeyGlobal    = "global"
	KeyCountries = "countries"
)

// HistoricalKey names the backup of one historical lookup
func HistoricalKey(country string, days int) string {
	return fmt.Sprintf("historical:%s:%d", strings.ToLower(country), days)
}

// VaccineKey names the backup of one vaccine lookup
func VaccineKey(country string) string {
	return "vaccine:" + strings.ToLower(country)
}

// SaveJSON marshals v and saves it under key
func SaveJSON(ctx context.Context, s Store, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", key, err)
	}
	return s.Save(ctx, key, data)
}

// LoadJSON loads key and unmarshals it into dest
func LoadJSON(ctx context.Context, s Store, key string, dest interface{}) (time.Time, error) {
	snap, err := s.Load(ctx, key)
	if err != nil {
		return time.Time{}, err
	}
	if err := json.Unmarshal(snap.Data, dest); err != nil {
		return time.Time{}, fmt.Errorf("unmarshal snapshot %s: %w", key, err)
	}
	return snap.SavedAt, nil
}
