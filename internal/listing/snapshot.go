package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/iliyamo/movie-storefront/internal/logger"
	"github.com/iliyamo/movie-storefront/internal/storage"
)

// SnapshotKey is the session-storage entry holding the last listing state.
const SnapshotKey = "movie_list_state"

// MaxSnapshotAge bounds how long a snapshot can be restored.
const MaxSnapshotAge = time.Hour

// Snapshot is the persisted listing state.  Timestamp is in milliseconds.
type Snapshot struct {
	SearchParams string `json:"searchParams"`
	Limit        int    `json:"limit"`
	Offset       int    `json:"offset"`
	Timestamp    int64  `json:"timestamp"`
}

// Snapshots saves and restores listing state per browser session.
type Snapshots struct {
	kv  storage.KV
	now func() time.Time
}

// NewSnapshots stores snapshots in kv, normally session storage.
func NewSnapshots(kv storage.KV) *Snapshots {
	return &Snapshots{kv: kv, now: time.Now}
}

// Save records q for session.
func (s *Snapshots) Save(ctx context.Context, session string, q Query) error {
	raw, err := json.Marshal(Snapshot{
		SearchParams: q.Encode(),
		Limit:        q.Limit,
		Offset:       q.Offset,
		Timestamp:    s.now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, storage.Key(session, SnapshotKey), string(raw)); err != nil {
		return fmt.Errorf("save listing snapshot: %w", err)
	}
	return nil
}

// Load returns the session's snapshot if one exists and is younger than
// MaxSnapshotAge.  Expired or unreadable snapshots are removed.
func (s *Snapshots) Load(ctx context.Context, session string) (Query, bool, error) {
	key := storage.Key(session, SnapshotKey)
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return Query{}, false, fmt.Errorf("load listing snapshot: %w", err)
	}
	if !ok {
		return Query{}, false, nil
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		logger.From(ctx).Warn("discarding unreadable listing snapshot", "session", session, "err", err)
		return Query{}, false, s.kv.Delete(ctx, key)
	}
	age := s.now().Sub(time.UnixMilli(snap.Timestamp))
	if age > MaxSnapshotAge {
		return Query{}, false, s.kv.Delete(ctx, key)
	}

	v, err := url.ParseQuery(snap.SearchParams)
	if err != nil {
		logger.From(ctx).Warn("discarding unreadable listing snapshot", "session", session, "err", err)
		return Query{}, false, s.kv.Delete(ctx, key)
	}
	return Parse(v), true, nil
}

// Clear removes the session's snapshot.
func (s *Snapshots) Clear(ctx context.Context, session string) error {
	return s.kv.Delete(ctx, storage.Key(session, SnapshotKey))
}
