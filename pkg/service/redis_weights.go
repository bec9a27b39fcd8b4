// Copyright (c) 2025 StudyLoop Inc. All Rights Reserved.
// This is licensed software from StudyLoop Inc, for limitations
// and restrictions contact your company contract manager.

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/studyloop/churn-risk-engine/pkg/factor"
)

// advanceLatestScript moves the latest-version pointer forward only,
// atomically with respect to concurrent writers.
var advanceLatestScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local candidate = tonumber(ARGV[1])
if candidate > current then
	redis.call('SET', KEYS[1], ARGV[1])
	return 1
end
return 0
`)

const (
	weightSeqKey         = "churn_risk:weights:seq"
	weightLatestKey      = "churn_risk:weights:latest"
	weightVersionKeyFmt  = "churn_risk:weights:version:%d"
	weightHistoryListKey = "churn_risk:weights:history"
	weightHistoryKeyFmt  = "churn_risk:weights:history:%s"
)

// RedisWeightStore implements WeightStore on Redis. Version rows and
// history entries are JSON values without TTL: they are the audit trail
// and must never expire.
type RedisWeightStore struct {
	client *redis.Client
	cfg    RedisWeightStoreConfig
}

type RedisWeightStoreConfig struct{}

// NewRedisWeightStore creates a new Redis-backed weight store.
func NewRedisWeightStore(client *redis.Client, cfg RedisWeightStoreConfig) *RedisWeightStore {
	return &RedisWeightStore{
		client: client,
		cfg:    cfg,
	}
}

// weightVersionRow is the persisted shape of one weight version.
type weightVersionRow struct {
	Version   int            `json:"version"`
	Weights   factor.Weights `json:"weights"`
	Note      string         `json:"note"`
	CreatedAt time.Time      `json:"createdAt"`
}

// GetLatestVersion returns the highest fully persisted version, 0 if none.
func (r *RedisWeightStore) GetLatestVersion(ctx context.Context) (int, error) {
	version, err := r.client.Get(ctx, weightLatestKey).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get latest weight version: %w", err)
	}
	return version, nil
}

// GetWeights returns the weight map persisted under a version.
func (r *RedisWeightStore) GetWeights(ctx context.Context, version int) (factor.Weights, error) {
	key := fmt.Sprintf(weightVersionKeyFmt, version)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("weight version %d: %w", version, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get weight version %d: %w", version, err)
	}

	var row weightVersionRow
	if err := json.Unmarshal([]byte(data), &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weight version %d: %w", version, err)
	}

	return row.Weights, nil
}

// AllocateVersion reserves the next version number via an atomic INCR on
// the sequence key. Concurrent updates can never collide on a version.
func (r *RedisWeightStore) AllocateVersion(ctx context.Context) (int, error) {
	version, err := r.client.Incr(ctx, weightSeqKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate weight version: %w", err)
	}
	return int(version), nil
}

// InsertWeightVersion persists an immutable weight set under an allocated
// version. Existing versions are never overwritten.
func (r *RedisWeightStore) InsertWeightVersion(ctx context.Context, version int, weights factor.Weights, note string) error {
	key := fmt.Sprintf(weightVersionKeyFmt, version)

	row := weightVersionRow{
		Version:   version,
		Weights:   weights,
		Note:      note,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal weight version %d: %w", version, err)
	}

	set, err := r.client.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to persist weight version %d: %w", version, err)
	}
	if !set {
		return fmt.Errorf("weight version %d already exists", version)
	}

	// Advance the latest pointer only forward. The compare and the set
	// run as one script so a concurrent writer persisting a higher
	// version cannot be overtaken by a lower one landing last.
	if err := advanceLatestScript.Run(ctx, r.client, []string{weightLatestKey}, version).Err(); err != nil {
		return fmt.Errorf("failed to advance latest weight version: %w", err)
	}

	logrus.Infof("persisted weight version %d (%s)", version, note)
	return nil
}

// InsertHistoryEntry persists one audit entry and indexes it newest-first.
func (r *RedisWeightStore) InsertHistoryEntry(ctx context.Context, entry *WeightHistoryEntry) (string, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("failed to marshal history entry: %w", err)
	}

	key := fmt.Sprintf(weightHistoryKeyFmt, entry.ID)
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return "", fmt.Errorf("failed to persist history entry: %w", err)
	}
	if err := r.client.LPush(ctx, weightHistoryListKey, entry.ID).Err(); err != nil {
		return "", fmt.Errorf("failed to index history entry: %w", err)
	}

	logrus.Infof("recorded weight history entry %s for version %d", entry.ID, entry.Version)
	return entry.ID, nil
}

// GetHistoryEntry returns a history entry by ID.
func (r *RedisWeightStore) GetHistoryEntry(ctx context.Context, id string) (*WeightHistoryEntry, error) {
	key := fmt.Sprintf(weightHistoryKeyFmt, id)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("history entry %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history entry %s: %w", id, err)
	}

	var entry WeightHistoryEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history entry %s: %w", id, err)
	}
	return &entry, nil
}

// ListHistory returns up to limit entries, newest first.
func (r *RedisWeightStore) ListHistory(ctx context.Context, limit int) ([]WeightHistoryEntry, error) {
	if limit <= 0 {
		return nil, nil
	}

	ids, err := r.client.LRange(ctx, weightHistoryListKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}

	entries := make([]WeightHistoryEntry, 0, len(ids))
	for _, id := range ids {
		entry, err := r.GetHistoryEntry(ctx, id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}
