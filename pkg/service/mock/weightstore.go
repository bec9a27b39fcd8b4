package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/studyloop/churn-risk-engine/pkg/factor"
	"github.com/studyloop/churn-risk-engine/pkg/service"
)

// WeightStore is a configurable in-memory implementation of
// service.WeightStore for testing. Safe for concurrent use so tests can
// exercise parallel version allocation.
type WeightStore struct {
	GetLatestVersionFunc func(ctx context.Context) (int, error)
	GetWeightsFunc       func(ctx context.Context, version int) (factor.Weights, error)
	AllocateVersionFunc  func(ctx context.Context) (int, error)

	// Err fails every call when set; WriteErr fails only the write paths.
	Err      error
	WriteErr error

	mu       sync.Mutex
	seq      int
	versions map[int]factor.Weights
	notes    map[int]string
	history  map[string]service.WeightHistoryEntry
	order    []string // history IDs, newest first
}

// NewWeightStore creates an empty mock weight store.
func NewWeightStore() *WeightStore {
	return &WeightStore{
		versions: make(map[int]factor.Weights),
		notes:    make(map[int]string),
		history:  make(map[string]service.WeightHistoryEntry),
	}
}

// Seed installs a weight version directly, advancing the sequence.
func (m *WeightStore) Seed(version int, weights factor.Weights) *WeightStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[version] = weights.Clone()
	if version > m.seq {
		m.seq = version
	}
	return m
}

func (m *WeightStore) GetLatestVersion(ctx context.Context) (int, error) {
	if m.GetLatestVersionFunc != nil {
		return m.GetLatestVersionFunc(ctx)
	}
	if m.Err != nil {
		return 0, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	latest := 0
	for v := range m.versions {
		if v > latest {
			latest = v
		}
	}
	return latest, nil
}

func (m *WeightStore) GetWeights(ctx context.Context, version int) (factor.Weights, error) {
	if m.GetWeightsFunc != nil {
		return m.GetWeightsFunc(ctx, version)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.versions[version]
	if !ok {
		return nil, fmt.Errorf("weight version %d: %w", version, service.ErrNotFound)
	}
	return w.Clone(), nil
}

func (m *WeightStore) AllocateVersion(ctx context.Context) (int, error) {
	if m.AllocateVersionFunc != nil {
		return m.AllocateVersionFunc(ctx)
	}
	if m.Err != nil {
		return 0, m.Err
	}
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq, nil
}

func (m *WeightStore) InsertWeightVersion(ctx context.Context, version int, weights factor.Weights, note string) error {
	if m.Err != nil {
		return m.Err
	}
	if m.WriteErr != nil {
		return m.WriteErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.versions[version]; exists {
		return fmt.Errorf("weight version %d already exists", version)
	}
	m.versions[version] = weights.Clone()
	m.notes[version] = note
	return nil
}

func (m *WeightStore) InsertHistoryEntry(ctx context.Context, entry *service.WeightHistoryEntry) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if m.WriteErr != nil {
		return "", m.WriteErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	stored := *entry
	stored.OldWeights = entry.OldWeights.Clone()
	stored.NewWeights = entry.NewWeights.Clone()
	m.history[entry.ID] = stored
	m.order = append([]string{entry.ID}, m.order...)
	return entry.ID, nil
}

func (m *WeightStore) GetHistoryEntry(ctx context.Context, id string) (*service.WeightHistoryEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.history[id]
	if !ok {
		return nil, fmt.Errorf("history entry %s: %w", id, service.ErrNotFound)
	}
	out := entry
	out.OldWeights = entry.OldWeights.Clone()
	out.NewWeights = entry.NewWeights.Clone()
	return &out, nil
}

func (m *WeightStore) ListHistory(ctx context.Context, limit int) ([]service.WeightHistoryEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make([]service.WeightHistoryEntry, 0, limit)
	for _, id := range m.order {
		if len(entries) >= limit {
			break
		}
		entries = append(entries, m.history[id])
	}
	return entries, nil
}
