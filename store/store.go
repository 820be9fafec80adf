// Package store keeps analysis results by id so the http server can hand them
// out again.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/jsphweid/midiscan/export"
	"github.com/jsphweid/midiscan/model"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("analysis not found")

type Store interface {
	Put(ctx context.Context, id string, res model.AnalysisResult) error
	// Get returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (model.AnalysisResult, error)
	// GetMany skips unknown ids.
	GetMany(ctx context.Context, ids []string) (map[string]model.AnalysisResult, error)
}

// Memory keeps encoded results in a map. Results are stored as json so
// callers never share state with the store.
type Memory struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

func (m *Memory) Put(ctx context.Context, id string, res model.AnalysisResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return errors.Wrapf(err, "encode %s", id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id] = payload
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (model.AnalysisResult, error) {
	m.mu.RLock()
	payload, ok := m.items[id]
	m.mu.RUnlock()
	if !ok {
		return model.AnalysisResult{}, ErrNotFound
	}
	return decode(payload)
}

func (m *Memory) GetMany(ctx context.Context, ids []string) (map[string]model.AnalysisResult, error) {
	res := make(map[string]model.AnalysisResult, len(ids))
	for _, id := range ids {
		r, err := m.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		res[id] = r
	}
	return res, nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func decode(payload []byte) (model.AnalysisResult, error) {
	return export.ReadJSON(bytes.NewReader(payload))
}
