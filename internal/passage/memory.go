package passage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/ielts-studio/internal/zones"
)

type memoryStore struct {
	mu       sync.RWMutex
	passages map[string]Passage
}

// NewInMemoryStore is used by tests and by the gateway when no database is
// configured.
func NewInMemoryStore() Store {
	return &memoryStore{passages: map[string]Passage{}}
}

func (m *memoryStore) Put(_ context.Context, p Passage) (Passage, error) {
	if err := p.Validate(); err != nil {
		return Passage{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().Unix()
	p.CreatedAt, p.UpdatedAt = now, now
	if old, ok := m.passages[p.ID]; ok {
		p.CreatedAt = old.CreatedAt
	}
	m.passages[p.ID] = p
	return p, nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Passage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.passages[id]
	if !ok {
		return Passage{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryStore) List(_ context.Context, opts ListOpts) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(opts.Q))
	out := []Summary{}
	for _, p := range m.passages {
		if opts.Kind != "" && p.Kind != opts.Kind {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Title), q) {
			continue
		}
		out = append(out, Summary{
			ID:        p.ID,
			Kind:      p.Kind,
			Title:     p.Title,
			ZoneCount: len(zones.ExtractIDs(p.Content)),
			UpdatedAt: p.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return out[i].ID < out[j].ID
	})
	off := min(max(opts.Offset, 0), len(out))
	end := min(off+normalizeLimit(opts.Limit), len(out))
	return out[off:end], nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.passages[id]; !ok {
		return ErrNotFound
	}
	delete(m.passages, id)
	return nil
}

func (m *memoryStore) SetAudio(_ context.Context, id, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.passages[id]
	if !ok {
		return ErrNotFound
	}
	if p.Kind != KindListening {
		return ErrNotListening
	}
	p.AudioKey = key
	p.UpdatedAt = time.Now().Unix()
	m.passages[id] = p
	return nil
}

func (m *memoryStore) SetText(_ context.Context, id string, dt zones.DualText) (Passage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.passages[id]
	if !ok {
		return Passage{}, ErrNotFound
	}
	p.Content, p.HighlightContent = dt.Primary, dt.Highlight
	p.UpdatedAt = time.Now().Unix()
	m.passages[id] = p
	return p, nil
}
