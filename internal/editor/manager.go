// Package editor holds open editing sessions for passages. A session owns the
// working copy of both text buffers and the zone registry derived from them;
// calls against one session are serialized.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mind-engage/ielts-studio/internal/eventlog"
	"github.com/mind-engage/ielts-studio/internal/passage"
	"github.com/mind-engage/ielts-studio/internal/zones"
)

var ErrSessionNotFound = errors.New("editor session not found")

const DefaultTTL = 2 * time.Hour

type Snapshot struct {
	ID        string         `json:"id"`
	PassageID string         `json:"passage_id"`
	Owner     string         `json:"owner"`
	Title     string         `json:"title"`
	Text      zones.DualText `json:"text"`
	Registry  zones.Registry `json:"registry"`
	Dirty     bool           `json:"dirty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type session struct {
	mu      sync.Mutex
	id      string
	owner   string
	base    passage.Passage
	text    zones.DualText
	reg     zones.Registry
	dirty   bool
	touched time.Time
}

func (s *session) snapshot() Snapshot {
	return Snapshot{
		ID:        s.id,
		PassageID: s.base.ID,
		Owner:     s.owner,
		Title:     s.base.Title,
		Text:      s.text,
		Registry:  s.reg,
		Dirty:     s.dirty,
		UpdatedAt: s.touched,
	}
}

type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session

	store  passage.Store
	events eventlog.Appender
	log    zerolog.Logger
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Manager)

func WithTTL(d time.Duration) Option        { return func(m *Manager) { m.ttl = d } }
func WithEvents(a eventlog.Appender) Option { return func(m *Manager) { m.events = a } }
func WithLogger(l zerolog.Logger) Option    { return func(m *Manager) { m.log = l } }
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

func NewManager(store passage.Store, opts ...Option) *Manager {
	m := &Manager{
		sessions: map[string]*session{},
		store:    store,
		events:   eventlog.Discard{},
		log:      zerolog.Nop(),
		ttl:      DefaultTTL,
		now:      time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Open loads a passage into a new session and builds its registry from the
// stored primary text.
func (m *Manager) Open(ctx context.Context, passageID, owner string) (Snapshot, error) {
	p, err := m.store.Get(ctx, passageID)
	if err != nil {
		return Snapshot{}, err
	}
	s := &session{
		id:      uuid.NewString(),
		owner:   owner,
		base:    p,
		text:    p.Text(),
		reg:     zones.Sync(p.Content),
		touched: m.now(),
	}
	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.log.Debug().Str("session", s.id).Str("passage", p.ID).Int("zones", s.reg.Len()).Msg("session opened")
	return s.snapshot(), nil
}

func (m *Manager) Get(id string) (Snapshot, error) {
	var snap Snapshot
	err := m.with(id, false, func(s *session) error {
		snap = s.snapshot()
		return nil
	})
	return snap, err
}

// SetContent replaces one buffer. A new primary text re-syncs the registry,
// which drops zones that were added but never placed.
func (m *Manager) SetContent(id string, b zones.Buffer, text string) (Snapshot, error) {
	var snap Snapshot
	err := m.with(id, true, func(s *session) error {
		if b != zones.BufferPrimary && b != zones.BufferHighlight {
			return fmt.Errorf("%w: %q", zones.ErrUnknownBuffer, b)
		}
		s.text = s.text.With(b, text)
		if b == zones.BufferPrimary {
			s.reg = zones.Sync(text)
		}
		s.dirty = true
		snap = s.snapshot()
		return nil
	})
	return snap, err
}

func (m *Manager) AddZone(id string) (int, Snapshot, error) {
	var (
		zoneID int
		snap   Snapshot
	)
	err := m.with(id, true, func(s *session) error {
		zoneID, s.reg = zones.Add(s.reg)
		snap = s.snapshot()
		return nil
	})
	return zoneID, snap, err
}

func (m *Manager) RemoveZone(ctx context.Context, id string, zoneID int) (zones.RemoveReport, Snapshot, error) {
	var (
		rep  zones.RemoveReport
		snap Snapshot
	)
	err := m.with(id, true, func(s *session) error {
		s.reg, s.text, rep = zones.Remove(s.reg, s.text, zoneID)
		s.dirty = true
		snap = s.snapshot()

		if !rep.InPrimary && !rep.InHighlight {
			m.log.Info().Str("session", s.id).Int("zone", zoneID).Msg("removed zone had no tokens in text")
		}
		m.appendEvent(ctx, s.owner, eventlog.TypeZoneRemoved, s.base.ID, rep)
		return nil
	})
	return rep, snap, err
}

// InsertToken places a zone token in buffer b and returns the cursor
// position after it. Duplicates come back as zones.ErrDuplicateToken with
// the session unchanged.
func (m *Manager) InsertToken(id string, b zones.Buffer, zoneID int, sel zones.Selection) (int, Snapshot, error) {
	var (
		cursor int
		snap   Snapshot
	)
	err := m.with(id, true, func(s *session) error {
		text, c, err := zones.Insert(s.text, b, zoneID, sel)
		if err != nil {
			return err
		}
		s.text, cursor = text, c
		if b == zones.BufferPrimary {
			s.reg = zones.Sync(s.text.Primary)
		}
		s.dirty = true
		snap = s.snapshot()
		return nil
	})
	return cursor, snap, err
}

func (m *Manager) Segments(id string) ([]zones.Segment, error) {
	var segs []zones.Segment
	err := m.with(id, false, func(s *session) error {
		segs = zones.Split(s.text.Primary)
		return nil
	})
	return segs, err
}

// Save writes both buffers back to the passage store. Fields edited elsewhere
// since Open (title, audio) are kept; a deleted passage is not recreated.
func (m *Manager) Save(ctx context.Context, id string) (passage.Passage, error) {
	var saved passage.Passage
	err := m.with(id, true, func(s *session) error {
		out, err := m.store.SetText(ctx, s.base.ID, s.text)
		if err != nil {
			return fmt.Errorf("save passage %s: %w", s.base.ID, err)
		}
		s.base, s.dirty, saved = out, false, out
		m.appendEvent(ctx, s.owner, eventlog.TypePassageSaved, out.ID, map[string]any{
			"session": s.id,
			"zones":   zones.ExtractIDs(out.Content),
		})
		return nil
	})
	return saved, err
}

func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep evicts idle sessions every interval until ctx is done.
func (m *Manager) Sweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.EvictIdle(); n > 0 {
				m.log.Info().Int("evicted", n).Msg("idle editor sessions evicted")
			}
		}
	}
}

// EvictIdle drops sessions untouched for longer than the TTL and returns how
// many were dropped. Unsaved changes are lost.
func (m *Manager) EvictIdle() int {
	cutoff := m.now().Add(-m.ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		s.mu.Lock()
		idle, dirty, passageID := s.touched.Before(cutoff), s.dirty, s.base.ID
		s.mu.Unlock()
		if !idle {
			continue
		}
		if dirty {
			m.log.Warn().Str("session", id).Str("passage", passageID).Msg("evicting session with unsaved changes")
		}
		delete(m.sessions, id)
		n++
	}
	return n
}

func (m *Manager) with(id string, touch bool, fn func(*session) error) error {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s); err != nil {
		return err
	}
	if touch {
		s.touched = m.now()
	}
	return nil
}

func (m *Manager) appendEvent(ctx context.Context, actor, typ, key string, data any) {
	if err := m.events.Append(ctx, eventlog.NewEvent(actor, typ, key, data)); err != nil {
		m.log.Warn().Err(err).Str("type", typ).Str("key", key).Msg("event append failed")
	}
}
