package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ariefcatur/go-skip-selector/internal/selection"
	"github.com/ariefcatur/go-skip-selector/internal/skips"
	"github.com/ariefcatur/go-skip-selector/internal/viewport"
	"github.com/google/uuid"
)

// Session pairs a controller with the viewport mirror its client feeds.
type Session struct {
	*Controller
	Screen *viewport.Screen

	lastSeen time.Time
}

type ManagerConfig struct {
	Source   Source
	Slot     selection.Slot
	Emitter  Emitter
	Producer string
	Defaults skips.Query
}

// Manager owns every live session of the process.
type Manager struct {
	cfg ManagerConfig
	ctx context.Context // lifetime of background loads

	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewManager(ctx context.Context, cfg ManagerConfig) *Manager {
	return &Manager{cfg: cfg, ctx: ctx, sessions: map[string]*Session{}, now: time.Now}
}

// Create opens a session for clientID (a fresh one when empty) and starts
// loading its catalog in the background.
func (m *Manager) Create(ctx context.Context, clientID string, q skips.Query) (*Session, error) {
	q = q.WithDefaults(m.cfg.Defaults)
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if clientID == "" {
		clientID = uuid.NewString()
	}
	screen := viewport.NewScreen()
	ctl := New(Options{
		SessionID: uuid.NewString(),
		ClientID:  clientID,
		Query:     q,
		Producer:  m.cfg.Producer,
	}, Deps{
		Source:  m.cfg.Source,
		Store:   selection.Open(ctx, m.cfg.Slot, selection.Key(clientID)),
		Tracker: viewport.NewTracker(screen, screen, ModeInteractive.AnchorID()),
		Emitter: m.cfg.Emitter,
	})
	s := &Session{Controller: ctl, Screen: screen, lastSeen: m.now()}

	m.mu.Lock()
	m.sessions[ctl.ID()] = s
	m.mu.Unlock()

	go func() {
		if err := ctl.Start(m.ctx); err != nil {
			log.Printf("session %s: start: %v", ctl.ID(), err)
		}
	}()
	return s, nil
}

// Context bounds background work started on behalf of sessions.
func (m *Manager) Context() context.Context { return m.ctx }

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if ok {
		s.lastSeen = m.now()
	}
	return s, ok
}

func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}

// Sweep closes sessions not touched for maxIdle. Their selection stays
// persisted, so the client gets it back on the next session.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)
	var idle []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, s := range idle {
		s.Close()
	}
	return len(idle)
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = map[string]*Session{}
	m.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
