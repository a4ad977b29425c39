package selection

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/ariefcatur/go-skip-selector/internal/skips"
)

// NamespaceKey is the fixed slot key; Key scopes it per client.
const NamespaceKey = "skip-selection-storage"

const docVersion = 0

func Key(clientID string) string {
	if clientID == "" {
		return NamespaceKey
	}
	return NamespaceKey + ":" + clientID
}

type document struct {
	Version      int         `json:"version"`
	SelectedSkip *skips.Skip `json:"selected_skip"`
}

// Store holds at most one selected skip and writes every change through
// to its Slot. Slot failures are absorbed: the store keeps working in
// memory for the rest of its life.
type Store struct {
	mu       sync.Mutex
	slot     Slot
	key      string
	selected *skips.Skip
	degraded bool
}

// Open restores the last persisted selection for key, if any.
func Open(ctx context.Context, slot Slot, key string) *Store {
	s := &Store{slot: slot, key: key}
	if slot == nil {
		s.degraded = true
		return s
	}

	b, ok, err := slot.Get(ctx, key)
	if err != nil {
		s.degrade(&skips.StorageError{Op: "read", Key: key, Err: err})
		return s
	}
	if !ok {
		return s
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		log.Printf("selection %s: ignoring unreadable document: %v", key, err)
		return s
	}
	s.selected = doc.SelectedSkip
	return s
}

func (s *Store) Selected() (skips.Skip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return skips.Skip{}, false
	}
	return *s.selected, true
}

// Select replaces the selection unconditionally.
func (s *Store) Select(ctx context.Context, skip skips.Skip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(ctx, &skip)
}

// Toggle clears the selection when skip is already selected, otherwise
// selects it. Reports whether skip is selected afterwards.
func (s *Store) Toggle(ctx context.Context, skip skips.Skip) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != nil && s.selected.ID == skip.ID {
		s.set(ctx, nil)
		return false
	}
	s.set(ctx, &skip)
	return true
}

func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(ctx, nil)
}

// Degraded reports whether persistence was given up for this store.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// set must be called with mu held. The slot write completes before return.
func (s *Store) set(ctx context.Context, skip *skips.Skip) {
	s.selected = skip
	if s.degraded {
		return
	}
	b, err := json.Marshal(document{Version: docVersion, SelectedSkip: skip})
	if err != nil {
		s.degrade(&skips.StorageError{Op: "encode", Key: s.key, Err: err})
		return
	}
	if err := s.slot.Put(ctx, s.key, b); err != nil {
		s.degrade(&skips.StorageError{Op: "write", Key: s.key, Err: err})
	}
}

func (s *Store) degrade(err error) {
	s.degraded = true
	log.Printf("%v; continuing without persistence", err)
}
