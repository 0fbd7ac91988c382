// internal/store/memory.go
//
// Persistence for the current session identifier.
// The client keeps exactly one value: the id of the game it is playing, so a
// restart can resume it. Implementations swallow their own failures (log and
// report "nothing stored"); losing the slot only costs the player a resume.
//
// This file holds the interface and the in-memory implementation, which is
// used in tests and as the fallback when durable storage cannot be opened.

package store

import (
	"context"
	"net/url"
	"strings"
	"sync"
)

// Key is the name of the persisted slot.
const Key = "numerito_game_id"

// Store holds the single session identifier slot.
type Store interface {
	// Read returns the persisted identifier, or ok=false if none
	// (or if storage failed).
	Read(ctx context.Context) (id string, ok bool)

	// Write replaces the persisted identifier.
	Write(ctx context.Context, id string)

	// Clear removes the persisted identifier.
	Clear(ctx context.Context)
}

// memory is a mutex-guarded single slot.
type memory struct {
	mu sync.RWMutex
	id string
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() Store {
	return &memory{}
}

func (m *memory) Read(ctx context.Context) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.id, m.id != ""
}

func (m *memory) Write(ctx context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = id
}

func (m *memory) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = ""
}

// Origin reduces an API base URL to scheme://host[:port], the scope under
// which durable stores file the slot. Unparseable input is returned trimmed.
func Origin(baseURL string) string {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimSpace(baseURL)
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}
