package relay

import (
	"context"
	"sort"
	"sync"

	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
)

// Role is a participant's permission tier
type Role string

const (
	RoleGM        Role = "gm"
	RoleAssistant Role = "assistant"
	RolePlayer    Role = "player"
)

// Participant is a connected session member
type Participant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Active bool   `json:"active"`
}

// IsGM reports whether the participant holds the authoritative role
func (p Participant) IsGM() bool {
	return p.Role == RoleGM
}

// Presence tracks who is connected
type Presence interface {
	Join(ctx context.Context, p Participant) error
	Leave(ctx context.Context, participantID string) error
	List(ctx context.Context) ([]Participant, error)
}

// ActiveGM picks the authoritative participant: the first active GM by ID.
// Returns nil when no GM is online.
func ActiveGM(participants []Participant) *Participant {
	sorted := append([]Participant(nil), participants...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for i := range sorted {
		if sorted[i].Active && sorted[i].IsGM() {
			return &sorted[i]
		}
	}
	return nil
}

// memoryPresence is a Presence shared by relays in one process
type memoryPresence struct {
	mu           sync.RWMutex
	participants map[string]Participant
}

// NewMemoryPresence creates an in-process presence table
func NewMemoryPresence() Presence {
	return &memoryPresence{participants: make(map[string]Participant)}
}

func (m *memoryPresence) Join(ctx context.Context, p Participant) error {
	if p.ID == "" {
		return dherr.InvalidArgumentf("participant ID is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p.Active = true
	m.participants[p.ID] = p
	return nil
}

func (m *memoryPresence) Leave(ctx context.Context, participantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.participants[participantID]; ok {
		p.Active = false
		m.participants[participantID] = p
	}
	return nil
}

func (m *memoryPresence) List(ctx context.Context) ([]Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Participant, 0, len(m.participants))
	for _, p := range m.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
