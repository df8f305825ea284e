package cricket

import (
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry maps session ids to their active match. The lock covers the key space only; gameplay is
// serialised by each Match's own mutex.
type Registry struct {
	mu      sync.RWMutex
	matches map[string]*Match
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{matches: make(map[string]*Match), now: time.Now}
}

// Create inserts a new match for sessionID. The initiator is the first player; in cpu mode the scripted
// opponent takes the second slot and the initiator calls the toss.
func (r *Registry) Create(sessionID string, mode Mode, playerID, name string, rules Rules) (*Match, error) {
	sessionID = strings.TrimSpace(sessionID)
	playerID = strings.TrimSpace(playerID)
	if sessionID == "" || playerID == "" || playerID == CPUPlayerID {
		return nil, ErrIllegalAction
	}
	if mode != ModeDuel && mode != ModeCPU {
		return nil, ErrIllegalAction
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.matches[sessionID]; exists {
		return nil, ErrAlreadyActive
	}

	now := r.now()
	m := &Match{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Players:   []string{playerID},
		Names:     map[string]string{playerID: strings.TrimSpace(name)},
		Mode:      mode,
		Phase:     PhaseAwaitingOpponent,
		Rules:     rules.normalized(),
		Pending:   make(map[string]int, 2),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if mode == ModeCPU {
		m.Players = append(m.Players, CPUPlayerID)
		m.Names[CPUPlayerID] = DefaultCPUName
		m.TossCaller = playerID
		m.Phase = PhaseTossPending
	}
	r.matches[sessionID] = m
	return m, nil
}

// Get returns the active match or nil.
func (r *Registry) Get(sessionID string) *Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.matches[strings.TrimSpace(sessionID)]
}

// Remove deletes the session's match. Removing an absent session is a no-op.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	delete(r.matches, strings.TrimSpace(sessionID))
	r.mu.Unlock()
}

// removeIf deletes the entry only while it still points at m, so a late finisher never evicts a newer match.
func (r *Registry) removeIf(m *Match) {
	r.mu.Lock()
	if cur, ok := r.matches[m.SessionID]; ok && cur == m {
		delete(r.matches, m.SessionID)
	}
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matches)
}

// Sessions lists active session ids in sorted order.
func (r *Registry) Sessions() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.matches))
	for k := range r.matches {
		out = append(out, k)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// idle lists matches that have not changed since before.
func (r *Registry) idle(before time.Time) []*Match {
	r.mu.RLock()
	candidates := make([]*Match, 0, len(r.matches))
	for _, m := range r.matches {
		candidates = append(candidates, m)
	}
	r.mu.RUnlock()

	var out []*Match
	for _, m := range candidates {
		m.mu.Lock()
		idle := m.UpdatedAt.Before(before)
		m.mu.Unlock()
		if idle {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out
}

// DuelsInPlay lists the sessions, sorted, where playerID is seated in a duel that is taking balls.
func (r *Registry) DuelsInPlay(playerID string) []string {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil
	}
	r.mu.RLock()
	candidates := make([]*Match, 0, len(r.matches))
	for _, m := range r.matches {
		if m.Mode == ModeDuel {
			candidates = append(candidates, m)
		}
	}
	r.mu.RUnlock()

	var out []string
	for _, m := range candidates {
		m.mu.Lock()
		seated := m.Phase == PhaseInningsActive && slices.Contains(m.Players, playerID)
		m.mu.Unlock()
		if seated {
			out = append(out, m.SessionID)
		}
	}
	sort.Strings(out)
	return out
}
