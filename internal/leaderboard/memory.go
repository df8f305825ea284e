package leaderboard

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/park285/Cheese-Cricket-bot/internal/cricket"
)

// Memory is a development-only in-process leaderboard used when no store is configured.
type Memory struct {
	mu   sync.RWMutex
	rows map[string]cricket.Standing
}

func NewMemory() *Memory {
	return &Memory{rows: make(map[string]cricket.Standing)}
}

func (m *Memory) IncrementWin(_ context.Context, participantID, name string) error {
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return ErrEmptyParticipant
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.rows[participantID]
	row.ParticipantID = participantID
	if n := strings.TrimSpace(name); n != "" {
		row.Name = n
	}
	row.Wins++
	m.rows[participantID] = row
	return nil
}

func (m *Memory) TopN(_ context.Context, n int) ([]cricket.Standing, error) {
	m.mu.RLock()
	out := make([]cricket.Standing, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	m.mu.RUnlock()
	sortStandings(out)
	return limit(out, n), nil
}

// sortStandings orders by wins descending, ties by participant id.
func sortStandings(rows []cricket.Standing) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Wins != rows[j].Wins {
			return rows[i].Wins > rows[j].Wins
		}
		return rows[i].ParticipantID < rows[j].ParticipantID
	})
}

func limit(rows []cricket.Standing, n int) []cricket.Standing {
	if n > 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}
