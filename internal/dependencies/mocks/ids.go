package mocks

import (
	"fmt"

	"github.com/mcoot/diceduel/internal/dependencies/ids"
	"github.com/mcoot/diceduel/internal/model"
)

// MockIDs is a mock implementation of ids.Generator for testing.
// Queued ids are returned first, after that sequential ids "G0001", "G0002"...
type MockIDs struct {
	queued []model.GameID
	next   int
}

// Ensure MockIDs implements Generator
var _ ids.Generator = (*MockIDs)(nil)

// NewMockIDs creates a new MockIDs
func NewMockIDs() *MockIDs {
	return &MockIDs{}
}

// NewGameID returns the next queued id or a sequential one
func (m *MockIDs) NewGameID() model.GameID {
	if len(m.queued) > 0 {
		id := m.queued[0]
		m.queued = m.queued[1:]
		return id
	}
	m.next++
	return model.GameID(fmt.Sprintf("G%04d", m.next))
}

// Queue adds ids to return before falling back to sequential ones
func (m *MockIDs) Queue(values ...model.GameID) {
	m.queued = append(m.queued, values...)
}
