package mocks

import (
	"github.com/mcoot/diceduel/internal/dependencies/dice"
)

// MockRoller is a mock implementation of dice.Roller for testing
type MockRoller struct {
	// Results is a queue of values to return from Roll
	Results []int
	index   int
}

// Ensure MockRoller implements Roller
var _ dice.Roller = (*MockRoller)(nil)

// NewMockRoller creates a MockRoller returning the given values in order
func NewMockRoller(values ...int) *MockRoller {
	return &MockRoller{Results: values}
}

// Roll returns the next queued value, or 1 if none remaining
func (r *MockRoller) Roll() int {
	if r.index >= len(r.Results) {
		return 1
	}
	v := r.Results[r.index]
	r.index++
	return v
}

// Queue adds values to the result queue
func (r *MockRoller) Queue(values ...int) {
	r.Results = append(r.Results, values...)
}
