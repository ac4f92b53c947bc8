package ids

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mcoot/diceduel/internal/dependencies/clock"
	"github.com/mcoot/diceduel/internal/model"
)

// Generator issues game identifiers that sort in creation order
type Generator interface {
	NewGameID() model.GameID
}

// ULIDGenerator issues ULIDs. Entropy is monotonic within the same
// millisecond so ids created back to back still sort correctly.
type ULIDGenerator struct {
	clock clock.Clock

	mu      sync.Mutex
	entropy io.Reader
}

// New creates a ULIDGenerator reading time from clk
func New(clk clock.Clock) *ULIDGenerator {
	return &ULIDGenerator{
		clock:   clk,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewGameID returns a fresh, lexicographically sortable game id
func (g *ULIDGenerator) NewGameID() model.GameID {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
	return model.GameID(id.String())
}

func (g *ULIDGenerator) now() time.Time {
	if g.clock == nil {
		return time.Now()
	}
	return g.clock.Now()
}
