package dice

import (
	"crypto/rand"
	"math/big"

	"github.com/mcoot/diceduel/internal/model"
)

// Roller rolls a six-sided die. Chat platforms normally roll on the user's
// behalf; the server only rolls when the adapter leaves the value out.
type Roller interface {
	Roll() int
}

// CryptoRoller implements Roller using crypto/rand
type CryptoRoller struct{}

// New creates a new CryptoRoller
func New() *CryptoRoller {
	return &CryptoRoller{}
}

// Roll returns a uniformly distributed value in [1, 6]
func (r *CryptoRoller) Roll() int {
	faces := big.NewInt(model.MaxRoll - model.MinRoll + 1)
	n, err := rand.Int(rand.Reader, faces)
	if err != nil {
		// crypto/rand only fails if the OS entropy source is broken
		return model.MinRoll
	}
	return int(n.Int64()) + model.MinRoll
}
