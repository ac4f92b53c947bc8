package dice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/diceduel/internal/model"
)

func TestRollStaysOnTheDie(t *testing.T) {
	r := New()
	for range 200 {
		v := r.Roll()
		assert.True(t, model.ValidRoll(v), "rolled %d", v)
	}
}
