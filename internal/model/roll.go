package model

// RollOutcome classifies the effect of a single roll on a game
type RollOutcome string

const (
	RollInvalid RollOutcome = "invalid" // Out of turn, the game is unchanged
	RollOpen    RollOutcome = "open"    // First roll of a round
	RollTie     RollOutcome = "tie"     // Round replays, nobody scores
	RollWin     RollOutcome = "win"     // Acting side wins the round
	RollLose    RollOutcome = "lose"    // Acting side loses the round
	RollClosed  RollOutcome = "closed"  // Round decided the match, game finished
)

// Score holds cumulative round wins for both sides
type Score struct {
	Challenger int `json:"challenger"`
	Opponent   int `json:"opponent"`
}

// For returns the round wins of one side
func (s Score) For(side Side) int {
	if side == SideChallenger {
		return s.Challenger
	}
	return s.Opponent
}

// Leader returns the side with more round wins, or false when level
func (s Score) Leader() (Side, bool) {
	switch {
	case s.Challenger > s.Opponent:
		return SideChallenger, true
	case s.Opponent > s.Challenger:
		return SideOpponent, true
	}
	return "", false
}

// RollResult is the outcome of applying a roll, paired with the game it was applied to.
// For RollInvalid the game is the unmodified input.
type RollResult struct {
	Outcome RollOutcome
	Game    *Game
	Side    Side
	Value   int
	Score   Score
}

// Winner returns the side that won the match, only meaningful for RollClosed
func (r *RollResult) Winner() (Side, bool) {
	if r.Outcome != RollClosed {
		return "", false
	}
	return r.Score.Leader()
}

// MinRoll and MaxRoll bound the value of a single die
const (
	MinRoll = 1
	MaxRoll = 6
)

// ValidRoll reports whether v is a face of a six-sided die
func ValidRoll(v int) bool {
	return v >= MinRoll && v <= MaxRoll
}
