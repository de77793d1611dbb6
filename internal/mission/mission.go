// Package mission generates the wake-up challenge content a ringing
// alarm presents before it can be dismissed.
package mission

import (
	"fmt"
	"math/rand"

	"github.com/awakeful/alarmd/internal/model"
)

// Name returns the display label for a mission type.
func Name(t model.MissionType) string {
	switch t {
	case model.MissionNone:
		return "None"
	case model.MissionMath:
		return "Math Problem"
	case model.MissionShake:
		return "Shake Phone"
	case model.MissionPhoto:
		return "Take Photo"
	case model.MissionBarcode:
		return "Scan Barcode"
	case model.MissionMemory:
		return "Memory Game"
	case model.MissionWalk:
		return "Walk Steps"
	case model.MissionObjectFind:
		return "Find Object"
	case model.MissionSing:
		return "Sing Along"
	case model.MissionRiddle:
		return "Solve Riddle"
	default:
		return string(t)
	}
}

// MathProblem is a single arithmetic question with its expected answer.
type MathProblem struct {
	Question string `json:"question"`
	Answer   int    `json:"answer"`
}

// GenerateMath produces an arithmetic problem scaled to difficulty.
// Easy is addition and subtraction of small numbers, medium adds
// multiplication, hard uses larger operands throughout. Subtraction
// operands are ordered so the answer is never negative.
func GenerateMath(difficulty model.Difficulty, rng *rand.Rand) MathProblem {
	switch difficulty {
	case model.DifficultyEasy:
		a := rng.Intn(20) + 1
		b := rng.Intn(20) + 1
		if rng.Intn(2) == 0 {
			return MathProblem{Question: fmt.Sprintf("%d + %d", a, b), Answer: a + b}
		}
		if a < b {
			a, b = b, a
		}
		return MathProblem{Question: fmt.Sprintf("%d - %d", a, b), Answer: a - b}
	case model.DifficultyHard:
		switch rng.Intn(3) {
		case 0:
			a := rng.Intn(100) + 20
			b := rng.Intn(100) + 20
			return MathProblem{Question: fmt.Sprintf("%d + %d", a, b), Answer: a + b}
		case 1:
			a := rng.Intn(100) + 20
			b := rng.Intn(100) + 20
			if a < b {
				a, b = b, a
			}
			return MathProblem{Question: fmt.Sprintf("%d - %d", a, b), Answer: a - b}
		default:
			a := rng.Intn(20) + 5
			b := rng.Intn(20) + 5
			return MathProblem{Question: fmt.Sprintf("%d × %d", a, b), Answer: a * b}
		}
	default: // medium
		switch rng.Intn(3) {
		case 0:
			a := rng.Intn(50) + 10
			b := rng.Intn(50) + 10
			return MathProblem{Question: fmt.Sprintf("%d + %d", a, b), Answer: a + b}
		case 1:
			a := rng.Intn(50) + 10
			b := rng.Intn(50) + 10
			if a < b {
				a, b = b, a
			}
			return MathProblem{Question: fmt.Sprintf("%d - %d", a, b), Answer: a - b}
		default:
			a := rng.Intn(12) + 2
			b := rng.Intn(12) + 2
			return MathProblem{Question: fmt.Sprintf("%d × %d", a, b), Answer: a * b}
		}
	}
}

// ShakeThreshold is the number of shakes required at the given difficulty.
func ShakeThreshold(difficulty model.Difficulty) int {
	switch difficulty {
	case model.DifficultyEasy:
		return 20
	case model.DifficultyHard:
		return 100
	default:
		return 50
	}
}

// MemorySequenceLength is how many tiles the memory game shows at the
// given difficulty.
func MemorySequenceLength(difficulty model.Difficulty) int {
	switch difficulty {
	case model.DifficultyEasy:
		return 4
	case model.DifficultyHard:
		return 8
	default:
		return 6
	}
}
