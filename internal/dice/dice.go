package dice

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
)

// ErrInvalidNotation is returned for any notation the grammar rejects,
// including zero dice counts and zero-sided dice.
var ErrInvalidNotation = errors.New("invalid dice notation")

var notationRegex = regexp.MustCompile(`^(\d+)d(\d+)([+-]\d+)?$`)

// Result is the flat record produced by one roll.
type Result struct {
	Notation    string `json:"notation"`
	Rolls       []int  `json:"rolls"`
	Total       int    `json:"total"`
	Modifier    int    `json:"modifier"`
	FinalResult int    `json:"final_result"`
}

// Roll parses notation like "1d20", "2d6+3" or "1d100-5" and evaluates it
// with the shared random source. Each call draws fresh rolls.
func Roll(notation string) (Result, error) {
	return roll(notation, rand.Intn)
}

// RollWith evaluates the notation using the provided source, so callers
// that need reproducible rolls can seed their own.
func RollWith(r *rand.Rand, notation string) (Result, error) {
	return roll(notation, r.Intn)
}

func roll(notation string, intn func(int) int) (Result, error) {
	m := notationRegex.FindStringSubmatch(notation)
	if m == nil {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
	}
	count, err := strconv.Atoi(m[1])
	if err != nil {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
	}
	sides, err := strconv.Atoi(m[2])
	if err != nil {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
	}
	modifier := 0
	if m[3] != "" {
		modifier, err = strconv.Atoi(m[3])
		if err != nil {
			return Result{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
		}
	}
	if count <= 0 || sides <= 0 {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
	}

	rolls := make([]int, count)
	total := 0
	for i := range rolls {
		rolls[i] = intn(sides) + 1
		total += rolls[i]
	}

	return Result{
		Notation:    notation,
		Rolls:       rolls,
		Total:       total,
		Modifier:    modifier,
		FinalResult: total + modifier,
	}, nil
}
