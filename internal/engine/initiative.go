package engine

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/vohyz/cocFightAgent/internal/dice"
	"github.com/vohyz/cocFightAgent/internal/game"
)

// RollInitiative produces the acting order for one round over the given
// participants. Each participant draws 1d100 and scores roll + (100 - DEX);
// lower scores act first. Ties keep draw order (stable sort). The returned
// log line announces the order. Callers must re-invoke this every round;
// the order is never carried over.
func RollInitiative(participants []game.Participant, rng *rand.Rand) ([]string, string) {
	type entry struct {
		id    string
		score int
	}
	entries := make([]entry, 0, len(participants))
	for i := range participants {
		p := &participants[i]
		res, err := dice.RollWith(rng, "1d100")
		if err != nil {
			// "1d100" is a constant valid notation; this cannot happen.
			continue
		}
		score := res.FinalResult + (100 - p.Stat(game.StatDEX, game.DefaultDEX))
		entries = append(entries, entry{id: p.ID, score: score})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].score < entries[j].score })

	order := make([]string, len(entries))
	for i, e := range entries {
		order[i] = e.id
	}
	line := fmt.Sprintf("Initiative is rolled anew; the order of action: %s", strings.Join(order, ", "))
	return order, line
}
