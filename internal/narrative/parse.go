package narrative

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/vohyz/cocFightAgent/internal/game"
)

var fencedJSONRegex = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// outcomeWire mirrors the JSON blob the collaborator is prompted to return.
type outcomeWire struct {
	IsValid             bool               `json:"isValid"`
	Description         string             `json:"description"`
	Result              []game.Participant `json:"result"`
	RequiresPlayerInput bool               `json:"requiresPlayerInput"`
	TempActorID         string             `json:"temp_actor_id"`
}

// extractOutcome parses a collaborator response that may be a fenced JSON
// block, a bare JSON object, or free text. On free text the whole response
// becomes the description; validated defaults to the fallback validity for
// the calling handler (true for monster turns, false for player actions,
// where an unparsed response must never pass as an accepted action).
func extractOutcome(raw string, fallbackValid bool) *Outcome {
	if w, ok := decodeOutcome(raw); ok {
		return &Outcome{
			Description:         w.Description,
			Result:              w.Result,
			RequiresPlayerInput: w.RequiresPlayerInput,
			TempActorID:         w.TempActorID,
			IsValid:             w.IsValid,
		}
	}
	return &Outcome{
		Description: strings.TrimSpace(raw),
		IsValid:     fallbackValid,
	}
}

func decodeOutcome(raw string) (*outcomeWire, bool) {
	candidate := strings.TrimSpace(raw)
	if m := fencedJSONRegex.FindStringSubmatch(candidate); m != nil {
		candidate = m[1]
	}
	if !strings.HasPrefix(candidate, "{") {
		return nil, false
	}
	var w outcomeWire
	if err := json.Unmarshal([]byte(candidate), &w); err != nil {
		return nil, false
	}
	return &w, true
}
