package game

// combatLogTail bounds how much of the log a view exposes.
const combatLogTail = 20

// SessionView is the caller-facing projection of an encounter, returned by
// every invocation.
type SessionView struct {
	SessionID           string        `json:"session_id"`
	ScenarioName        string        `json:"scenario_name"`
	Status              string        `json:"status"`
	RoundNumber         int           `json:"round_number"`
	CurrentActorID      string        `json:"current_actor_id"`
	LastNarration       string        `json:"last_narration"`
	RequiresPlayerInput bool          `json:"requires_player_input"`
	FightEnded          bool          `json:"fight_ended"`
	CombatLog           []string      `json:"combat_log"`
	Participants        []Participant `json:"participants"`
}

// NewSessionView builds the display projection from the encounter record.
func NewSessionView(e *Encounter) *SessionView {
	tail := e.CombatLog
	if len(tail) > combatLogTail {
		tail = tail[len(tail)-combatLogTail:]
	}
	return &SessionView{
		SessionID:           e.SessionID,
		ScenarioName:        e.ScenarioName,
		Status:              e.Status,
		RoundNumber:         e.RoundNumber,
		CurrentActorID:      e.CurrentActorID(),
		LastNarration:       e.LastNarration,
		RequiresPlayerInput: e.RequiresPlayerInput,
		FightEnded:          e.FightEnded,
		CombatLog:           tail,
		Participants:        e.Participants,
	}
}
