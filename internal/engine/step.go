package engine

// step enumerates the sequencer states. Each state has one transition
// function; the Run loop dispatches on the current step until a terminal
// suspension step is reached.
type step int

const (
	stepRouteInput step = iota
	stepInitializeRound
	stepDetermineNextStep
	stepDirectAction
	stepQuery
	stepOutOfCharacter
	stepMonsterTurn
	stepPrepareForInput
	stepCombatEnd
	// stepDone marks the end of one invocation: the encounter is
	// checkpointed and control returns to the caller.
	stepDone
)

func (s step) String() string {
	switch s {
	case stepRouteInput:
		return "route_input"
	case stepInitializeRound:
		return "initialize_round"
	case stepDetermineNextStep:
		return "determine_next_step"
	case stepDirectAction:
		return "direct_action"
	case stepQuery:
		return "query"
	case stepOutOfCharacter:
		return "ooc"
	case stepMonsterTurn:
		return "monster_turn"
	case stepPrepareForInput:
		return "prepare_for_input"
	case stepCombatEnd:
		return "combat_end"
	case stepDone:
		return "done"
	default:
		return "unknown"
	}
}
