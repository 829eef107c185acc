package game

// Patch is a handler's declared set of changed session fields. Pointer
// fields distinguish "not touched" from "set to zero value"; nil means the
// corresponding Encounter field is left as-is. LogEntries and Participants
// are merge operations, never replacements: log entries are appended and
// participant records replace only the matching ids.
type Patch struct {
	LogEntries   []string
	Participants []Participant

	RequiresPlayerInput *bool
	// TempActorID set to the empty string clears the temp actor.
	TempActorID      *string
	IsValidAction    *bool
	ClassifiedIntent *Intent
	Narration        *string
}

// Apply merges the patch into the encounter. Keys absent from the patch are
// untouched; the combat log only grows.
func (e *Encounter) Apply(p Patch) {
	if len(p.LogEntries) > 0 {
		e.AppendLog(p.LogEntries...)
	}
	for _, repl := range p.Participants {
		if cur := e.FindParticipant(repl.ID); cur != nil {
			*cur = repl
		}
	}
	if p.RequiresPlayerInput != nil {
		e.RequiresPlayerInput = *p.RequiresPlayerInput
	}
	if p.TempActorID != nil {
		e.TempActorID = *p.TempActorID
	}
	if p.IsValidAction != nil {
		e.IsValidAction = *p.IsValidAction
	}
	if p.ClassifiedIntent != nil {
		e.ClassifiedIntent = *p.ClassifiedIntent
	}
	if p.Narration != nil {
		e.LastNarration = *p.Narration
	}
}

// Bool returns a pointer suitable for Patch fields.
func Bool(v bool) *bool { return &v }

// String returns a pointer suitable for Patch fields.
func String(v string) *string { return &v }
