package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/vohyz/cocFightAgent/internal/constants"
	"github.com/vohyz/cocFightAgent/internal/game"
	"github.com/vohyz/cocFightAgent/internal/logging"
	"github.com/vohyz/cocFightAgent/internal/narrative"
)

// ErrPassBudgetExceeded is returned when one invocation runs more sequencer
// passes than the configured cap without reaching a suspension point.
var ErrPassBudgetExceeded = errors.New("sequencer pass budget exceeded")

// snapshotLogTail bounds how much combat log a collaborator call sees.
const snapshotLogTail = 8

const (
	openingLogLine      = "The fight begins. Something foul hangs in the air..."
	roundEndedLogLine   = "The round ends; everyone braces for the next."
	keeperFaltersLine   = "[Keeper]: The keeper falters for a moment; nothing happens."
	suspendedByCapLine  = "The keeper calls a halt; the scene is suspended."
	investigatorsDownLn = "Every investigator is down. The fight is over."
	enemiesDownLine     = "Every enemy is down; the investigators prevail!"
)

// Sequencer advances one encounter through its turn state machine. It owns
// no state itself: every pass reads and mutates the Encounter record, so a
// checkpoint of that record is a full suspension boundary.
type Sequencer struct {
	agent narrative.Agent
	rng   *rand.Rand
}

// New builds a sequencer over the given collaborator boundary and random
// source. The source feeds initiative rolls; tests inject a seeded one.
func New(agent narrative.Agent, rng *rand.Rand) *Sequencer {
	return &Sequencer{agent: agent, rng: rng}
}

// Run executes sequencer passes until the encounter reaches a suspension
// point (player input needed, or fight over) or the pass budget runs out.
// playerText is the raw input carried by this invocation; empty on the
// initial invocation of a fresh encounter.
func (s *Sequencer) Run(ctx context.Context, enc *game.Encounter, playerText string, maxPasses int) error {
	cur := stepRouteInput
	for passes := 0; cur != stepDone; passes++ {
		if maxPasses > 0 && passes >= maxPasses {
			logging.Error("sequencer pass budget exceeded", ErrPassBudgetExceeded, logging.Fields{
				constants.LogFieldSessionID: enc.SessionID,
				constants.LogFieldRound:     enc.RoundNumber,
			})
			enc.AppendLog(suspendedByCapLine)
			enc.RequiresPlayerInput = true
			return ErrPassBudgetExceeded
		}
		logging.Debug("sequencer step", logging.Fields{
			constants.LogFieldSessionID: enc.SessionID,
			constants.LogFieldStep:      cur.String(),
			constants.LogFieldRound:     enc.RoundNumber,
		})
		switch cur {
		case stepRouteInput:
			cur = s.routeInput(ctx, enc, playerText)
		case stepInitializeRound:
			cur = s.initializeRound(enc)
		case stepDetermineNextStep:
			cur = s.determineNextStep(enc)
		case stepDirectAction:
			cur = s.directAction(ctx, enc, playerText)
		case stepQuery:
			cur = s.handleQuery(ctx, enc, playerText)
		case stepOutOfCharacter:
			cur = s.handleOutOfCharacter(ctx, enc, playerText)
		case stepMonsterTurn:
			cur = s.monsterTurn(ctx, enc)
		case stepPrepareForInput:
			cur = s.prepareForInput(ctx, enc)
		case stepCombatEnd:
			cur = s.combatEnd(ctx, enc)
		default:
			return fmt.Errorf("unknown sequencer step %d", cur)
		}
	}
	return nil
}

// routeInput is the entry state of every invocation. A fresh encounter
// (round 0) initializes unconditionally; otherwise the player text is
// classified and dispatched to exactly one handler.
func (s *Sequencer) routeInput(ctx context.Context, enc *game.Encounter, playerText string) step {
	if enc.RoundNumber == 0 {
		enc.AppendLog(openingLogLine)
		return stepInitializeRound
	}
	if playerText == "" {
		// Resumption without text: re-issue the pending narration.
		return stepPrepareForInput
	}
	enc.PushContext("[Player]: " + playerText)

	intent, err := s.agent.ClassifyIntent(ctx, s.snapshot(enc, playerText))
	if err != nil {
		logging.Error("intent classification failed", err, logging.Fields{constants.LogFieldSessionID: enc.SessionID})
		intent = game.IntentFuzzy
	}
	enc.ClassifiedIntent = intent
	logging.Debug("player intent classified", logging.Fields{
		constants.LogFieldSessionID: enc.SessionID,
		constants.LogFieldIntent:    string(intent),
	})

	switch intent {
	case game.IntentDirectAction:
		return stepDirectAction
	case game.IntentQuery:
		return stepQuery
	default:
		// ooc and fuzzy both land at the table-talk handler.
		return stepOutOfCharacter
	}
}

// initializeRound rerolls initiative over the currently active participants,
// starts the next round and clears the per-round flags.
func (s *Sequencer) initializeRound(enc *game.Encounter) step {
	order, line := RollInitiative(enc.ActiveParticipants(), s.rng)
	enc.InitiativeOrder = order
	enc.RoundNumber++
	enc.CurrentActorIndex = -1
	enc.RequiresPlayerInput = false
	enc.ClassifiedIntent = game.IntentNone
	enc.IsValidAction = false
	enc.RoundEnded = false
	enc.AppendLog(line)
	return stepDetermineNextStep
}

// determineNextStep evaluates fight termination, advances (or re-targets)
// the actor pointer and hands the turn to the right side. The fight-end
// check strictly precedes any advancement decision.
func (s *Sequencer) determineNextStep(enc *game.Encounter) step {
	if enc.FactionIncapacitated(game.FactionInvestigator) {
		enc.AppendLog(investigatorsDownLn)
		enc.FightEnded = true
		return stepCombatEnd
	}
	if enc.FactionIncapacitated(game.FactionEnemy) {
		enc.AppendLog(enemiesDownLine)
		enc.FightEnded = true
		return stepCombatEnd
	}

	var actor *game.Participant
	if enc.TempActorID != "" {
		// An interrupt actor acts without consuming an advancement.
		actor = enc.FindParticipant(enc.TempActorID)
		if actor == nil {
			logging.Error("temp actor not found among participants", nil, logging.Fields{
				constants.LogFieldSessionID: enc.SessionID,
				constants.LogFieldActor:     enc.TempActorID,
			})
			enc.AppendLog(fmt.Sprintf("Error: actor %q could not be found; the round is cut short.", enc.TempActorID))
			enc.TempActorID = ""
			enc.RoundEnded = true
			enc.CurrentActorIndex = -1
			return stepInitializeRound
		}
	} else {
		idx := enc.CurrentActorIndex + 1
		if idx >= len(enc.InitiativeOrder) {
			enc.AppendLog(roundEndedLogLine)
			enc.RoundEnded = true
			enc.CurrentActorIndex = -1
			return stepInitializeRound
		}
		actor = enc.FindParticipant(enc.InitiativeOrder[idx])
		if actor == nil {
			// Initiative carries an id with no matching participant. This
			// masks a data inconsistency; keep the encounter alive but make
			// the defect visible in the logs.
			logging.Error("initiative actor not found among participants", nil, logging.Fields{
				constants.LogFieldSessionID: enc.SessionID,
				constants.LogFieldActor:     enc.InitiativeOrder[idx],
			})
			enc.AppendLog(fmt.Sprintf("Error: actor %q could not be found; the round is cut short.", enc.InitiativeOrder[idx]))
			enc.RoundEnded = true
			enc.CurrentActorIndex = -1
			return stepInitializeRound
		}
		enc.CurrentActorIndex = idx
	}

	enc.AppendLog(fmt.Sprintf("It is %s's turn to act.", actor.Name))
	if actor.Faction == game.FactionInvestigator {
		enc.RequiresPlayerInput = true
		return stepPrepareForInput
	}
	enc.RequiresPlayerInput = false
	return stepMonsterTurn
}

// monsterTurn resolves the acting enemy through the collaborator. A failed
// call degrades to a no-op turn: generic log line, no state change, and the
// pointer advances on the next pass.
func (s *Sequencer) monsterTurn(ctx context.Context, enc *game.Encounter) step {
	outcome, err := s.agent.ResolveMonsterTurn(ctx, s.snapshot(enc, ""))
	if err != nil {
		logging.Error("monster turn collaborator call failed", err, logging.Fields{
			constants.LogFieldSessionID: enc.SessionID,
			constants.LogFieldActor:     enc.CurrentActorID(),
		})
		enc.AppendLog(keeperFaltersLine)
		return stepDetermineNextStep
	}

	enc.Apply(game.Patch{
		LogEntries:          []string{"[Keeper]: " + outcome.Description},
		Participants:        outcome.Result,
		RequiresPlayerInput: game.Bool(outcome.RequiresPlayerInput),
		TempActorID:         game.String(outcome.TempActorID),
	})
	enc.PushContext("[Keeper]: " + outcome.Description)

	if outcome.RequiresPlayerInput {
		return stepPrepareForInput
	}
	return stepDetermineNextStep
}

// directAction validates and resolves the player's declared action. An
// invalid action changes nothing but the log and the same actor must retry;
// a collaborator failure suspends with no state change at all.
func (s *Sequencer) directAction(ctx context.Context, enc *game.Encounter, playerText string) step {
	snap := s.snapshot(enc, playerText)
	outcome, err := s.agent.ResolvePlayerAction(ctx, snap)
	if err != nil {
		logging.Error("player action collaborator call failed", err, logging.Fields{
			constants.LogFieldSessionID: enc.SessionID,
			constants.LogFieldActor:     enc.CurrentActorID(),
		})
		enc.AppendLog(keeperFaltersLine)
		enc.LastNarration = keeperFaltersLine
		return stepDone
	}

	if !outcome.IsValid {
		// Only the log line and the validity flag change; participant
		// state stays untouched and the turn is not consumed.
		enc.Apply(game.Patch{
			LogEntries:    []string{"[Keeper]: " + outcome.Description},
			IsValidAction: game.Bool(false),
		})
		return stepPrepareForInput
	}

	enc.Apply(game.Patch{
		LogEntries:          []string{"[Keeper]: " + outcome.Description},
		Participants:        outcome.Result,
		IsValidAction:       game.Bool(true),
		RequiresPlayerInput: game.Bool(outcome.RequiresPlayerInput),
		TempActorID:         game.String(outcome.TempActorID),
	})
	enc.PushContext("[Keeper]: " + outcome.Description)

	if outcome.RequiresPlayerInput {
		return stepPrepareForInput
	}
	return stepDetermineNextStep
}

// handleQuery answers a rules/state question. The turn does not advance.
func (s *Sequencer) handleQuery(ctx context.Context, enc *game.Encounter, playerText string) step {
	answer, err := s.agent.AnswerQuery(ctx, s.snapshot(enc, playerText))
	if err != nil {
		logging.Error("query collaborator call failed", err, logging.Fields{constants.LogFieldSessionID: enc.SessionID})
		enc.AppendLog(keeperFaltersLine)
		enc.LastNarration = keeperFaltersLine
		return stepDone
	}
	enc.Apply(game.Patch{
		LogEntries: []string{"[Keeper]: " + answer},
		Narration:  game.String(answer),
	})
	enc.PushContext("[Keeper]: " + answer)
	return stepDone
}

// handleOutOfCharacter replies to table talk. The turn does not advance.
func (s *Sequencer) handleOutOfCharacter(ctx context.Context, enc *game.Encounter, playerText string) step {
	reply, err := s.agent.RespondOutOfCharacter(ctx, s.snapshot(enc, playerText))
	if err != nil {
		logging.Error("ooc collaborator call failed", err, logging.Fields{constants.LogFieldSessionID: enc.SessionID})
		enc.AppendLog(keeperFaltersLine)
		enc.LastNarration = keeperFaltersLine
		return stepDone
	}
	enc.Apply(game.Patch{
		LogEntries: []string{"[Keeper]: " + reply},
		Narration:  game.String(reply),
	})
	enc.PushContext("[Keeper]: " + reply)
	return stepDone
}

// prepareForInput narrates the pending state and suspends the invocation.
// Narration is presentation only; a failed call never blocks suspension.
func (s *Sequencer) prepareForInput(ctx context.Context, enc *game.Encounter) step {
	narration, err := s.agent.Narrate(ctx, s.snapshot(enc, ""))
	if err != nil {
		logging.Error("narration collaborator call failed", err, logging.Fields{constants.LogFieldSessionID: enc.SessionID})
		narration = keeperFaltersLine
	}
	enc.LastNarration = narration
	enc.PushContext("[Keeper]: " + narration)
	return stepDone
}

// combatEnd narrates the outcome and terminates the invocation for good.
func (s *Sequencer) combatEnd(ctx context.Context, enc *game.Encounter) step {
	narration, err := s.agent.Narrate(ctx, s.snapshot(enc, ""))
	if err != nil {
		logging.Error("combat end narration failed", err, logging.Fields{constants.LogFieldSessionID: enc.SessionID})
		narration = keeperFaltersLine
	}
	enc.LastNarration = narration
	enc.PushContext("[Keeper]: " + narration)
	enc.RequiresPlayerInput = false
	return stepDone
}

// snapshot builds the read-only context handed to a collaborator call.
func (s *Sequencer) snapshot(enc *game.Encounter, playerText string) narrative.Snapshot {
	tail := enc.CombatLog
	if len(tail) > snapshotLogTail {
		tail = tail[len(tail)-snapshotLogTail:]
	}
	var actor game.Participant
	if p := enc.FindParticipant(enc.CurrentActorID()); p != nil {
		actor = *p
	}
	return narrative.Snapshot{
		RoundNumber:   enc.RoundNumber,
		RecentContext: enc.RecentContext,
		CombatLog:     tail,
		Map:           enc.Map,
		Participants:  enc.Participants,
		Actor:         actor,
		IsTempActor:   enc.TempActorID != "",
		PlayerInput:   playerText,
	}
}
