package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vohyz/cocFightAgent/internal/config"
	"github.com/vohyz/cocFightAgent/internal/constants"
	"github.com/vohyz/cocFightAgent/internal/engine"
	"github.com/vohyz/cocFightAgent/internal/game"
	"github.com/vohyz/cocFightAgent/internal/logging"
	"github.com/vohyz/cocFightAgent/internal/narrative"
	"github.com/vohyz/cocFightAgent/internal/scenedesc"
	"github.com/vohyz/cocFightAgent/internal/storage"
)

var (
	ErrEncounterFinished = errors.New("encounter already finished")
	ErrEncounterExpired  = errors.New("encounter expired")
)

// EncounterService owns the lifecycle of encounters: creation from the
// configured scenario, invocation of the sequencer per player input, and
// checkpointing every suspension to the repository.
type EncounterService struct {
	repo      storage.Repository
	seq       *engine.Sequencer
	describer narrative.SceneDescriber
	cfg       *config.LoadedConfig

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEncounterService wires the sequencer, scene describer and repository
// behind a single entry point for the API layer.
func NewEncounterService(repo storage.Repository, seq *engine.Sequencer, describer narrative.SceneDescriber, cfg *config.LoadedConfig) *EncounterService {
	return &EncounterService{
		repo:      repo,
		seq:       seq,
		describer: describer,
		cfg:       cfg,
		locks:     map[string]*sync.Mutex{},
	}
}

// sessionLock serializes invocations per session id. Concurrent inputs for
// the same encounter would race on the single checkpoint record otherwise.
func (s *EncounterService) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	return l
}

func cloneParticipants(in []game.Participant) []game.Participant {
	out := make([]game.Participant, len(in))
	for i, p := range in {
		cp := p
		cp.Stats = make(map[string]int, len(p.Stats))
		for k, v := range p.Stats {
			cp.Stats[k] = v
		}
		cp.Effects = append([]string(nil), p.Effects...)
		cp.Items = append([]string(nil), p.Items...)
		out[i] = cp
	}
	return out
}

// CreateEncounter starts a fresh encounter from the configured scenario and
// runs the sequencer until the first suspension (normally: round one rolled,
// waiting for the first investigator to act).
func (s *EncounterService) CreateEncounter(ctx context.Context) (*game.SessionView, error) {
	enc := &game.Encounter{
		SessionID:         uuid.NewString(),
		ScenarioName:      s.cfg.ScenarioName,
		Status:            game.StatusInProgress,
		Participants:      cloneParticipants(s.cfg.Participants),
		Map:               s.cfg.Map,
		CurrentActorIndex: -1,
	}

	// The opening scene is flavor; a failed generation never blocks the
	// encounter.
	if s.describer != nil {
		if intro, err := scenedesc.GetOrCreate(ctx, s.repo, s.describer, enc.ScenarioName, enc.Map); err != nil {
			logging.Error("scene description failed; starting without intro", err, logging.Fields{
				constants.LogFieldSessionID: enc.SessionID,
			})
		} else if intro != "" {
			enc.AppendLog("[Keeper]: " + intro)
			enc.PushContext("[Keeper]: " + intro)
		}
	}

	if err := s.repo.CreateEncounter(enc); err != nil {
		return nil, err
	}

	if err := s.run(ctx, enc, ""); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateEncounter(enc); err != nil {
		return nil, err
	}
	logging.Info("encounter created", logging.Fields{
		constants.LogFieldSessionID: enc.SessionID,
		constants.LogFieldRound:     enc.RoundNumber,
	})
	return game.NewSessionView(enc), nil
}

// Invoke feeds one piece of player input to an encounter, runs the
// sequencer to its next suspension point and checkpoints the result.
func (s *EncounterService) Invoke(ctx context.Context, sessionID, playerText string) (*game.SessionView, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	enc, err := s.repo.GetEncounterBySessionID(sessionID)
	if err != nil {
		return nil, err
	}
	switch enc.Status {
	case game.StatusFinished:
		return nil, ErrEncounterFinished
	case game.StatusExpired:
		return nil, ErrEncounterExpired
	}

	if err := s.run(ctx, enc, playerText); err != nil {
		return nil, err
	}
	if enc.FightEnded {
		enc.Status = game.StatusFinished
	}
	if err := s.repo.UpdateEncounter(enc); err != nil {
		return nil, err
	}
	return game.NewSessionView(enc), nil
}

// GetEncounter returns the current view without advancing anything.
func (s *EncounterService) GetEncounter(sessionID string) (*game.SessionView, error) {
	enc, err := s.repo.GetEncounterBySessionID(sessionID)
	if err != nil {
		return nil, err
	}
	return game.NewSessionView(enc), nil
}

// run executes the sequencer under the configured pass budget. Budget
// exhaustion is a suspension, not a failure: the encounter has already been
// forced into a player-input state and is safe to checkpoint.
func (s *EncounterService) run(ctx context.Context, enc *game.Encounter, playerText string) error {
	err := s.seq.Run(ctx, enc, playerText, s.cfg.MaxSequencerPasses)
	if errors.Is(err, engine.ErrPassBudgetExceeded) {
		return nil
	}
	return err
}

// ExpireStaleEncounters marks in-progress encounters idle for longer than
// the TTL as expired. It returns how many were expired.
func (s *EncounterService) ExpireStaleEncounters(ttl time.Duration) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}
	stale, err := s.repo.FindStaleEncounters(time.Now().Add(-ttl))
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range stale {
		enc := &stale[i]
		lock := s.sessionLock(enc.SessionID)
		lock.Lock()
		enc.Status = game.StatusExpired
		enc.RequiresPlayerInput = false
		if err := s.repo.UpdateEncounter(enc); err != nil {
			logging.Error("failed to expire stale encounter", err, logging.Fields{
				constants.LogFieldSessionID: enc.SessionID,
			})
		} else {
			expired++
		}
		lock.Unlock()
	}
	if expired > 0 {
		logging.Info("expired stale encounters", logging.Fields{"count": expired})
	}
	return expired, nil
}
