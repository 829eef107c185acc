package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/vohyz/cocFightAgent/internal/config"
	"github.com/vohyz/cocFightAgent/internal/engine"
	"github.com/vohyz/cocFightAgent/internal/game"
	"github.com/vohyz/cocFightAgent/internal/narrative"
	"github.com/vohyz/cocFightAgent/internal/storage"
)

// memRepo is a map-backed Repository for tests.
type memRepo struct {
	encounters map[string]*game.Encounter
	intros     map[string]string
	staleIDs   []string
	updateErr  error
}

func newMemRepo() *memRepo {
	return &memRepo{encounters: map[string]*game.Encounter{}, intros: map[string]string{}}
}

func (m *memRepo) CreateEncounter(e *game.Encounter) error {
	m.encounters[e.SessionID] = e
	return nil
}

func (m *memRepo) GetEncounterBySessionID(sessionID string) (*game.Encounter, error) {
	e, ok := m.encounters[sessionID]
	if !ok {
		return nil, storage.ErrEncounterNotFound
	}
	return e, nil
}

func (m *memRepo) UpdateEncounter(e *game.Encounter) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.encounters[e.SessionID] = e
	return nil
}

func (m *memRepo) FindStaleEncounters(cutoff time.Time) ([]game.Encounter, error) {
	var out []game.Encounter
	for _, id := range m.staleIDs {
		if e, ok := m.encounters[id]; ok && e.Status == game.StatusInProgress {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memRepo) GetSceneIntroByKey(key string) (*game.SceneIntro, error) {
	if d, ok := m.intros[key]; ok {
		return &game.SceneIntro{ScenarioKey: key, Description: d}, nil
	}
	return nil, errors.New("not found")
}

func (m *memRepo) SaveSceneIntro(key, description string) error {
	m.intros[key] = description
	return nil
}

// stubAgent plays a keeper that suspends for player input immediately.
type stubAgent struct {
	sceneCalls int
	sceneErr   error
}

func (a *stubAgent) ClassifyIntent(ctx context.Context, snap narrative.Snapshot) (game.Intent, error) {
	return game.IntentDirectAction, nil
}

func (a *stubAgent) ResolveMonsterTurn(ctx context.Context, snap narrative.Snapshot) (*narrative.Outcome, error) {
	return &narrative.Outcome{Description: "The ghoul snarls.", IsValid: true}, nil
}

func (a *stubAgent) ResolvePlayerAction(ctx context.Context, snap narrative.Snapshot) (*narrative.Outcome, error) {
	return &narrative.Outcome{Description: "It lands.", IsValid: true}, nil
}

func (a *stubAgent) AnswerQuery(ctx context.Context, snap narrative.Snapshot) (string, error) {
	return "answer", nil
}

func (a *stubAgent) RespondOutOfCharacter(ctx context.Context, snap narrative.Snapshot) (string, error) {
	return "ooc reply", nil
}

func (a *stubAgent) Narrate(ctx context.Context, snap narrative.Snapshot) (string, error) {
	return "The warehouse creaks.", nil
}

func (a *stubAgent) DescribeScene(ctx context.Context, scenarioName string, m game.Map) (string, error) {
	a.sceneCalls++
	if a.sceneErr != nil {
		return "", a.sceneErr
	}
	return "Dust hangs over the crates.", nil
}

func testConfig() *config.LoadedConfig {
	return &config.LoadedConfig{
		ScenarioName: "Warehouse Ambush",
		Participants: []game.Participant{
			{ID: "sarah", Name: "Sarah", Faction: game.FactionInvestigator, Stats: map[string]int{"HP": 10, "DEX": 60}, Status: game.StatusActive},
			{ID: "ghoul", Name: "Ghoul", Faction: game.FactionEnemy, Stats: map[string]int{"HP": 12, "DEX": 85}, Status: game.StatusActive},
		},
		Map:                game.Map{Name: "Old Warehouse", Zones: map[string]game.MapZone{}},
		MaxSequencerPasses: 50,
	}
}

func newTestService(repo storage.Repository, agent *stubAgent) *EncounterService {
	seq := engine.New(agent, rand.New(rand.NewSource(7)))
	return NewEncounterService(repo, seq, agent, testConfig())
}

func TestCreateEncounter_InitializesAndSuspends(t *testing.T) {
	repo := newMemRepo()
	agent := &stubAgent{}
	svc := newTestService(repo, agent)

	view, err := svc.CreateEncounter(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if view.RoundNumber != 1 {
		t.Fatalf("expected round 1, got %d", view.RoundNumber)
	}
	if !view.RequiresPlayerInput {
		t.Fatal("expected encounter to suspend for player input")
	}
	if view.LastNarration == "" {
		t.Fatal("expected opening narration")
	}
	stored, err := repo.GetEncounterBySessionID(view.SessionID)
	if err != nil {
		t.Fatalf("checkpoint missing: %v", err)
	}
	if stored.RoundNumber != 1 {
		t.Fatalf("checkpoint round = %d", stored.RoundNumber)
	}
	if agent.sceneCalls != 1 {
		t.Fatalf("expected one scene generation, got %d", agent.sceneCalls)
	}
}

func TestCreateEncounter_DoesNotShareConfigStats(t *testing.T) {
	repo := newMemRepo()
	agent := &stubAgent{}
	svc := newTestService(repo, agent)

	v1, err := svc.CreateEncounter(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e1 := repo.encounters[v1.SessionID]
	e1.FindParticipant("sarah").Stats["HP"] = 1

	v2, err := svc.CreateEncounter(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e2 := repo.encounters[v2.SessionID]
	if hp := e2.FindParticipant("sarah").Stat("HP", 0); hp != 10 {
		t.Fatalf("new encounter inherited mutated stats, HP = %d", hp)
	}
}

func TestCreateEncounter_SceneIntroCachedAcrossEncounters(t *testing.T) {
	repo := newMemRepo()
	agent := &stubAgent{}
	svc := newTestService(repo, agent)

	if _, err := svc.CreateEncounter(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.CreateEncounter(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agent.sceneCalls != 1 {
		t.Fatalf("expected cached intro to be reused, got %d generations", agent.sceneCalls)
	}
}

func TestCreateEncounter_SceneFailureIsNonFatal(t *testing.T) {
	repo := newMemRepo()
	agent := &stubAgent{sceneErr: errors.New("backend down")}
	svc := newTestService(repo, agent)

	view, err := svc.CreateEncounter(context.Background())
	if err != nil {
		t.Fatalf("scene failure must not block creation: %v", err)
	}
	if view.RoundNumber != 1 {
		t.Fatalf("expected round 1, got %d", view.RoundNumber)
	}
}

func TestInvoke_UnknownSession(t *testing.T) {
	svc := newTestService(newMemRepo(), &stubAgent{})
	if _, err := svc.Invoke(context.Background(), "nope", "hello"); !errors.Is(err, storage.ErrEncounterNotFound) {
		t.Fatalf("expected ErrEncounterNotFound, got %v", err)
	}
}

func TestInvoke_RejectsFinishedAndExpired(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &stubAgent{})
	repo.encounters["done"] = &game.Encounter{SessionID: "done", Status: game.StatusFinished}
	repo.encounters["old"] = &game.Encounter{SessionID: "old", Status: game.StatusExpired}

	if _, err := svc.Invoke(context.Background(), "done", "hi"); !errors.Is(err, ErrEncounterFinished) {
		t.Fatalf("expected ErrEncounterFinished, got %v", err)
	}
	if _, err := svc.Invoke(context.Background(), "old", "hi"); !errors.Is(err, ErrEncounterExpired) {
		t.Fatalf("expected ErrEncounterExpired, got %v", err)
	}
}

func TestInvoke_ChecksPointAndMarksFinished(t *testing.T) {
	repo := newMemRepo()
	agent := &stubAgent{}
	svc := newTestService(repo, agent)

	view, err := svc.CreateEncounter(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Kill the enemy out of band; next invocation must end the fight and
	// flip the stored status.
	enc := repo.encounters[view.SessionID]
	enc.FindParticipant("ghoul").Stats["HP"] = 0

	out, err := svc.Invoke(context.Background(), view.SessionID, "I swing the crowbar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.FightEnded {
		t.Fatal("expected fight to end")
	}
	if out.Status != game.StatusFinished {
		t.Fatalf("expected status finished, got %q", out.Status)
	}
	if repo.encounters[view.SessionID].Status != game.StatusFinished {
		t.Fatal("finished status was not checkpointed")
	}
}

func TestExpireStaleEncounters(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &stubAgent{})
	repo.encounters["idle"] = &game.Encounter{SessionID: "idle", Status: game.StatusInProgress, RequiresPlayerInput: true}
	repo.encounters["busy"] = &game.Encounter{SessionID: "busy", Status: game.StatusInProgress}
	repo.staleIDs = []string{"idle"}

	n, err := svc.ExpireStaleEncounters(24 * time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expiry, got %d", n)
	}
	if repo.encounters["idle"].Status != game.StatusExpired {
		t.Fatal("stale encounter not expired")
	}
	if repo.encounters["idle"].RequiresPlayerInput {
		t.Fatal("expired encounter should not ask for input")
	}
	if repo.encounters["busy"].Status != game.StatusInProgress {
		t.Fatal("fresh encounter must stay in progress")
	}
}

func TestExpireStaleEncounters_ZeroTTLDisabled(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &stubAgent{})
	repo.encounters["idle"] = &game.Encounter{SessionID: "idle", Status: game.StatusInProgress}
	repo.staleIDs = []string{"idle"}

	n, err := svc.ExpireStaleEncounters(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no expiries, got %d", n)
	}
}
