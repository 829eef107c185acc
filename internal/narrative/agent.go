package narrative

import (
	"context"
	"errors"

	"github.com/vohyz/cocFightAgent/internal/game"
)

// ErrNoBackend is returned by New when neither OpenAI nor Gemini
// credentials are configured.
var ErrNoBackend = errors.New("no narrative backend configured")

// Snapshot is the read-only view of session context handed to the
// collaborator for one call. The core never exposes the Encounter itself.
type Snapshot struct {
	RoundNumber   int
	RecentContext []string
	CombatLog     []string
	Map           game.Map
	Participants  []game.Participant
	Actor         game.Participant
	// IsTempActor restricts a direct action to defensive responses only.
	IsTempActor bool
	PlayerInput string
}

// Outcome is the structured record an action-resolving call returns.
// Result holds full replacement participant records matched by id.
type Outcome struct {
	Description         string
	Result              []game.Participant
	RequiresPlayerInput bool
	TempActorID         string
	IsValid             bool
}

// Agent is the contract boundary to the external narrative collaborator.
// Implementations retry transport failures a bounded number of times;
// callers treat a returned error as "no state change this step".
type Agent interface {
	// ClassifyIntent categorizes raw player text. Unclassifiable text
	// yields IntentFuzzy, never an error.
	ClassifyIntent(ctx context.Context, snap Snapshot) (game.Intent, error)
	// ResolveMonsterTurn decides and resolves the acting enemy's action.
	ResolveMonsterTurn(ctx context.Context, snap Snapshot) (*Outcome, error)
	// ResolvePlayerAction validates and resolves the player's declared
	// action. A parse failure yields IsValid=false, never a silently
	// accepted action.
	ResolvePlayerAction(ctx context.Context, snap Snapshot) (*Outcome, error)
	// AnswerQuery answers a rules/state question in the keeper's voice.
	AnswerQuery(ctx context.Context, snap Snapshot) (string, error)
	// RespondOutOfCharacter replies to table talk.
	RespondOutOfCharacter(ctx context.Context, snap Snapshot) (string, error)
	// Narrate produces atmospheric narration over the current state; it
	// resolves no actions.
	Narrate(ctx context.Context, snap Snapshot) (string, error)
}

// SceneDescriber produces a standalone opening-scene description for a
// scenario. Kept separate from Agent so caches can depend on just this.
type SceneDescriber interface {
	DescribeScene(ctx context.Context, scenarioName string, m game.Map) (string, error)
}
