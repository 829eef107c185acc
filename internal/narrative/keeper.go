package narrative

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/vohyz/cocFightAgent/internal/constants"
	"github.com/vohyz/cocFightAgent/internal/game"
	"github.com/vohyz/cocFightAgent/internal/logging"
)

// maxCallAttempts bounds retries of one collaborator call. Exhaustion
// surfaces as a handler-level failure; the sequencer degrades to a no-op
// step instead of crashing the encounter.
const maxCallAttempts = 3

// completer is the minimal text-generation surface a backend provides.
// withTools asks the backend to expose the dice tool during the call; a
// backend without tool support may ignore the flag (prompts still demand
// dice results in the output).
type completer interface {
	Complete(ctx context.Context, system, user string, withTools bool) (string, error)
	Name() string
}

// Keeper implements Agent on top of a chat-completion backend.
type Keeper struct {
	llm completer
}

// New selects a backend from the environment: OpenAI when OPENAI_API_KEY is
// set, otherwise Gemini when GEMINI_API_KEY is set.
func New(ctx context.Context) (*Keeper, error) {
	if key := os.Getenv(constants.EnvOpenAIAPIKey); key != "" {
		c := newOpenAICompleter(key)
		logging.Info("narrative backend selected", logging.Fields{constants.LogFieldBackend: c.Name()})
		return &Keeper{llm: c}, nil
	}
	if key := os.Getenv(constants.EnvGeminiAPIKey); key != "" {
		c, err := newGeminiCompleter(ctx, key)
		if err != nil {
			return nil, err
		}
		logging.Info("narrative backend selected", logging.Fields{constants.LogFieldBackend: c.Name()})
		return &Keeper{llm: c}, nil
	}
	return nil, ErrNoBackend
}

// newKeeperWith is used by tests to inject a scripted backend.
func newKeeperWith(c completer) *Keeper { return &Keeper{llm: c} }

// complete runs one collaborator call with bounded exponential-backoff
// retries.
func (k *Keeper) complete(ctx context.Context, system, user string, withTools bool) (string, error) {
	return backoff.Retry(ctx, func() (string, error) {
		return k.llm.Complete(ctx, system, user, withTools)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxCallAttempts),
		backoff.WithMaxElapsedTime(2*time.Minute),
	)
}

// ClassifyIntent categorizes raw player text into one of the fixed intent
// categories. Responses that match nothing map to IntentFuzzy.
func (k *Keeper) ClassifyIntent(ctx context.Context, snap Snapshot) (game.Intent, error) {
	prompt := render(promptOrDefault(triagePromptTemplate, defaultTriagePrompt), snapshotTokens(snap))
	out, err := k.complete(ctx, keeperSystemPrompt, prompt, false)
	if err != nil {
		return game.IntentFuzzy, err
	}
	text := strings.ToLower(out)
	switch {
	case strings.Contains(text, string(game.IntentDirectAction)):
		return game.IntentDirectAction, nil
	case strings.Contains(text, string(game.IntentQuery)):
		return game.IntentQuery, nil
	case strings.Contains(text, string(game.IntentOOC)):
		return game.IntentOOC, nil
	default:
		return game.IntentFuzzy, nil
	}
}

// ResolveMonsterTurn asks the collaborator to act as the current enemy.
// A parse failure degrades to narration-only: the whole response becomes
// the description and no participant changes.
func (k *Keeper) ResolveMonsterTurn(ctx context.Context, snap Snapshot) (*Outcome, error) {
	prompt := render(promptOrDefault(monsterPromptTemplate, defaultMonsterPrompt), snapshotTokens(snap))
	out, err := k.complete(ctx, keeperSystemPrompt, prompt, true)
	if err != nil {
		return nil, err
	}
	oc := extractOutcome(out, true)
	return oc, nil
}

// ResolvePlayerAction validates and resolves the player's declared action.
// A parse failure must fall back to IsValid=false rather than silently
// accepting an unvalidated action.
func (k *Keeper) ResolvePlayerAction(ctx context.Context, snap Snapshot) (*Outcome, error) {
	prompt := render(promptOrDefault(actionPromptTemplate, defaultActionPrompt), snapshotTokens(snap))
	out, err := k.complete(ctx, keeperSystemPrompt, prompt, true)
	if err != nil {
		return nil, err
	}
	return extractOutcome(out, false), nil
}

// AnswerQuery answers a rules/state question without resolving anything.
func (k *Keeper) AnswerQuery(ctx context.Context, snap Snapshot) (string, error) {
	prompt := render(promptOrDefault(queryPromptTemplate, defaultQueryPrompt), snapshotTokens(snap))
	return k.complete(ctx, keeperSystemPrompt, prompt, false)
}

// RespondOutOfCharacter replies to table talk in the keeper's voice.
func (k *Keeper) RespondOutOfCharacter(ctx context.Context, snap Snapshot) (string, error) {
	prompt := render(promptOrDefault(oocPromptTemplate, defaultOOCPrompt), snapshotTokens(snap))
	return k.complete(ctx, keeperSystemPrompt, prompt, false)
}

// Narrate produces atmospheric narration for a suspension point.
func (k *Keeper) Narrate(ctx context.Context, snap Snapshot) (string, error) {
	prompt := render(promptOrDefault(narratorPromptTemplate, defaultNarratorPrompt), snapshotTokens(snap))
	return k.complete(ctx, keeperSystemPrompt, prompt, false)
}

// DescribeScene generates a standalone opening description for a scenario.
func (k *Keeper) DescribeScene(ctx context.Context, scenarioName string, m game.Map) (string, error) {
	prompt := render(promptOrDefault(scenePromptTemplate, defaultScenePrompt), map[string]string{
		"scenario": scenarioName,
		"map":      mustJSON(m),
	})
	return k.complete(ctx, keeperSystemPrompt, prompt, false)
}
