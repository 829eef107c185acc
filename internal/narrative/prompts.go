package narrative

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Prompt templates can be overridden at application startup from the
// scenario configuration. Templates use {{token}} substitution.
var (
	triagePromptTemplate   string
	monsterPromptTemplate  string
	actionPromptTemplate   string
	queryPromptTemplate    string
	oocPromptTemplate      string
	narratorPromptTemplate string
	scenePromptTemplate    string
)

// SetTriagePromptTemplate overrides the intent-classification prompt.
func SetTriagePromptTemplate(t string) { triagePromptTemplate = strings.TrimSpace(t) }

// SetMonsterPromptTemplate overrides the enemy-turn resolution prompt.
func SetMonsterPromptTemplate(t string) { monsterPromptTemplate = strings.TrimSpace(t) }

// SetActionPromptTemplate overrides the player-action resolution prompt.
func SetActionPromptTemplate(t string) { actionPromptTemplate = strings.TrimSpace(t) }

// SetQueryPromptTemplate overrides the rules-query prompt.
func SetQueryPromptTemplate(t string) { queryPromptTemplate = strings.TrimSpace(t) }

// SetOOCPromptTemplate overrides the out-of-character prompt.
func SetOOCPromptTemplate(t string) { oocPromptTemplate = strings.TrimSpace(t) }

// SetNarratorPromptTemplate overrides the suspension-point narration prompt.
func SetNarratorPromptTemplate(t string) { narratorPromptTemplate = strings.TrimSpace(t) }

// SetScenePromptTemplate overrides the opening-scene description prompt.
func SetScenePromptTemplate(t string) { scenePromptTemplate = strings.TrimSpace(t) }

const keeperSystemPrompt = "You are an experienced Call of Cthulhu Keeper (KP) running a combat round. " +
	"Stay in the keeper's voice, keep the horror atmosphere, and never reveal hidden mechanics beyond dice results."

const outcomeSchema = `Return a single JSON blob with this exact structure:
` + "```json" + `
{
  "isValid": true,
  "description": "what happened, including every dice roll made and its result",
  "result": [updated participant objects, full records, only those that changed],
  "requiresPlayerInput": false,
  "temp_actor_id": "id of the participant who must now respond, or empty"
}
` + "```" + `
Participant objects keep their full shape: id, name, faction, stats, status, effects, items.`

const defaultTriagePrompt = `Combat is in round {{round}}, and it is {{actor}}'s turn to act.
Player input: "{{input}}"
Classify the input into exactly one category:
- "direct_action" if the player declares an action (attack, dodge, fight back, flee, use an item).
- "query" if the player asks about rules or character/encounter state.
- "ooc" if the player speaks out of character.
- "fuzzy_intent" if the input is too ambiguous to classify.
Reply with the category name only, nothing else.`

const defaultMonsterPrompt = `You control the enemy {{actor}} this turn. Decide its action and resolve it fully.
When any check or damage is needed you MUST roll dice with the roll_dice tool (never invent numbers) and weave the notation and results into the description.
Recent context:
{{context}}
Combat log:
{{log}}
Map: {{map}}
All participants: {{participants}}
Your participant: {{actor_info}}
If a participant's stats, status or position change, put the full updated participant object in "result".
If a player must now choose a reaction (dodge or fight back), set requiresPlayerInput to true and temp_actor_id to that player's id.
{{schema}}`

const defaultActionPrompt = `The player controlling {{actor}} declared: "{{input}}"
Temporary reactive turn: {{is_temp}}. On a reactive turn only defensive responses (dodge, fight back) are legal; anything else is invalid.
First judge whether the declared action is legal for the current state. If illegal, set isValid to false and put the reason in the description; change nothing else.
If legal, resolve it fully: you MUST roll dice with the roll_dice tool for every check and damage (never invent numbers) and include notation and results in the description.
Recent context:
{{context}}
Combat log:
{{log}}
Map: {{map}}
All participants: {{participants}}
Acting participant: {{actor_info}}
If a participant's stats, status or position change, put the full updated participant object in "result".
If another player must now respond, set requiresPlayerInput to true and temp_actor_id to that player's id.
{{schema}}`

const defaultQueryPrompt = `It is {{actor}}'s turn. The player asks: "{{input}}"
Recent combat log:
{{log}}
Answer the question clearly in the keeper's voice, grounded in the rules and the current state, and guide the player toward declaring an action. Do not resolve anything.`

const defaultOOCPrompt = `It is {{actor}}'s turn. The player says (out of character): "{{input}}"
Recent combat log:
{{log}}
Reply briefly and helpfully as the keeper at the table, then steer the player back to the fight.`

const defaultNarratorPrompt = `Narrate the latest events of the fight for the players.
Participants: {{participants}}
Map: {{map}}
Events: {{log}}
Produce one vivid, atmospheric passage: include the dice rolled and their results woven into the prose, keep every participant distinct by name, mention roughly where each one is, and state concrete consequences (damage dealt, status changes). If it is now a player's turn, tell them so. Give no tactical advice and use no speaker tags.`

const defaultScenePrompt = `Describe the opening of a combat encounter in the scenario "{{scenario}}".
Map: {{map}}
Two or three sentences of creeping dread setting the scene. No dice, no mechanics, no speaker tags.`

func render(tmpl string, repl map[string]string) string {
	out := tmpl
	for k, v := range repl {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return out
}

func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func snapshotTokens(snap Snapshot) map[string]string {
	return map[string]string{
		"round":        fmt.Sprintf("%d", snap.RoundNumber),
		"actor":        snap.Actor.Name,
		"actor_info":   mustJSON(snap.Actor),
		"input":        snap.PlayerInput,
		"is_temp":      fmt.Sprintf("%t", snap.IsTempActor),
		"context":      strings.Join(snap.RecentContext, "\n"),
		"log":          strings.Join(snap.CombatLog, "\n"),
		"map":          mustJSON(snap.Map),
		"participants": mustJSON(snap.Participants),
		"schema":       outcomeSchema,
	}
}

func promptOrDefault(override, def string) string {
	if override != "" {
		return override
	}
	return def
}
