package narrative

import (
	"testing"

	"github.com/vohyz/cocFightAgent/internal/game"
)

func TestExtractOutcome_FencedJSON(t *testing.T) {
	raw := "The ghoul lashes out.\n```json\n{\"isValid\": true, \"description\": \"claws rake the arm\", \"result\": [{\"id\": \"ghoul\", \"name\": \"Ghoul\", \"faction\": \"enemy\", \"stats\": {\"HP\": 9}, \"status\": \"active\"}], \"requiresPlayerInput\": true, \"temp_actor_id\": \"sarah\"}\n```"
	oc := extractOutcome(raw, false)
	if !oc.IsValid {
		t.Fatalf("expected isValid=true")
	}
	if oc.Description != "claws rake the arm" {
		t.Fatalf("unexpected description: %q", oc.Description)
	}
	if len(oc.Result) != 1 || oc.Result[0].ID != "ghoul" || oc.Result[0].Stats["HP"] != 9 {
		t.Fatalf("unexpected result list: %+v", oc.Result)
	}
	if !oc.RequiresPlayerInput || oc.TempActorID != "sarah" {
		t.Fatalf("expected requiresPlayerInput and temp actor, got %+v", oc)
	}
}

func TestExtractOutcome_BareJSON(t *testing.T) {
	raw := `{"isValid": false, "description": "you cannot reach the rafters from here"}`
	oc := extractOutcome(raw, true)
	if oc.IsValid {
		t.Fatalf("expected isValid=false from parsed blob")
	}
	if oc.Description == "" || len(oc.Result) != 0 {
		t.Fatalf("unexpected outcome: %+v", oc)
	}
}

func TestExtractOutcome_FreeTextFallback(t *testing.T) {
	raw := "  The shadows deepen as the ghoul circles you.  "
	oc := extractOutcome(raw, true)
	if oc.Description != "The shadows deepen as the ghoul circles you." {
		t.Fatalf("expected whole response as description, got %q", oc.Description)
	}
	if len(oc.Result) != 0 || oc.RequiresPlayerInput {
		t.Fatalf("fallback must carry no state changes: %+v", oc)
	}
	if !oc.IsValid {
		t.Fatalf("monster-turn fallback should keep the narration")
	}
}

func TestExtractOutcome_ActionParseFailureInvalid(t *testing.T) {
	// An action-validating handler must not accept an unparsed response.
	oc := extractOutcome("```json\n{not valid json}\n```", false)
	if oc.IsValid {
		t.Fatalf("parse failure must fall back to isValid=false")
	}
}

func TestExtractOutcome_ParticipantRoundTrip(t *testing.T) {
	raw := `{"description": "d", "result": [{"id": "p1", "name": "Sarah", "faction": "investigator", "stats": {"HP": 7, "DEX": 60}, "status": "active", "effects": ["bleeding"], "items": ["revolver"]}]}`
	oc := extractOutcome(raw, true)
	p := oc.Result[0]
	if p.Faction != game.FactionInvestigator || p.Status != game.StatusActive {
		t.Fatalf("unexpected participant: %+v", p)
	}
	if len(p.Effects) != 1 || p.Effects[0] != "bleeding" {
		t.Fatalf("effects not preserved: %+v", p.Effects)
	}
}
