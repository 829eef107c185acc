package engine

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/vohyz/cocFightAgent/internal/game"
)

func participantsFixture() []game.Participant {
	return []game.Participant{
		{ID: "sarah", Name: "Sarah", Faction: game.FactionInvestigator, Stats: map[string]int{"HP": 10, "DEX": 30}, Status: game.StatusActive},
		{ID: "ghoul", Name: "Ghoul", Faction: game.FactionEnemy, Stats: map[string]int{"HP": 12, "DEX": 85}, Status: game.StatusActive},
		{ID: "tom", Name: "Tom", Faction: game.FactionInvestigator, Stats: map[string]int{"HP": 9}, Status: game.StatusActive},
	}
}

func TestRollInitiative_Permutation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ps := participantsFixture()
	for i := 0; i < 25; i++ {
		order, line := RollInitiative(ps, rng)
		if len(order) != len(ps) {
			t.Fatalf("expected %d ids, got %d", len(ps), len(order))
		}
		seen := map[string]bool{}
		for _, id := range order {
			if seen[id] {
				t.Fatalf("duplicate id %q in order %v", id, order)
			}
			seen[id] = true
		}
		for _, p := range ps {
			if !seen[p.ID] {
				t.Fatalf("id %q missing from order %v", p.ID, order)
			}
			if !strings.Contains(line, p.ID) {
				t.Fatalf("log line %q does not mention %q", line, p.ID)
			}
		}
	}
}

func TestRollInitiative_HighDexActsFirstOnAverage(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ps := []game.Participant{
		{ID: "slow", Stats: map[string]int{"DEX": 10}, Status: game.StatusActive},
		{ID: "fast", Stats: map[string]int{"DEX": 90}, Status: game.StatusActive},
	}
	fastFirst := 0
	const trials = 200
	for i := 0; i < trials; i++ {
		order, _ := RollInitiative(ps, rng)
		if order[0] == "fast" {
			fastFirst++
		}
	}
	if fastFirst <= trials/2 {
		t.Fatalf("expected high-DEX participant to usually act first, got %d/%d", fastFirst, trials)
	}
}

func TestRollInitiative_DefaultDexWhenAbsent(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	ps := []game.Participant{{ID: "nodex", Status: game.StatusActive}}
	order, _ := RollInitiative(ps, rng)
	if len(order) != 1 || order[0] != "nodex" {
		t.Fatalf("expected single-id order, got %v", order)
	}
}
