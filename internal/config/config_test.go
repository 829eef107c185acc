package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

const validConfig = `{
  "scenario_name": "Warehouse Ambush",
  "participants": [
    {"id": "sarah", "name": "Sarah", "faction": "investigator", "stats": {"HP": 10, "DEX": 60}},
    {"id": "ghoul", "name": "Ghoul", "faction": "enemy", "stats": {"HP": 12, "DEX": 85}}
  ],
  "map": {
    "name": "Old Warehouse",
    "zones": {
      "entrance": {"description": "A rusted door.", "adjacent_zones": ["floor"]},
      "floor": {"description": "Open crates.", "adjacent_zones": ["entrance"]}
    }
  },
  "server": {"address": ":9090"},
  "max_sequencer_passes": 25,
  "encounter_ttl_hours": 48
}`

func TestLoadConfig_Valid(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ScenarioName != "Warehouse Ambush" {
		t.Fatalf("scenario name = %q", cfg.ScenarioName)
	}
	if len(cfg.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(cfg.Participants))
	}
	if cfg.ServerAddress != ":9090" {
		t.Fatalf("server address = %q", cfg.ServerAddress)
	}
	if cfg.MaxSequencerPasses != 25 {
		t.Fatalf("max passes = %d", cfg.MaxSequencerPasses)
	}
	if cfg.EncounterTTL.Hours() != 48 {
		t.Fatalf("ttl = %v", cfg.EncounterTTL)
	}
	if len(cfg.Map.Zones) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(cfg.Map.Zones))
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{
  "participants": [
    {"id": "a", "faction": "investigator"},
    {"id": "b", "faction": "enemy"}
  ]
}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerAddress != ":8080" {
		t.Fatalf("default address = %q", cfg.ServerAddress)
	}
	if cfg.MaxSequencerPasses != 50 {
		t.Fatalf("default max passes = %d", cfg.MaxSequencerPasses)
	}
	if cfg.Participants[0].Name != "a" {
		t.Fatalf("name should default to id, got %q", cfg.Participants[0].Name)
	}
	if cfg.ScenarioName != "Unnamed Encounter" {
		t.Fatalf("default scenario name = %q", cfg.ScenarioName)
	}
}

func TestLoadConfig_Rejections(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"empty participants", `{"participants": []}`, "participants is empty"},
		{"missing id", `{"participants": [{"faction": "investigator"}, {"id": "b", "faction": "enemy"}]}`, "missing 'id'"},
		{"duplicate id", `{"participants": [{"id": "a", "faction": "investigator"}, {"id": "a", "faction": "enemy"}]}`, "duplicate participant id"},
		{"bad faction", `{"participants": [{"id": "a", "faction": "bystander"}, {"id": "b", "faction": "enemy"}]}`, "unknown faction"},
		{"no investigators", `{"participants": [{"id": "a", "faction": "enemy"}]}`, "no participant with faction 'investigator'"},
		{"no enemies", `{"participants": [{"id": "a", "faction": "investigator"}]}`, "no participant with faction 'enemy'"},
		{"dangling adjacency", `{
  "participants": [{"id": "a", "faction": "investigator"}, {"id": "b", "faction": "enemy"}],
  "map": {"zones": {"entrance": {"adjacent_zones": ["nowhere"]}}}
}`, "unknown adjacent zone"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.body))
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not contain %q", err.Error(), tc.want)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
