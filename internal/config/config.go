package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vohyz/cocFightAgent/internal/game"
)

type participantEntry struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Faction string         `json:"faction"`
	Stats   map[string]int `json:"stats"`
	Effects []string       `json:"effects"`
	Items   []string       `json:"items"`
}

type zoneEntry struct {
	Description   string   `json:"description"`
	AdjacentZones []string `json:"adjacent_zones"`
	Properties    []string `json:"properties"`
}

type rawConfig struct {
	ScenarioName string             `json:"scenario_name"`
	Participants []participantEntry `json:"participants"`
	Map          *struct {
		Name  string               `json:"name"`
		Zones map[string]zoneEntry `json:"zones"`
	} `json:"map"`
	Server *struct {
		Address string `json:"address"`
	} `json:"server"`
	// Turn budget for a single sequencer invocation. Zero means the
	// default of 50.
	MaxSequencerPasses int `json:"max_sequencer_passes"`
	// Idle in-progress encounters older than this are expired by the
	// background sweep. Zero disables expiry.
	EncounterTTLHours int `json:"encounter_ttl_hours"`
	// Optional prompt template overrides. Each uses the {{token}} syntax
	// documented on the narrative package defaults; omitted entries keep
	// the built-in prompt.
	TriagePrompt   string `json:"triage_prompt"`
	MonsterPrompt  string `json:"monster_prompt"`
	ActionPrompt   string `json:"action_prompt"`
	QueryPrompt    string `json:"query_prompt"`
	OOCPrompt      string `json:"ooc_prompt"`
	NarratorPrompt string `json:"narrator_prompt"`
	ScenePrompt    string `json:"scene_prompt"`
}

// LoadedConfig contains the scenario to seed new encounters from and the
// server settings.
type LoadedConfig struct {
	ScenarioName       string
	Participants       []game.Participant
	Map                game.Map
	ServerAddress      string
	MaxSequencerPasses int
	EncounterTTL       time.Duration

	TriagePromptTemplate   string
	MonsterPromptTemplate  string
	ActionPromptTemplate   string
	QueryPromptTemplate    string
	OOCPromptTemplate      string
	NarratorPromptTemplate string
	ScenePromptTemplate    string
}

// LoadConfig reads the configuration file at path and returns the scenario
// roster, map and server settings. It requires the key `participants`
// (snake_case) with at least one entry per faction.
func LoadConfig(path string) (*LoadedConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var rc rawConfig
	if err := json.Unmarshal(b, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if len(rc.Participants) == 0 {
		return nil, fmt.Errorf("config file %s: participants is empty (provide 'participants' array)", path)
	}

	out := make([]game.Participant, 0, len(rc.Participants))
	idSet := make(map[string]struct{}, len(rc.Participants))
	factionCount := map[game.Faction]int{}
	for _, pe := range rc.Participants {
		id := strings.TrimSpace(pe.ID)
		if id == "" {
			return nil, fmt.Errorf("config file %s: participant entry missing 'id'", path)
		}
		if _, exists := idSet[id]; exists {
			return nil, fmt.Errorf("config file %s: duplicate participant id '%s'", path, id)
		}
		idSet[id] = struct{}{}

		faction := game.Faction(strings.TrimSpace(pe.Faction))
		switch faction {
		case game.FactionInvestigator, game.FactionEnemy:
		default:
			return nil, fmt.Errorf("config file %s: participant '%s' has unknown faction '%s'", path, id, pe.Faction)
		}
		factionCount[faction]++

		name := strings.TrimSpace(pe.Name)
		if name == "" {
			name = id
		}
		stats := pe.Stats
		if stats == nil {
			stats = map[string]int{}
		}
		out = append(out, game.Participant{
			ID:      id,
			Name:    name,
			Faction: faction,
			Stats:   stats,
			Status:  game.StatusActive,
			Effects: pe.Effects,
			Items:   pe.Items,
		})
	}
	if factionCount[game.FactionInvestigator] == 0 {
		return nil, fmt.Errorf("config file %s: no participant with faction '%s'", path, game.FactionInvestigator)
	}
	if factionCount[game.FactionEnemy] == 0 {
		return nil, fmt.Errorf("config file %s: no participant with faction '%s'", path, game.FactionEnemy)
	}

	m := game.Map{Zones: map[string]game.MapZone{}}
	if rc.Map != nil {
		m.Name = rc.Map.Name
		for id, ze := range rc.Map.Zones {
			m.Zones[id] = game.MapZone{
				Description:   ze.Description,
				AdjacentZones: ze.AdjacentZones,
				Properties:    ze.Properties,
			}
		}
		// Adjacency must reference declared zones, otherwise movement
		// narration points at nowhere.
		for id, z := range m.Zones {
			for _, adj := range z.AdjacentZones {
				if _, ok := m.Zones[adj]; !ok {
					return nil, fmt.Errorf("config file %s: zone '%s' lists unknown adjacent zone '%s'", path, id, adj)
				}
			}
		}
	}

	addr := ":8080"
	if rc.Server != nil && rc.Server.Address != "" {
		addr = rc.Server.Address
	}

	passes := rc.MaxSequencerPasses
	if passes <= 0 {
		passes = 50
	}

	scenario := strings.TrimSpace(rc.ScenarioName)
	if scenario == "" {
		scenario = "Unnamed Encounter"
	}

	return &LoadedConfig{
		ScenarioName:       scenario,
		Participants:       out,
		Map:                m,
		ServerAddress:      addr,
		MaxSequencerPasses: passes,
		EncounterTTL:       time.Duration(rc.EncounterTTLHours) * time.Hour,

		TriagePromptTemplate:   strings.TrimSpace(rc.TriagePrompt),
		MonsterPromptTemplate:  strings.TrimSpace(rc.MonsterPrompt),
		ActionPromptTemplate:   strings.TrimSpace(rc.ActionPrompt),
		QueryPromptTemplate:    strings.TrimSpace(rc.QueryPrompt),
		OOCPromptTemplate:      strings.TrimSpace(rc.OOCPrompt),
		NarratorPromptTemplate: strings.TrimSpace(rc.NarratorPrompt),
		ScenePromptTemplate:    strings.TrimSpace(rc.ScenePrompt),
	}, nil
}
