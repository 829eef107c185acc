package game

import (
	"gorm.io/gorm"
)

// Faction identifies which side of the encounter a participant fights on.
type Faction string

const (
	FactionInvestigator Faction = "investigator"
	FactionEnemy        Faction = "enemy"
)

// ParticipantStatus is the lifecycle state of a combatant.
type ParticipantStatus string

const (
	StatusActive      ParticipantStatus = "active"
	StatusUnconscious ParticipantStatus = "unconscious"
	StatusDead        ParticipantStatus = "dead"
	StatusInsane      ParticipantStatus = "insane"
	StatusFled        ParticipantStatus = "fled"
)

// Well-known stat keys. Stats is an open map; not all keys are required
// for every participant.
const (
	StatHP    = "HP"
	StatMaxHP = "max_HP"
	StatSAN   = "SAN"
	StatDEX   = "DEX"
)

// DefaultDEX is assumed for initiative when a participant has no DEX stat.
const DefaultDEX = 50

// Participant is one combatant (investigator or enemy). It is owned by the
// Encounter and mutated only by whole-object replacement matched by ID.
type Participant struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Faction Faction           `json:"faction"`
	Stats   map[string]int    `json:"stats"`
	Status  ParticipantStatus `json:"status"`
	Effects []string          `json:"effects"`
	Items   []string          `json:"items"`
}

// Stat returns the named stat or def when the key is absent.
func (p *Participant) Stat(key string, def int) int {
	if v, ok := p.Stats[key]; ok {
		return v
	}
	return def
}

// Incapacitated reports whether the participant can no longer act:
// HP at or below zero, or any non-active status.
func (p *Participant) Incapacitated() bool {
	return p.Stat(StatHP, 0) <= 0 || p.Status != StatusActive
}

// MapZone describes one named area of the static encounter map.
type MapZone struct {
	Description   string   `json:"description"`
	AdjacentZones []string `json:"adjacent_zones"`
	Properties    []string `json:"properties"`
}

// Map is the static, read-only layout of the encounter location.
type Map struct {
	Name  string             `json:"name"`
	Zones map[string]MapZone `json:"zones"`
}

// Intent is the classification of raw player text.
type Intent string

const (
	IntentNone         Intent = ""
	IntentDirectAction Intent = "direct_action"
	IntentQuery        Intent = "query"
	IntentOOC          Intent = "ooc"
	IntentFuzzy        Intent = "fuzzy_intent"
)

// Encounter lifecycle status values.
const (
	StatusInProgress = "in_progress"
	StatusFinished   = "finished"
	StatusExpired    = "expired"
)

// recentContextCap bounds the rolling window of exchanged messages kept as
// collaborator context.
const recentContextCap = 10

// Encounter is the persisted orchestration record for one combat session.
// Document-style fields are stored as JSON columns; there is exactly one
// row per session id.
type Encounter struct {
	gorm.Model
	SessionID    string `json:"session_id" gorm:"uniqueIndex"`
	ScenarioName string `json:"scenario_name"`
	Status       string `json:"status"`

	Participants    []Participant `json:"participants" gorm:"serializer:json"`
	InitiativeOrder []string      `json:"initiative_order" gorm:"serializer:json"`
	RoundNumber     int           `json:"round_number"`
	// CurrentActorIndex is -1 when no actor is selected yet (about to
	// advance); otherwise an index into InitiativeOrder.
	CurrentActorIndex int `json:"current_actor_index"`
	// TempActorID names an out-of-order interrupt actor (for example a
	// forced defensive reaction). Empty means unset.
	TempActorID string `json:"temp_actor_id"`

	RoundEnded          bool   `json:"round_ended"`
	FightEnded          bool   `json:"fight_ended"`
	RequiresPlayerInput bool   `json:"requires_player_input"`
	ClassifiedIntent    Intent `json:"classified_intent"`
	IsValidAction       bool   `json:"is_valid_action"`

	CombatLog     []string `json:"combat_log" gorm:"serializer:json"`
	RecentContext []string `json:"recent_context" gorm:"serializer:json"`
	LastNarration string   `json:"last_narration" gorm:"type:text"`

	Map Map `json:"map" gorm:"serializer:json"`
}

// FindParticipant returns the participant with the given id, or nil.
func (e *Encounter) FindParticipant(id string) *Participant {
	for i := range e.Participants {
		if e.Participants[i].ID == id {
			return &e.Participants[i]
		}
	}
	return nil
}

// ActiveParticipants returns the participants whose status is active.
func (e *Encounter) ActiveParticipants() []Participant {
	out := make([]Participant, 0, len(e.Participants))
	for _, p := range e.Participants {
		if p.Status == StatusActive {
			out = append(out, p)
		}
	}
	return out
}

// FactionIncapacitated reports whether every participant of the faction is
// out of the fight. This is the fight-end condition evaluated before every
// actor-advancement decision.
func (e *Encounter) FactionIncapacitated(f Faction) bool {
	for i := range e.Participants {
		p := &e.Participants[i]
		if p.Faction != f {
			continue
		}
		if !p.Incapacitated() {
			return false
		}
	}
	return true
}

// CurrentActorID resolves the id of the actor the turn pointer targets.
// A set TempActorID takes precedence over the initiative pointer.
func (e *Encounter) CurrentActorID() string {
	if e.TempActorID != "" {
		return e.TempActorID
	}
	if e.CurrentActorIndex < 0 || e.CurrentActorIndex >= len(e.InitiativeOrder) {
		return ""
	}
	return e.InitiativeOrder[e.CurrentActorIndex]
}

// AppendLog adds entries to the combat log. The log is append-only.
func (e *Encounter) AppendLog(entries ...string) {
	e.CombatLog = append(e.CombatLog, entries...)
}

// PushContext appends a message to the bounded rolling context window.
func (e *Encounter) PushContext(msg string) {
	if msg == "" {
		return
	}
	e.RecentContext = append(e.RecentContext, msg)
	if len(e.RecentContext) > recentContextCap {
		e.RecentContext = e.RecentContext[len(e.RecentContext)-recentContextCap:]
	}
}

// SceneIntro caches the generated opening-scene description for a scenario
// so repeated encounters of the same scenario reuse one generation.
type SceneIntro struct {
	gorm.Model
	ScenarioKey string `json:"scenario_key" gorm:"uniqueIndex"`
	Description string `json:"description" gorm:"type:text"`
}

// TableName keeps the cache table name explicit.
func (SceneIntro) TableName() string { return "scene_intro_cache" }
