package storage

import (
	"errors"
	"time"

	"github.com/vohyz/cocFightAgent/internal/game"
)

// ErrEncounterNotFound is returned when a session id matches no record.
var ErrEncounterNotFound = errors.New("encounter not found")

// Repository is the checkpoint store: one record per encounter, keyed by
// the opaque session id. Implementations must make Update a full-record
// save so a loaded encounter resumes exactly where it suspended.
type Repository interface {
	CreateEncounter(e *game.Encounter) error
	GetEncounterBySessionID(sessionID string) (*game.Encounter, error)
	UpdateEncounter(e *game.Encounter) error
	// FindStaleEncounters returns in-progress encounters whose last
	// update is at or before the cutoff. Callers decide how to expire
	// them.
	FindStaleEncounters(cutoff time.Time) ([]game.Encounter, error)

	// Opening-scene cache (lookup by canonical scenario key).
	GetSceneIntroByKey(key string) (*game.SceneIntro, error)
	SaveSceneIntro(key, description string) error
}
