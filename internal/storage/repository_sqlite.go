package storage

import (
	"errors"
	"time"

	"github.com/vohyz/cocFightAgent/internal/game"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sqliteRepository struct {
	db *gorm.DB
}

// NewSQLiteRepository wraps a gorm DB handle in the Repository interface.
func NewSQLiteRepository(db *gorm.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) CreateEncounter(e *game.Encounter) error {
	return r.db.Create(e).Error
}

func (r *sqliteRepository) GetEncounterBySessionID(sessionID string) (*game.Encounter, error) {
	var e game.Encounter
	if err := r.db.Where("session_id = ?", sessionID).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEncounterNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *sqliteRepository) UpdateEncounter(e *game.Encounter) error {
	return r.db.Save(e).Error
}

func (r *sqliteRepository) FindStaleEncounters(cutoff time.Time) ([]game.Encounter, error) {
	var encounters []game.Encounter
	err := r.db.
		Where("status = ? AND updated_at <= ?", game.StatusInProgress, cutoff).
		Order("updated_at asc").
		Find(&encounters).Error
	if err != nil {
		return nil, err
	}
	return encounters, nil
}

func (r *sqliteRepository) GetSceneIntroByKey(key string) (*game.SceneIntro, error) {
	var si game.SceneIntro
	if err := r.db.Where("scenario_key = ?", key).First(&si).Error; err != nil {
		return nil, err
	}
	return &si, nil
}

func (r *sqliteRepository) SaveSceneIntro(key, description string) error {
	si := game.SceneIntro{ScenarioKey: key, Description: description}
	// Upsert keyed by scenario_key so a concurrent save never fails on the
	// unique constraint.
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scenario_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"description"}),
	}).Create(&si).Error
}
