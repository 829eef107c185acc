package storage

import (
	"github.com/vohyz/cocFightAgent/internal/game"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenAndMigrate opens the SQLite database at the given path and keeps the
// schema updated via AutoMigrate. Encounter documents live in JSON columns,
// so schema churn is limited to the scalar fields.
func OpenAndMigrate(dataSourceName string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&game.Encounter{}, &game.SceneIntro{}); err != nil {
		return nil, err
	}
	return db, nil
}
