package db

import (
	"fmt"

	"github.com/Skotchmaster/toptunez/internal/models"
	"gorm.io/gorm"
)

// title, artist and album are weighted A, B and C in the text index.
var postgresSearchDDL = []string{
	`ALTER TABLE tunes ADD COLUMN IF NOT EXISTS search_vector tsvector
	GENERATED ALWAYS AS (
		setweight(to_tsvector('simple', coalesce(title, '')), 'A') ||
		setweight(to_tsvector('simple', coalesce(artist, '')), 'B') ||
		setweight(to_tsvector('simple', coalesce(album, '')), 'C')
	) STORED`,
	`CREATE INDEX IF NOT EXISTS idx_tunes_search_vector ON tunes USING GIN (search_vector)`,
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Tune{}, &models.Vote{}, &models.User{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}
	for _, stmt := range postgresSearchDDL {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migrate search index: %w", err)
		}
	}
	return nil
}
