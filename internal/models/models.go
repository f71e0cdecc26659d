package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Tune struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"            json:"id"`
	Album     *string   `gorm:"index"                           json:"album,omitempty"`
	Artist    string    `gorm:"not null;index"                  json:"artist"`
	Title     string    `gorm:"not null;index"                  json:"title"`
	URL       *string   `gorm:"column:url"                      json:"url,omitempty"`
	Score     int       `gorm:"not null;default:0;index"        json:"score"`
	CreatedAt time.Time `gorm:"index"                           json:"createdAt"`
	UpdatedAt time.Time `                                       json:"updatedAt"`
	Votes     []Vote    `gorm:"constraint:OnDelete:CASCADE"     json:"votes"`
}

func (t *Tune) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (Tune) TableName() string {
	return "tunes"
}

func (t *Tune) VoteCount() int {
	return len(t.Votes)
}

// Vote ids grow with insertion, so ordering by id is chronological.
type Vote struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"         json:"-"`
	TuneID    uuid.UUID `gorm:"type:uuid;not null;index"         json:"-"`
	Offset    int       `gorm:"column:vote_offset;not null"      json:"offset"`
	Comment   *string   `                                        json:"comment,omitempty"`
	CreatedAt time.Time `                                        json:"createdAt"`
}

func (Vote) TableName() string {
	return "tune_votes"
}
