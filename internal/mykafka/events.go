package mykafka

import (
	"time"

	"github.com/Skotchmaster/toptunez/internal/models"
)

const (
	TopicTunes = "tune_events"
	TopicUsers = "user_events"
)

const (
	EventTuneCreated  = "tune_created"
	EventTuneVoted    = "tune_voted"
	EventUserSignedUp = "user_signed_up"
	EventUserLoggedIn = "user_logged_in"
	EventMFAToggled   = "mfa_toggled"
)

type TuneEvent struct {
	Type      string    `json:"type"`
	TuneID    string    `json:"tuneID"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Album     *string   `json:"album,omitempty"`
	URL       *string   `json:"url,omitempty"`
	Score     int       `json:"score"`
	VoteCount int       `json:"voteCount"`
	Offset    int       `json:"offset,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	At        time.Time `json:"at"`
}

func NewTuneEvent(kind string, t *models.Tune, offset int) TuneEvent {
	return TuneEvent{
		Type:      kind,
		TuneID:    t.ID.String(),
		Title:     t.Title,
		Artist:    t.Artist,
		Album:     t.Album,
		URL:       t.URL,
		Score:     t.Score,
		VoteCount: t.VoteCount(),
		Offset:    offset,
		CreatedAt: t.CreatedAt,
		At:        time.Now().UTC(),
	}
}

type UserEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"userID"`
	Email      string    `json:"email"`
	MFAEnabled *bool     `json:"mfaEnabled,omitempty"`
	At         time.Time `json:"at"`
}

func NewUserEvent(kind string, u *models.User) UserEvent {
	return UserEvent{
		Type:   kind,
		UserID: u.ID.String(),
		Email:  u.Email,
		At:     time.Now().UTC(),
	}
}
