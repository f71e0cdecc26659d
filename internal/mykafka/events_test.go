package mykafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/toptunez/internal/models"
)

func TestNewTuneEvent(t *testing.T) {
	album := "Kenia"
	tune := &models.Tune{
		ID:        uuid.New(),
		Title:     "Kenia",
		Artist:    "Joachim Pastor",
		Album:     &album,
		Score:     2,
		CreatedAt: time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
		Votes:     []models.Vote{{Offset: 1}, {Offset: 1}},
	}

	evt := NewTuneEvent(EventTuneVoted, tune, 1)
	raw, err := json.Marshal(evt)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "tune_voted", body["type"])
	assert.Equal(t, tune.ID.String(), body["tuneID"])
	assert.Equal(t, "Kenia", body["album"])
	assert.EqualValues(t, 2, body["voteCount"])
	assert.EqualValues(t, 1, body["offset"])
	assert.NotContains(t, body, "url")
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	require.NoError(t, p.PublishEvent(context.Background(), TopicTunes, "k", struct{}{}))
	require.NoError(t, p.Close())
}
