package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/toptunez/internal/logging"
	"github.com/Skotchmaster/toptunez/internal/metrics"
	"github.com/Skotchmaster/toptunez/internal/models"
	"github.com/Skotchmaster/toptunez/internal/mykafka"
	"github.com/Skotchmaster/toptunez/internal/repo"
	"github.com/Skotchmaster/toptunez/internal/util"
)

// Matcher resolves a text query to matching tune ids using an external index.
type Matcher interface {
	MatchIDs(ctx context.Context, query string) ([]uuid.UUID, error)
}

type TuneService struct {
	Repo   *repo.GormRepo
	Events mykafka.Publisher
	// Index replaces database text matching when set.
	Index Matcher
}

type SearchParams struct {
	Filter   string
	Page     int
	PageSize int
	Sorting  string
}

type SearchResult struct {
	Links    util.Links
	Tunes    []models.Tune
	Total    int64
	Page     int
	PageSize int
}

type TuneInput struct {
	Album  string
	Artist string
	Title  string
	URL    string
}

type VoteOutcome struct {
	Tune *models.Tune
	// Vote is nil when the offset was zero.
	Vote *models.Vote
}

func (s *TuneService) Search(ctx context.Context, p SearchParams) (*SearchResult, error) {
	page, size := util.Normalize(p.Page, p.PageSize)

	sorting := p.Sorting
	if sorting == "" {
		sorting = DefaultSorting
	}
	if !ValidSortSpec(sorting) {
		return nil, fmt.Errorf("unsupported sort %q: %w", sorting, ErrValidation)
	}

	q := repo.TuneQuery{Filter: strings.TrimSpace(p.Filter), Sort: sorting}
	q.Offset, q.Limit = util.Calculate(page, size)

	if q.Filter != "" && s.Index != nil {
		ids, err := s.Index.MatchIDs(ctx, q.Filter)
		if err != nil {
			return nil, fmt.Errorf("match tunes: %w", err)
		}
		if ids == nil {
			ids = []uuid.UUID{}
		}
		q.Filter, q.IDs = "", ids
	}

	total, err := s.Repo.CountTunes(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count tunes: %w", err)
	}
	tunes, err := s.Repo.ListTunes(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tunes: %w", err)
	}

	return &SearchResult{
		Links:    util.Descriptors(page, size, total),
		Tunes:    tunes,
		Total:    total,
		Page:     page,
		PageSize: size,
	}, nil
}

func (s *TuneService) Get(ctx context.Context, id uuid.UUID) (*models.Tune, error) {
	tune, err := s.Repo.GetTune(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("tune %s: %w", id, ErrNotFound)
	}
	return tune, err
}

func optional(v string) *string {
	if v = strings.TrimSpace(v); v == "" {
		return nil
	}
	return &v
}

func validTuneURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (s *TuneService) Create(ctx context.Context, in TuneInput) (*models.Tune, error) {
	l := logging.FromContext(ctx).With("svc", "tunes.create")

	tune := models.Tune{
		Album:  optional(in.Album),
		Artist: strings.TrimSpace(in.Artist),
		Title:  strings.TrimSpace(in.Title),
		URL:    optional(in.URL),
	}
	if tune.Artist == "" {
		return nil, fmt.Errorf("artist is required: %w", ErrValidation)
	}
	if tune.Title == "" {
		return nil, fmt.Errorf("title is required: %w", ErrValidation)
	}
	if tune.URL != nil && !validTuneURL(*tune.URL) {
		return nil, fmt.Errorf("url must be an absolute http(s) URL: %w", ErrValidation)
	}

	if err := s.Repo.CreateTune(ctx, &tune); err != nil {
		l.Error("create_tune_error", "status", 500, "error", err)
		return nil, err
	}
	tune.Votes = []models.Vote{}

	metrics.TunesCreated.Inc()
	s.publish(ctx, mykafka.NewTuneEvent(mykafka.EventTuneCreated, &tune, 0))
	return &tune, nil
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}

// Vote applies a sign-normalized offset and returns the tune as stored after
// the vote. A zero offset changes nothing.
func (s *TuneService) Vote(ctx context.Context, tuneID uuid.UUID, offset int, comment string) (*VoteOutcome, error) {
	offset = sign(offset)
	if offset == 0 {
		tune, err := s.Get(ctx, tuneID)
		if err != nil {
			return nil, err
		}
		return &VoteOutcome{Tune: tune}, nil
	}

	vote := models.Vote{Offset: offset, Comment: optional(comment)}
	if err := s.Repo.ApplyVote(ctx, tuneID, &vote); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tune %s: %w", tuneID, ErrNotFound)
		}
		logging.FromContext(ctx).Error("vote_error", "svc", "tunes.vote", "status", 500, "error", err)
		return nil, err
	}

	tune, err := s.Get(ctx, tuneID)
	if err != nil {
		return nil, err
	}

	metrics.RecordVote(offset)
	s.publish(ctx, mykafka.NewTuneEvent(mykafka.EventTuneVoted, tune, offset))
	return &VoteOutcome{Tune: tune, Vote: &vote}, nil
}

func (s *TuneService) DeleteAll(ctx context.Context) error {
	return s.Repo.DeleteAllTunes(ctx)
}

func (s *TuneService) publish(ctx context.Context, evt mykafka.TuneEvent) {
	publishEvent(ctx, s.Events, mykafka.TopicTunes, evt.TuneID, evt)
}

// publishEvent is best effort: a failed publish is logged and counted.
func publishEvent(ctx context.Context, p mykafka.Publisher, topic, key string, evt any) {
	if p == nil {
		return
	}
	if err := p.PublishEvent(ctx, topic, key, evt); err != nil {
		metrics.EventsFailed.WithLabelValues(topic).Inc()
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", topic, "key", key, "error", err)
	}
}
