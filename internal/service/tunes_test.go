package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/toptunez/internal/mykafka"
	"github.com/Skotchmaster/toptunez/internal/util"
)

func titles(res *SearchResult) []string {
	out := make([]string, 0, len(res.Tunes))
	for _, t := range res.Tunes {
		out = append(out, t.Title)
	}
	return out
}

func TestTuneService_Search_DefaultsToMostRecent(t *testing.T) {
	env := newTestEnv(t)
	seedTunes(t, env)

	res, err := env.Tunes.Search(context.Background(), SearchParams{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Sky", "Kenia", "World Falls Apart"}, titles(res))
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, util.DefaultPageSize, res.PageSize)
	assert.EqualValues(t, 3, res.Total)
	assert.Empty(t, res.Links)
}

func TestTuneService_Search_Paging(t *testing.T) {
	env := newTestEnv(t)
	seedTunes(t, env)
	ctx := context.Background()

	first, err := env.Tunes.Search(ctx, SearchParams{Page: 1, PageSize: 1, Sorting: "createdAt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"World Falls Apart"}, titles(first))
	assert.Equal(t, util.Links{
		util.RelNext: {Page: 2, PageSize: 1},
		util.RelLast: {Page: 3, PageSize: 1},
	}, first.Links)

	last, err := env.Tunes.Search(ctx, SearchParams{Page: 3, PageSize: 1, Sorting: "createdAt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sky"}, titles(last))
	assert.Equal(t, util.Links{
		util.RelFirst: {Page: 1, PageSize: 1},
		util.RelPrev:  {Page: 2, PageSize: 1},
	}, last.Links)
}

func TestTuneService_Search_LargePageSize(t *testing.T) {
	env := newTestEnv(t)
	seedTunes(t, env)

	res, err := env.Tunes.Search(context.Background(), SearchParams{PageSize: 150})
	require.NoError(t, err)

	assert.Equal(t, 150, res.PageSize)
	assert.Len(t, res.Tunes, 3)
	assert.Empty(t, res.Links)

	res, err = env.Tunes.Search(context.Background(), SearchParams{Page: 2, PageSize: 150})
	require.NoError(t, err)
	assert.Empty(t, res.Tunes)
	assert.Equal(t, util.Links{
		util.RelFirst: {Page: 1, PageSize: 150},
		util.RelPrev:  {Page: 1, PageSize: 150},
	}, res.Links)
}

func TestTuneService_Search_Sorting(t *testing.T) {
	env := newTestEnv(t)
	seedTunes(t, env)
	ctx := context.Background()

	res, err := env.Tunes.Search(ctx, SearchParams{Sorting: MapTuneSorting(TitleAsc)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Kenia", "Sky", "World Falls Apart"}, titles(res))

	res, err = env.Tunes.Search(ctx, SearchParams{Sorting: MapTuneSorting(ArtistDesc)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Kenia", "Sky", "World Falls Apart"}, titles(res))

	_, err = env.Tunes.Search(ctx, SearchParams{Sorting: "-votes"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTuneService_Search_Filter(t *testing.T) {
	env := newTestEnv(t)
	seedTunes(t, env)

	res, err := env.Tunes.Search(context.Background(), SearchParams{Filter: "  joachim "})
	require.NoError(t, err)
	assert.Equal(t, []string{"Kenia"}, titles(res))
	assert.EqualValues(t, 1, res.Total)
}

type stubMatcher struct {
	ids   []uuid.UUID
	err   error
	query string
}

func (m *stubMatcher) MatchIDs(_ context.Context, q string) ([]uuid.UUID, error) {
	m.query = q
	return m.ids, m.err
}

func TestTuneService_Search_WithIndex(t *testing.T) {
	env := newTestEnv(t)
	tunes := seedTunes(t, env)
	ctx := context.Background()

	matcher := &stubMatcher{ids: []uuid.UUID{tunes[0].ID, tunes[2].ID}}
	env.Tunes.Index = matcher

	res, err := env.Tunes.Search(ctx, SearchParams{Filter: " anything ", Sorting: "title"})
	require.NoError(t, err)
	assert.Equal(t, "anything", matcher.query)
	assert.Equal(t, []string{"Sky", "World Falls Apart"}, titles(res))
	assert.EqualValues(t, 2, res.Total)

	matcher.ids = nil
	res, err = env.Tunes.Search(ctx, SearchParams{Filter: "nothing"})
	require.NoError(t, err)
	assert.Empty(t, res.Tunes)
	assert.Zero(t, res.Total)

	matcher.err = errors.New("index down")
	_, err = env.Tunes.Search(ctx, SearchParams{Filter: "x"})
	require.Error(t, err)

	res, err = env.Tunes.Search(ctx, SearchParams{})
	require.NoError(t, err)
	assert.Len(t, res.Tunes, 3)
}

func TestTuneService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tune, err := env.Tunes.Create(ctx, TuneInput{Artist: " Dash Berlin ", Title: "World Falls Apart", URL: "https://example.com/wfa"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, tune.ID)
	assert.Equal(t, "Dash Berlin", tune.Artist)
	assert.Nil(t, tune.Album)
	assert.Zero(t, tune.Score)
	assert.Empty(t, tune.Votes)

	events := env.Events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, mykafka.TopicTunes, events[0].Topic)
	assert.Equal(t, mykafka.EventTuneCreated, events[0].Event.(mykafka.TuneEvent).Type)

	tests := []struct {
		name string
		in   TuneInput
	}{
		{name: "missing artist", in: TuneInput{Title: "Kenia"}},
		{name: "missing title", in: TuneInput{Artist: "Joachim Pastor"}},
		{name: "relative url", in: TuneInput{Artist: "a", Title: "b", URL: "/kenia"}},
		{name: "ftp url", in: TuneInput{Artist: "a", Title: "b", URL: "ftp://example.com/x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Tunes.Create(ctx, tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestTuneService_Vote_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	tunes := seedTunes(t, env)
	ctx := context.Background()

	out, err := env.Tunes.Vote(ctx, tunes[1].ID, 1, "  great tune  ")
	require.NoError(t, err)
	assert.Equal(t, 1, out.Tune.Score)
	require.Len(t, out.Tune.Votes, 1)
	require.NotNil(t, out.Vote)
	assert.Equal(t, "great tune", *out.Vote.Comment)

	out, err = env.Tunes.Vote(ctx, tunes[1].ID, -7, "   ")
	require.NoError(t, err)
	assert.Equal(t, 0, out.Tune.Score)
	require.Len(t, out.Tune.Votes, 2)
	assert.Equal(t, 1, out.Tune.Votes[0].Offset)
	assert.Equal(t, -1, out.Tune.Votes[1].Offset)
	assert.Nil(t, out.Tune.Votes[1].Comment)

	sum := 0
	for _, v := range out.Tune.Votes {
		sum += v.Offset
	}
	assert.Equal(t, out.Tune.Score, sum)
}

func TestTuneService_Vote_ZeroIsNoop(t *testing.T) {
	env := newTestEnv(t)
	tunes := seedTunes(t, env)
	ctx := context.Background()

	out, err := env.Tunes.Vote(ctx, tunes[0].ID, 0, "ignored")
	require.NoError(t, err)
	assert.Nil(t, out.Vote)
	assert.Equal(t, 0, out.Tune.Score)
	assert.Empty(t, out.Tune.Votes)
	assert.Empty(t, env.Events.Events())

	_, err = env.Tunes.Vote(ctx, uuid.New(), 0, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTuneService_Vote_UnknownTune(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.Tunes.Vote(context.Background(), uuid.New(), 1, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTuneService_Vote_Concurrent(t *testing.T) {
	env := newTestEnv(t)
	tunes := seedTunes(t, env)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.Tunes.Vote(ctx, tunes[2].ID, 1, ""); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	tune, err := env.Tunes.Get(ctx, tunes[2].ID)
	require.NoError(t, err)
	assert.Equal(t, n, tune.Score)
	assert.Len(t, tune.Votes, n)
}

func TestTuneService_DeleteAll(t *testing.T) {
	env := newTestEnv(t)
	tunes := seedTunes(t, env)
	ctx := context.Background()

	_, err := env.Tunes.Vote(ctx, tunes[0].ID, 1, "")
	require.NoError(t, err)
	require.NoError(t, env.Tunes.DeleteAll(ctx))

	res, err := env.Tunes.Search(ctx, SearchParams{})
	require.NoError(t, err)
	assert.Empty(t, res.Tunes)
}
