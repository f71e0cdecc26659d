package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
	"github.com/google/uuid"

	"github.com/Skotchmaster/toptunez/internal/models"
	"github.com/Skotchmaster/toptunez/internal/mykafka"
	"github.com/Skotchmaster/toptunez/internal/repo"
)

const (
	// scrollBatch is the page size used while collecting every matching id.
	scrollBatch   = 1000
	scrollKeep    = time.Minute
	backfillBatch = 500
)

var searchFields = []string{"title^10", "artist^5", "album"}

var indexMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"title":     map[string]any{"type": "text"},
			"artist":    map[string]any{"type": "text"},
			"album":     map[string]any{"type": "text"},
			"score":     map[string]any{"type": "integer"},
			"createdAt": map[string]any{"type": "date"},
		},
	},
}

type TuneDocument struct {
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Album     *string   `json:"album,omitempty"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

func DocumentFromTune(t *models.Tune) TuneDocument {
	return TuneDocument{
		Title:     t.Title,
		Artist:    t.Artist,
		Album:     t.Album,
		Score:     t.Score,
		CreatedAt: t.CreatedAt,
	}
}

func DocumentFromEvent(evt mykafka.TuneEvent) TuneDocument {
	return TuneDocument{
		Title:     evt.Title,
		Artist:    evt.Artist,
		Album:     evt.Album,
		Score:     evt.Score,
		CreatedAt: evt.CreatedAt,
	}
}

type Index struct {
	ES   *elasticsearch.Client
	Name string
}

func encode(v any) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return &buf, nil
}

func responseError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("search %s: %s: %s", op, res.Status(), bytes.TrimSpace(body))
}

func (i *Index) EnsureIndex(ctx context.Context) error {
	res, err := i.ES.Indices.Exists([]string{i.Name}, i.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	body, err := encode(indexMapping)
	if err != nil {
		return err
	}
	res, err = i.ES.Indices.Create(i.Name,
		i.ES.Indices.Create.WithContext(ctx),
		i.ES.Indices.Create.WithBody(body),
	)
	if err != nil {
		return fmt.Errorf("search create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res)
	}
	return nil
}

func (i *Index) IndexTune(ctx context.Context, id string, doc TuneDocument) error {
	body, err := encode(doc)
	if err != nil {
		return err
	}
	res, err := i.ES.Index(i.Name, body,
		i.ES.Index.WithContext(ctx),
		i.ES.Index.WithDocumentID(id),
	)
	if err != nil {
		return fmt.Errorf("search index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index", res)
	}
	return nil
}

// HandleTuneEvent upserts the document carried by a tune_events message.
func (i *Index) HandleTuneEvent(ctx context.Context, value []byte) error {
	var evt mykafka.TuneEvent
	if err := json.Unmarshal(value, &evt); err != nil {
		return fmt.Errorf("decode tune event: %w", err)
	}
	if _, err := uuid.Parse(evt.TuneID); err != nil {
		return fmt.Errorf("tune event without valid id %q", evt.TuneID)
	}
	return i.IndexTune(ctx, evt.TuneID, DocumentFromEvent(evt))
}

type scrollPage struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

func decodeScrollPage(op string, res *esapi.Response) (*scrollPage, error) {
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError(op, res)
	}
	var page scrollPage
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("search decode: %w", err)
	}
	return &page, nil
}

// MatchIDs returns the ids of every tune whose title, artist or album match
// query. Hits are collected with the scroll API so the database can count and
// page over the complete set.
func (i *Index) MatchIDs(ctx context.Context, query string) ([]uuid.UUID, error) {
	body, err := encode(map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": searchFields,
			},
		},
		"size":    scrollBatch,
		"sort":    []string{"_doc"},
		"_source": false,
	})
	if err != nil {
		return nil, err
	}

	res, err := i.ES.Search(
		i.ES.Search.WithContext(ctx),
		i.ES.Search.WithIndex(i.Name),
		i.ES.Search.WithBody(body),
		i.ES.Search.WithScroll(scrollKeep),
	)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	page, err := decodeScrollPage("query", res)
	if err != nil {
		return nil, err
	}

	ids := []uuid.UUID{}
	scrollID := page.ScrollID
	defer func() { i.clearScroll(scrollID) }()

	for len(page.Hits.Hits) > 0 {
		for _, hit := range page.Hits.Hits {
			id, err := uuid.Parse(hit.ID)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
		if scrollID == "" {
			break
		}

		res, err := i.ES.Scroll(
			i.ES.Scroll.WithContext(ctx),
			i.ES.Scroll.WithScrollID(scrollID),
			i.ES.Scroll.WithScroll(scrollKeep),
		)
		if err != nil {
			return nil, fmt.Errorf("search scroll: %w", err)
		}
		if page, err = decodeScrollPage("scroll", res); err != nil {
			return nil, err
		}
		if page.ScrollID != "" {
			scrollID = page.ScrollID
		}
	}
	return ids, nil
}

func (i *Index) clearScroll(scrollID string) {
	if scrollID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := i.ES.ClearScroll(
		i.ES.ClearScroll.WithContext(ctx),
		i.ES.ClearScroll.WithScrollID(scrollID),
	)
	if err == nil {
		res.Body.Close()
	}
}

type TuneSource interface {
	ListTunes(ctx context.Context, q repo.TuneQuery) ([]models.Tune, error)
}

// Backfill indexes every stored tune, oldest first, and returns how many
// documents were written.
func (i *Index) Backfill(ctx context.Context, src TuneSource) (int, error) {
	indexed := 0
	for offset := 0; ; offset += backfillBatch {
		tunes, err := src.ListTunes(ctx, repo.TuneQuery{Sort: "createdAt", Offset: offset, Limit: backfillBatch})
		if err != nil {
			return indexed, fmt.Errorf("list tunes: %w", err)
		}
		for k := range tunes {
			if err := i.IndexTune(ctx, tunes[k].ID.String(), DocumentFromTune(&tunes[k])); err != nil {
				return indexed, err
			}
			indexed++
		}
		if len(tunes) < backfillBatch {
			return indexed, nil
		}
	}
}
