package handlers

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/toptunez/internal/models"
	"github.com/Skotchmaster/toptunez/internal/service"
)

const RouteListTunes = "listTunes"

type TuneHandler struct {
	Tunes *service.TuneService
	Links LinkRenderer
}

type tuneResponse struct {
	models.Tune
	VoteCount int `json:"voteCount"`
}

func toTuneResponses(tunes []models.Tune) []tuneResponse {
	out := make([]tuneResponse, 0, len(tunes))
	for _, t := range tunes {
		if t.Votes == nil {
			t.Votes = []models.Vote{}
		}
		out = append(out, tuneResponse{Tune: t, VoteCount: t.VoteCount()})
	}
	return out
}

type listTunesQuery struct {
	Filter   string
	Page     int    `validate:"gte=0"`
	PageSize int    `validate:"gte=0,lte=100"`
	SortBy   string `validate:"omitempty,sortspec"`
}

func (h *TuneHandler) ListTunes(c echo.Context) error {
	var q listTunesQuery
	if err := echo.QueryParamsBinder(c).
		String("filter", &q.Filter).
		Int("page", &q.Page).
		Int("pageSize", &q.PageSize).
		String("sortBy", &q.SortBy).
		BindError(); err != nil {
		return httpError(c, "list_tunes_error", fmt.Errorf("%v: %w", err, service.ErrValidation))
	}
	if err := c.Validate(&q); err != nil {
		return httpError(c, "list_tunes_error", fmt.Errorf("%v: %w", err, service.ErrValidation))
	}

	params := service.SearchParams{Filter: q.Filter, Page: q.Page, PageSize: q.PageSize}
	if v := apiVersion(c); v != nil && !v.LessThan(sortingSince) {
		params.Sorting = q.SortBy
	}

	res, err := h.Tunes.Search(c.Request().Context(), params)
	if err != nil {
		return httpError(c, "list_tunes_error", err)
	}

	base := url.Values{}
	if q.Filter != "" {
		base.Set("filter", q.Filter)
	}
	if params.Sorting != "" {
		base.Set("sortBy", params.Sorting)
	}
	links, header := renderLinks(h.Links, RouteListTunes, base, res.Links)
	if header != "" {
		c.Response().Header().Set("Link", header)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"links": links,
		"tunes": toTuneResponses(res.Tunes),
	})
}

type createTuneRequest struct {
	Album  string `json:"album"`
	Artist string `json:"artist" validate:"required"`
	Title  string `json:"title"  validate:"required"`
	URL    string `json:"url"    validate:"omitempty,url"`
}

func (h *TuneHandler) CreateTune(c echo.Context) error {
	var req createTuneRequest
	if err := bindBody(c, &req); err != nil {
		return httpError(c, "create_tune_error", err)
	}

	tune, err := h.Tunes.Create(c.Request().Context(), service.TuneInput{
		Album:  req.Album,
		Artist: req.Artist,
		Title:  req.Title,
		URL:    req.URL,
	})
	if err != nil {
		return httpError(c, "create_tune_error", err)
	}

	c.Response().Header().Set("X-Tune-ID", tune.ID.String())
	return c.JSON(http.StatusCreated, toTuneResponses([]models.Tune{*tune})[0])
}

type voteRequest struct {
	Offset  int     `json:"offset"  validate:"oneof=-1 1"`
	Comment *string `json:"comment" validate:"omitempty,max=1000"`
}

func (h *TuneHandler) VoteOnTune(c echo.Context) error {
	id, err := uuid.Parse(c.Param("tuneId"))
	if err != nil {
		return httpError(c, "vote_error", fmt.Errorf("tuneId must be a uuid: %w", service.ErrValidation))
	}

	var req voteRequest
	if err := bindBody(c, &req); err != nil {
		return httpError(c, "vote_error", err)
	}
	comment := ""
	if req.Comment != nil {
		comment = *req.Comment
	}

	out, err := h.Tunes.Vote(c.Request().Context(), id, req.Offset, comment)
	if err != nil {
		return httpError(c, "vote_error", err)
	}

	noCache(c)
	return c.JSON(http.StatusCreated, echo.Map{
		"score":     out.Tune.Score,
		"voteCount": out.Tune.VoteCount(),
	})
}

func noCache(c echo.Context) {
	h := c.Response().Header()
	h.Set(echo.HeaderCacheControl, "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}
