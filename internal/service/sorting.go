package service

import (
	"strings"

	"github.com/Skotchmaster/toptunez/internal/repo"
)

type TuneSort string

const (
	RecentFirst TuneSort = "RECENT_FIRST"
	OldestFirst TuneSort = "OLDEST_FIRST"
	AlbumAsc    TuneSort = "ALBUM_ASC"
	AlbumDesc   TuneSort = "ALBUM_DESC"
	ArtistAsc   TuneSort = "ARTIST_ASC"
	ArtistDesc  TuneSort = "ARTIST_DESC"
	ScoreAsc    TuneSort = "SCORE_ASC"
	ScoreDesc   TuneSort = "SCORE_DESC"
	TitleAsc    TuneSort = "TITLE_ASC"
	TitleDesc   TuneSort = "TITLE_DESC"
)

const DefaultSorting = "-createdAt"

// MapTuneSorting turns a sort token into a sort specification such as
// "-score". Callers only pass tokens of the TuneSort enumeration.
func MapTuneSorting(s TuneSort) string {
	switch s {
	case RecentFirst:
		return "-createdAt"
	case OldestFirst:
		return "createdAt"
	}

	field, dir, _ := strings.Cut(string(s), "_")
	field = strings.ToLower(field)
	if dir == "DESC" {
		return "-" + field
	}
	return field
}

// ValidSortSpec reports whether spec is "[-]field" over a sortable field.
func ValidSortSpec(spec string) bool {
	_, ok := repo.SortColumn(strings.TrimPrefix(spec, "-"))
	return ok
}
