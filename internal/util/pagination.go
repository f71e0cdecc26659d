package util

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type Rel string

const (
	RelFirst Rel = "first"
	RelPrev  Rel = "prev"
	RelNext  Rel = "next"
	RelLast  Rel = "last"
)

// Rels lists link relations in rendering order.
var Rels = []Rel{RelFirst, RelPrev, RelNext, RelLast}

type PageDescriptor struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

type Links map[Rel]PageDescriptor

// Normalize coerces raw paging input: non-positive pages fall back to 1 and
// non-positive page sizes to DefaultPageSize. Upper bounds belong to the
// fronts.
func Normalize(page, size int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if size < 1 {
		size = DefaultPageSize
	}
	return page, size
}

func Calculate(page, size int) (from, limit int) {
	page, size = Normalize(page, size)
	from = (page - 1) * size
	return from, size
}

// Descriptors computes navigation links for a listing page. pageSize must be
// at least 1.
func Descriptors(page, pageSize int, totalCount int64) Links {
	links := Links{}
	maxPage := 0
	if totalCount > 0 {
		maxPage = int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	}

	if page > 1 {
		links[RelFirst] = PageDescriptor{Page: 1, PageSize: pageSize}
		links[RelPrev] = PageDescriptor{Page: page - 1, PageSize: pageSize}
	}
	if page < maxPage {
		links[RelLast] = PageDescriptor{Page: maxPage, PageSize: pageSize}
		links[RelNext] = PageDescriptor{Page: page + 1, PageSize: pageSize}
	}
	return links
}
