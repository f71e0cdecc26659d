package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/toptunez/internal/util"
)

// LinkRenderer turns a named route and query values into a URL.
type LinkRenderer interface {
	Render(route string, query url.Values) string
}

// RouteLinks renders links through echo's reverse routing.
type RouteLinks struct {
	Echo *echo.Echo
}

func (r RouteLinks) Render(route string, query url.Values) string {
	path := r.Echo.Reverse(route)
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}

// renderLinks resolves page descriptors to URLs, carrying base query values
// such as the filter into every link. It returns the JSON links object and the
// matching Link header value.
func renderLinks(r LinkRenderer, route string, base url.Values, links util.Links) (map[util.Rel]string, string) {
	rendered := make(map[util.Rel]string, len(links))
	var header []string
	for _, rel := range util.Rels {
		d, ok := links[rel]
		if !ok {
			continue
		}
		q := url.Values{}
		for k, v := range base {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(d.Page))
		q.Set("pageSize", strconv.Itoa(d.PageSize))

		u := r.Render(route, q)
		rendered[rel] = u
		header = append(header, fmt.Sprintf("<%s>; rel=%q", u, rel))
	}
	return rendered, strings.Join(header, ", ")
}
