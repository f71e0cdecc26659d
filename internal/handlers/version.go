package handlers

import (
	"net/http"

	"github.com/Masterminds/semver/v3"
	"github.com/labstack/echo/v4"
)

const (
	HeaderAcceptVersion = "Accept-Version"
	HeaderAPIVersion    = "api-version"

	ctxAPIVersion = "api_version"
)

var sortingSince = semver.MustParse("1.2.0")

// Versioned negotiates the served API version from the Accept-Version range.
// Without the header the latest version is served.
func Versioned(versions ...string) echo.MiddlewareFunc {
	served := make([]*semver.Version, 0, len(versions))
	for _, v := range versions {
		served = append(served, semver.MustParse(v))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v, err := negotiate(served, c.Request().Header.Get(HeaderAcceptVersion))
			if err != nil {
				return err
			}
			c.Set(ctxAPIVersion, v)
			c.Response().Header().Set(HeaderAPIVersion, v.String())
			return next(c)
		}
	}
}

func negotiate(served []*semver.Version, accept string) (*semver.Version, error) {
	var best *semver.Version
	if accept == "" {
		for _, v := range served {
			if best == nil || v.GreaterThan(best) {
				best = v
			}
		}
		return best, nil
	}

	constraint, err := semver.NewConstraint(accept)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid Accept-Version: "+accept)
	}
	for _, v := range served {
		if constraint.Check(v) && (best == nil || v.GreaterThan(best)) {
			best = v
		}
	}
	if best == nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "unsupported Accept-Version: "+accept)
	}
	return best, nil
}

// apiVersion returns the negotiated version, or nil outside Versioned routes.
func apiVersion(c echo.Context) *semver.Version {
	v, _ := c.Get(ctxAPIVersion).(*semver.Version)
	return v
}
