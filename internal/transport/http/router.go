package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	authz "github.com/Skotchmaster/toptunez/internal/auth"
	"github.com/Skotchmaster/toptunez/internal/handlers"
	"github.com/Skotchmaster/toptunez/internal/logging"
	"github.com/Skotchmaster/toptunez/internal/metrics"
	authmw "github.com/Skotchmaster/toptunez/internal/middleware/auth"
	"github.com/Skotchmaster/toptunez/pkg/db"
)

// APIVersions lists the versions served by versioned routes.
var APIVersions = []string{"1.0.0", "1.2.0"}

type Deps struct {
	DB          *gorm.DB
	TuneHandler *handlers.TuneHandler
	UserHandler *handlers.UserHandler
	// GraphQL is mounted at /graphql when set.
	GraphQL http.Handler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			logging.FromContext(c.Request().Context()).Error("readiness_failed", "status", 503, "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	if d.TuneHandler.Links == nil {
		d.TuneHandler.Links = handlers.RouteLinks{Echo: e}
	}

	e.GET("/tunes", d.TuneHandler.ListTunes,
		handlers.Versioned(APIVersions...)).Name = handlers.RouteListTunes
	e.POST("/tunes", d.TuneHandler.CreateTune,
		authmw.Require(authz.OpCreateTune)).Name = string(authz.OpCreateTune)
	e.POST("/tunes/:tuneId/votes", d.TuneHandler.VoteOnTune,
		authmw.Require(authz.OpVoteOnTune)).Name = string(authz.OpVoteOnTune)

	e.POST("/users", d.UserHandler.SignUp).Name = string(authz.OpSignUp)
	e.POST("/sessions", d.UserHandler.LogIn).Name = string(authz.OpLogIn)
	e.PATCH("/users/me/mfa", d.UserHandler.ToggleMFA,
		authmw.Require(authz.OpToggleMFA)).Name = string(authz.OpToggleMFA)

	if d.GraphQL != nil {
		e.POST("/graphql", echo.WrapHandler(d.GraphQL)).Name = "graphql"
	}
}
