package httpserver

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	authz "github.com/Skotchmaster/toptunez/internal/auth"
	"github.com/Skotchmaster/toptunez/internal/config"
	"github.com/Skotchmaster/toptunez/internal/handlers"
	"github.com/Skotchmaster/toptunez/internal/metrics"
	authmw "github.com/Skotchmaster/toptunez/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/toptunez/pkg/middleware/logging"
)

const (
	hstsMaxAge   = 365 * 24 * 60 * 60
	corsMaxAge   = 24 * 60 * 60
	rateLimit    = 1
	rateBurst    = 5
	rateExpiry   = 3 * time.Minute
	bodyLimitStr = "1M"
)

// New builds the echo instance with the middleware stack shared by the REST
// and GraphQL fronts and registers all routes.
func New(cfg config.Config, log *slog.Logger, gate *authz.Gate, d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(log))
	e.Use(metrics.Middleware())
	e.Use(middleware.BodyLimit(bodyLimitStr))
	e.Use(middleware.CORSWithConfig(corsConfig(cfg)))
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		HSTSMaxAge:         hstsMaxAge,
	}))
	if !cfg.Test() {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{Rate: rateLimit, Burst: rateBurst, ExpiresIn: rateExpiry},
		)))
	}
	e.Use(authmw.Authenticate(gate))

	Register(e, d)
	return e
}

func corsConfig(cfg config.Config) middleware.CORSConfig {
	allowed := make(map[string]struct{}, len(cfg.CORSOrigins))
	for _, o := range cfg.CORSOrigins {
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}
	localOK := !cfg.Production()

	return middleware.CORSConfig{
		AllowOriginFunc: func(origin string) (bool, error) {
			if _, ok := allowed["*"]; ok {
				return true, nil
			}
			if _, ok := allowed[origin]; ok {
				return true, nil
			}
			return localOK && isLocalhost(origin), nil
		},
		AllowHeaders:  []string{"authorization", "x-totp-token", "content-type", "accept-version"},
		ExposeHeaders: []string{handlers.HeaderAPIVersion, "Link", "X-Tune-ID"},
		MaxAge:        corsMaxAge,
	}
}

func isLocalhost(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
