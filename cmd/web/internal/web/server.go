package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"thirdcoast.systems/screencast/cmd/web/auth"
	"thirdcoast.systems/screencast/cmd/web/handlers/api/access_api"
	"thirdcoast.systems/screencast/cmd/web/handlers/api/screen_api"
	authhandlers "thirdcoast.systems/screencast/cmd/web/handlers/auth"
	"thirdcoast.systems/screencast/cmd/web/handlers/common"
	"thirdcoast.systems/screencast/cmd/web/internal/accesscode"
	"thirdcoast.systems/screencast/cmd/web/internal/screen"
	"thirdcoast.systems/screencast/internal/config"
	"thirdcoast.systems/screencast/pkg/utils/passwords"
)

type Webserver struct {
	*echo.Echo
	cfg            *config.Config
	clock          clockwork.Clock
	sessionManager *auth.SessionManager
	authority      *accesscode.Authority
	registry       *screen.Registry
	presenterHash  passwords.Password
}

func NewWebserver(cfg *config.Config, clock clockwork.Clock, authority *accesscode.Authority, registry *screen.Registry, sessionManager *auth.SessionManager) (*Webserver, error) {
	e := echo.New()

	// RealIP must not trust client supplied headers unless a proxy we
	// control sets them.
	if cfg.TrustProxyHeaders {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	} else {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	webserver := &Webserver{
		Echo:           e,
		cfg:            cfg,
		clock:          clock,
		sessionManager: sessionManager,
		authority:      authority,
		registry:       registry,
	}

	if cfg.PresenterAuthEnabled() {
		hash, err := passwords.ParseHash(cfg.PresenterPasswordHash)
		if err != nil {
			return nil, fmt.Errorf("presenter password hash: %w", err)
		}
		webserver.presenterHash = hash
	} else {
		slog.Warn("PRESENTER_PASSWORD_HASH not set; presenter routes are open to anyone who can reach the server")
	}

	if err := webserver.registerRoutes(); err != nil {
		return nil, err
	}

	if err := webserver.setupMiddleware(); err != nil {
		return nil, err
	}

	return webserver, nil
}

// isStreamRoute matches the long-lived and high-frequency routes that are
// kept out of request logs and compression.
func isStreamRoute(c echo.Context) bool {
	switch c.Path() {
	case "/api/screen-stream",
		"/api/screen-stream/ws",
		"/api/connected-count",
		"/metrics":
		return true
	default:
		return false
	}
}

func (s *Webserver) setupMiddleware() error {
	s.HideBanner = true
	s.HidePort = true
	s.Use(middleware.BodyLimit(s.cfg.MaxSnapshotSize))
	s.Use(middleware.Recover())
	s.Use(middleware.RequestID())
	s.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:   5,
		Skipper: isStreamRoute,
	}))
	s.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper:      isStreamRoute,
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  false,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				fields = append(fields, "error", v.Error)
			}
			slog.Info("request", fields...)
			return nil
		},
	}))

	return nil
}

func (s *Webserver) registerRoutes() error {
	var presenterOnly []echo.MiddlewareFunc
	if s.cfg.PresenterAuthEnabled() {
		presenterOnly = append(presenterOnly, common.RequirePresenter(s.sessionManager))
	}

	var guessLimit []echo.MiddlewareFunc
	if s.cfg.VerifyRateLimit > 0 {
		guessLimit = append(guessLimit, newGuessLimiter(s.cfg.VerifyRateLimit, s.cfg.VerifyRateBurst).Middleware())
	}

	viewerCORS := middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, "X-Access-Code"},
	})
	preflight := func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}

	streamOpts := screen_api.StreamOptions{
		RequireCode: s.cfg.RequireStreamCode,
		QueueSize:   s.cfg.ViewerQueueSize,
	}

	apiGroup := s.Group("/api")

	// Presenter
	apiGroup.POST("/access-code", access_api.HandleIssue(s.authority), presenterOnly...)
	apiGroup.GET("/access-code", access_api.HandleState(s.authority), presenterOnly...)
	apiGroup.DELETE("/access-code", access_api.HandleRevoke(s.authority), presenterOnly...)
	apiGroup.POST("/screen-stream", screen_api.HandlePublish(s.registry), presenterOnly...)
	apiGroup.GET("/connected-count", screen_api.HandleConnectedCount(s.registry, s.clock), presenterOnly...)
	apiGroup.GET("/viewers", screen_api.HandleViewers(s.registry, s.clock), presenterOnly...)

	if s.cfg.PresenterAuthEnabled() {
		apiGroup.POST("/presenter/login", authhandlers.HandleLogin(s.sessionManager, s.presenterHash), guessLimit...)
		apiGroup.POST("/presenter/logout", authhandlers.HandleLogout(s.sessionManager))
	}

	// Viewer
	verifyChain := append([]echo.MiddlewareFunc{viewerCORS}, guessLimit...)
	apiGroup.POST("/verify-code", access_api.HandleVerify(s.authority), verifyChain...)
	apiGroup.OPTIONS("/verify-code", preflight, viewerCORS)
	apiGroup.GET("/screen-stream", screen_api.HandleStream(s.authority, s.registry, streamOpts), viewerCORS)
	apiGroup.OPTIONS("/screen-stream", preflight, viewerCORS)
	apiGroup.GET("/screen-stream/ws", screen_api.HandleStreamWS(s.authority, s.registry, streamOpts))

	// Health check
	s.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":     "ok",
			"viewers":    s.registry.ConnectedCount(),
			"codeActive": s.authority.Current().IsActive,
		})
	})

	s.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return nil
}
