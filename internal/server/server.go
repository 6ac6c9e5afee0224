package server

import (
	"log"
	"time"

	"cyclone-bot/internal/config"
	"cyclone-bot/internal/pkg/logger"
	"cyclone-bot/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	tasks "google.golang.org/api/tasks/v1"
)

// GatewayReporter surfaces Discord connection state on the health
// endpoints. Zero latency means the gateway has not connected yet.
type GatewayReporter interface {
	Latency() time.Duration
}

// Server exposes the bot's small HTTP surface: health probes and the
// one-time Google OAuth flow used to obtain a refresh token.
type Server struct {
	app     *fiber.App
	cfg     *config.Config
	gateway GatewayReporter
	logger  logger.ILogger
}

func New(cfg *config.Config, gateway GatewayReporter, log logger.ILogger) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // 1MB
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, OPTIONS",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	s := &Server{
		app:     app,
		cfg:     cfg,
		gateway: gateway,
		logger:  log,
	}
	s.registerRoutes()

	return s
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ HTTP server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) registerRoutes() {
	s.app.Get("/", s.handleHealth)
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/auth", s.handleAuthStart)
	s.app.Get("/callback", s.handleAuthCallback)
}

func (s *Server) handleHealth(ctx *fiber.Ctx) error {
	data := map[string]interface{}{
		"status": "ok",
	}
	if s.gateway != nil {
		latency := s.gateway.Latency()
		state := "connected"
		if latency == 0 {
			state = "connecting"
		}
		data["gateway"] = state
		data["gateway_latency_ms"] = latency.Milliseconds()
	}
	return ctx.JSON(serverutils.SuccessResponse("cyclone-bot is running", data))
}

// handleAuthStart redirects the operator to Google's consent screen.
// The resulting refresh token is read once from /callback and then
// stored as GOOGLE_REFRESH_TOKEN.
func (s *Server) handleAuthStart(ctx *fiber.Ctx) error {
	if s.cfg.Google.ClientID == "" || s.cfg.Google.ClientSecret == "" {
		return ctx.Status(fiber.StatusBadRequest).
			JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set first"))
	}

	url := s.oauthConfig().AuthCodeURL("state",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	return ctx.Redirect(url, fiber.StatusTemporaryRedirect)
}

func (s *Server) handleAuthCallback(ctx *fiber.Ctx) error {
	code := ctx.Query("code")
	if code == "" {
		return ctx.Status(fiber.StatusBadRequest).
			JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Missing code"))
	}

	token, err := s.oauthConfig().Exchange(ctx.Context(), code)
	if err != nil {
		s.logger.Error("Server", "OAuth code exchange failed", map[string]interface{}{
			"error": err.Error(),
		})
		return ctx.Status(fiber.StatusInternalServerError).
			JSON(serverutils.ErrorResponse(fiber.StatusInternalServerError, err.Error()))
	}

	if token.RefreshToken == "" {
		return ctx.Status(fiber.StatusBadRequest).
			JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "No refresh token returned, revoke access at myaccount.google.com/permissions and retry"))
	}

	s.logger.Info("Server", "OAuth refresh token issued", nil)
	return ctx.JSON(serverutils.SuccessResponse("Set this value as GOOGLE_REFRESH_TOKEN", map[string]string{
		"refresh_token": token.RefreshToken,
	}))
}

func (s *Server) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.Google.ClientID,
		ClientSecret: s.cfg.Google.ClientSecret,
		RedirectURL:  s.cfg.Google.RedirectURI,
		Endpoint:     google.Endpoint,
		Scopes:       []string{calendar.CalendarEventsScope, tasks.TasksScope},
	}
}
