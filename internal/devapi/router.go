package devapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// NewRouter builds the Echo instance serving the fixture API. Every route
// answers in the envelope shape the client layer decodes, so the client
// test-suite and a manually driven dev session see the same contract.
func NewRouter(store *Store, replay ReplayStore, jwtSecret string, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = newHTTPErrorHandler(log)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())

	h := &handlers{
		store:    store,
		replay:   replay,
		secret:   jwtSecret,
		validate: validator.New(),
		log:      log,
	}
	auth := requireAuth(jwtSecret)

	// --- Health probes ---
	health := &healthHandler{replay: replay}
	e.GET("/health", health.liveness)
	e.GET("/health/ready", health.readiness)

	// --- Public routes ---
	e.POST("/api/v1/mini-program/auth/login", h.miniLogin)
	e.POST("/auth/login", h.login)
	e.GET("/api/v1/legal/agreements/current", h.currentAgreement)

	// --- Authenticated routes ---
	e.GET("/api/v1/users/profile", h.profile, auth)
	e.GET("/provider/onboarding", h.onboarding, auth)
	e.POST("/provider/onboarding/infra/accept", h.acceptInfra, auth)
	e.POST("/provider/onboarding/health/accept", h.acceptHealth, auth)
	e.POST("/api/v1/orders", h.createOrder, auth)
	e.POST("/api/v1/uploads/images", h.uploadImage, auth)

	return e
}
