package devapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthmall/client-core/internal/core/domain"
)

type handlers struct {
	store    *Store
	replay   ReplayStore
	secret   string
	validate *validator.Validate
	log      zerolog.Logger
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

func (h *handlers) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_PAYLOAD", "invalid payload")
	}
	if err := h.validate.Struct(&req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
	}

	// A 401 means "session expired" to the client and would trigger its
	// sign-in redirect, so a failed login is a plain business error.
	u, authed := h.store.authenticate(req.Username, req.Password)
	if !authed {
		return fail(c, http.StatusBadRequest, "INVALID_CREDENTIALS", "invalid username or password")
	}

	token, err := issueToken(h.secret, u.Username, u.ActorType)
	if err != nil {
		h.log.Error().Err(err).Msg("signing token")
		return fail(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}

	return ok(c, loginResponse{
		Token: token,
		User: map[string]any{
			"username":  u.Username,
			"actorType": u.ActorType,
		},
	})
}

type miniLoginRequest struct {
	Code string `json:"code" validate:"required"`
}

// miniLogin exchanges a runtime auth code for a token. The fixture treats
// the code as a seeded username, so tests pick their actor by code.
func (h *handlers) miniLogin(c echo.Context) error {
	var req miniLoginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_PAYLOAD", "invalid payload")
	}
	if err := h.validate.Struct(&req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
	}

	u, found := h.store.userByName(req.Code)
	if !found {
		return fail(c, http.StatusBadRequest, "INVALID_CODE", "auth code did not resolve to an account")
	}

	token, err := issueToken(h.secret, u.Username, u.ActorType)
	if err != nil {
		h.log.Error().Err(err).Msg("signing token")
		return fail(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}

	return ok(c, loginResponse{
		Token: token,
		User: map[string]any{
			"username":  u.Username,
			"actorType": u.ActorType,
		},
	})
}

func (h *handlers) profile(c echo.Context) error {
	return ok(c, map[string]any{
		"username":  c.Get("username"),
		"actorType": c.Get("actorType"),
	})
}

func (h *handlers) onboarding(c echo.Context) error {
	username, _ := c.Get("username").(string)
	actor, _ := c.Get("actorType").(domain.ActorType)
	if !actor.IsProvider() {
		return fail(c, http.StatusForbidden, domain.CodeForbidden, "not a provider account")
	}
	return ok(c, h.store.onboardingFor(username))
}

func (h *handlers) acceptInfra(c echo.Context) error {
	username, _ := c.Get("username").(string)
	h.store.acceptInfra(username)
	return ok(c, h.store.onboardingFor(username))
}

func (h *handlers) acceptHealth(c echo.Context) error {
	username, _ := c.Get("username").(string)
	h.store.acceptHealth(username)
	return ok(c, h.store.onboardingFor(username))
}

type createOrderRequest struct {
	SKU      string `json:"sku" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

// createOrder applies idempotency replay protection: a retried POST carrying
// the same Idempotency-Key returns the first attempt's order instead of
// creating a second one.
func (h *handlers) createOrder(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_PAYLOAD", "invalid payload")
	}
	if err := h.validate.Struct(&req); err != nil {
		return fail(c, http.StatusUnprocessableEntity, "VALIDATION", err.Error())
	}

	key := c.Request().Header.Get("Idempotency-Key")
	if key == "" {
		return fail(c, http.StatusBadRequest, "IDEMPOTENCY_KEY_REQUIRED", "missing Idempotency-Key header")
	}

	o := h.store.createOrder(req.SKU, req.Quantity)
	storedID, replayed, err := h.replay.Remember(c.Request().Context(), key, o.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("replay store")
		return fail(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
	if replayed {
		// The retry lost: discard its order and answer with the original.
		h.store.deleteOrder(o.ID)
		if prev, found := h.store.orderByID(storedID); found {
			return ok(c, prev)
		}
	}
	return ok(c, o)
}

func (h *handlers) currentAgreement(c echo.Context) error {
	return ok(c, h.store.agreement)
}

func (h *handlers) uploadImage(c echo.Context) error {
	f, err := c.FormFile("file")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_PAYLOAD", "missing file part")
	}
	return ok(c, map[string]any{
		"url":  "/uploads/" + f.Filename,
		"size": f.Size,
	})
}
