// Package miniapp is the mini-program profile of the client core: a
// constructed application context replacing the runtime's global app object.
// It owns the token lifecycle (login, validate, logout), the login-agreement
// version, and the pending-checkout marker.
package miniapp

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/healthmall/client-core/internal/core/ports"
	"github.com/healthmall/client-core/internal/infrastructure/diag"
	"github.com/healthmall/client-core/internal/infrastructure/httpclient"
)

const (
	loginPath   = "/api/v1/mini-program/auth/login"
	profilePath = "/api/v1/users/profile"

	// An authentication failure sends the user back to the profile tab, the
	// mini-program's sign-in surface.
	signInTarget = "/pages/profile/profile"

	keyToken = "token"

	defaultLoginTimeout = 12 * time.Second
)

// Config configures the mini-program context.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// LoginTimeout bounds the whole login exchange. Defaults to 12s.
	LoginTimeout time.Duration
}

// App is the mini-program application context. Construct with New, start
// with Init, release with Teardown.
type App struct {
	mu    sync.RWMutex
	token string
	user  json.RawMessage

	cfg      Config
	kv       ports.KV
	client   ports.APIClient
	recorder *diag.Recorder
	login    singleflight.Group
	cancel   context.CancelFunc
	log      zerolog.Logger
}

var _ ports.CredentialSource = (*App)(nil)

// New builds the context and its request client. The app itself is the
// client's credential source, so an UNAUTHENTICATED response anywhere tears
// the token down globally.
func New(cfg Config, kv ports.KV, notifier ports.Notifier, nav ports.Navigator, log zerolog.Logger) *App {
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = defaultLoginTimeout
	}

	a := &App{cfg: cfg, kv: kv, log: log}
	a.recorder = diag.NewRecorder(kv, log)
	a.client = httpclient.New(httpclient.Config{
		BaseURL:           cfg.BaseURL,
		Timeout:           cfg.Timeout,
		RequestIDPrefix:   "mp",
		IdempotencyPrefix: "mp",
		SignInTarget:      signInTarget,
	}, httpclient.Deps{
		Creds:     a,
		Notifier:  notifier,
		Navigator: nav,
		Recorder:  a.recorder,
		Log:       log,
	})
	return a
}

// Init starts background workers and re-hydrates the persisted token,
// validating it against the server. A stale token is cleared, never an Init
// failure.
func (a *App) Init(ctx context.Context) {
	runCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.recorder.Start(runCtx)

	if tok, ok := a.kv.Get(keyToken); ok && tok != "" {
		a.mu.Lock()
		a.token = tok
		a.mu.Unlock()
		if err := a.ValidateToken(ctx); err != nil {
			a.log.Info().Msg("persisted token rejected, signed out")
		}
	}
}

// Teardown stops background workers. The app must not be used afterwards.
func (a *App) Teardown() {
	if a.cancel != nil {
		a.cancel()
	}
}

// Client exposes the request client for page-level calls.
func (a *App) Client() ports.APIClient { return a.client }

// Diagnostics returns the last recorded API event for user-triggered export.
func (a *App) Diagnostics() *diag.Recorder { return a.recorder }

// Token implements ports.CredentialSource.
func (a *App) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// Clear implements ports.CredentialSource: global sign-out, invoked by the
// request client on any authentication failure.
func (a *App) Clear() { a.Logout() }

// LoginResult is the payload of a successful code exchange.
type LoginResult struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user"`
}

// Login exchanges a runtime auth code for a token. Concurrent calls share
// one in-flight exchange; the whole operation is bounded by LoginTimeout.
func (a *App) Login(ctx context.Context, code string) (*LoginResult, error) {
	v, err, _ := a.login.Do("login", func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, a.cfg.LoginTimeout)
		defer cancel()

		var res LoginResult
		err := a.client.Post(ctx, loginPath, map[string]string{"code": code}, &res,
			&ports.RequestOptions{NoAuth: true})
		if err != nil {
			return nil, err
		}

		a.mu.Lock()
		a.token = res.Token
		a.user = res.User
		a.mu.Unlock()
		if err := a.kv.Set(keyToken, res.Token); err != nil {
			a.log.Warn().Err(err).Msg("persisting token")
		}
		return &res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*LoginResult), nil
}

// ValidateToken checks the current token against the profile endpoint. Any
// rejection signs the session out locally.
func (a *App) ValidateToken(ctx context.Context) error {
	if a.Token() == "" {
		return nil
	}
	var user json.RawMessage
	if err := a.client.Get(ctx, profilePath, nil, &user, &ports.RequestOptions{Silent: true}); err != nil {
		a.Logout()
		return err
	}
	a.mu.Lock()
	a.user = user
	a.mu.Unlock()
	return nil
}

// User returns the cached profile payload, if any.
func (a *App) User() json.RawMessage {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user
}

// Logout drops the token and cached profile. Idempotent.
func (a *App) Logout() {
	a.mu.Lock()
	a.token = ""
	a.user = nil
	a.mu.Unlock()
	if err := a.kv.Delete(keyToken); err != nil {
		a.log.Warn().Err(err).Msg("clearing persisted token")
	}
}
