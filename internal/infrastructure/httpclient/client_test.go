package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/healthmall/client-core/internal/core/domain"
	"github.com/healthmall/client-core/internal/core/ports"
	"github.com/healthmall/client-core/internal/core/service"
	"github.com/healthmall/client-core/internal/infrastructure/diag"
	"github.com/healthmall/client-core/internal/infrastructure/storage"
)

type fakeNotifier struct {
	mu     sync.Mutex
	toasts []string
	modals []string
}

func (n *fakeNotifier) Toast(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, msg)
}

func (n *fakeNotifier) Modal(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.modals = append(n.modals, msg)
}

type scheduled struct {
	target string
	delay  time.Duration
}

type fakeNavigator struct {
	mu    sync.Mutex
	calls []scheduled
}

func (n *fakeNavigator) ScheduleRedirect(target string, delay time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, scheduled{target, delay})
}

type env struct {
	client   *Client
	sessions *service.SessionStore
	notifier *fakeNotifier
	nav      *fakeNavigator
	recorder *diag.Recorder
}

func newEnv(t *testing.T, baseURL string) *env {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	kv := storage.NewMemory()
	sessions := service.NewSessionStore(kv, zerolog.Nop())
	sessions.SetSession(domain.Session{Token: "t-1", ActorType: domain.ActorAdmin, ActorUsername: "root"})

	recorder := diag.NewRecorder(kv, zerolog.Nop())
	recorder.Start(ctx)

	notifier := &fakeNotifier{}
	nav := &fakeNavigator{}
	client := New(Config{
		BaseURL:           baseURL,
		RequestIDPrefix:   "test",
		IdempotencyPrefix: "test",
		SignInTarget:      "/login",
	}, Deps{
		Creds:     sessions,
		Notifier:  notifier,
		Navigator: nav,
		Recorder:  recorder,
		Log:       zerolog.Nop(),
	})

	return &env{client: client, sessions: sessions, notifier: notifier, nav: nav, recorder: recorder}
}

func TestClient_GetResolvesData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer t-1" {
			t.Errorf("missing bearer header: %q", got)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Errorf("missing request id header")
		}
		if r.Header.Get("Idempotency-Key") != "" {
			t.Errorf("GET must not carry an idempotency key")
		}
		if r.URL.RawQuery != "page=2" {
			t.Errorf("query not forwarded: %q", r.URL.RawQuery)
		}
		w.Write([]byte(`{"success":true,"data":{"name":"v1"},"requestId":"srv-1"}`))
	}))
	defer srv.Close()

	e := newEnv(t, srv.URL)
	var out struct {
		Name string `json:"name"`
	}
	q := url.Values{"page": {"2"}}
	if err := e.client.Get(context.Background(), "/api/v1/venues", q, &out, nil); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Name != "v1" {
		t.Fatalf("data not resolved: %+v", out)
	}
}

func TestClient_PostAttachesIdempotencyKey(t *testing.T) {
	var key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get("Idempotency-Key")
		w.Write([]byte(`{"success":true,"data":null}`))
	}))
	defer srv.Close()

	e := newEnv(t, srv.URL)
	if err := e.client.Post(context.Background(), "/api/v1/orders", map[string]any{"sku": "s1"}, nil, nil); err != nil {
		t.Fatalf("post: %v", err)
	}
	if !strings.HasPrefix(key, "test:") {
		t.Fatalf("idempotency key not generated: %q", key)
	}
}

func TestClient_CallerKeyAndRequestIDReused(t *testing.T) {
	var key, rid string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get("Idempotency-Key")
		rid = r.Header.Get("X-Request-Id")
		w.Write([]byte(`{"success":true,"data":null}`))
	}))
	defer srv.Close()

	e := newEnv(t, srv.URL)
	opts := &ports.RequestOptions{RequestID: "retry-7", IdempotencyKey: "op:abc"}
	if err := e.client.Post(context.Background(), "/api/v1/orders", nil, nil, opts); err != nil {
		t.Fatalf("post: %v", err)
	}
	if key != "op:abc" || rid != "retry-7" {
		t.Fatalf("caller correlation not reused: key=%q rid=%q", key, rid)
	}
}

func TestClient_BusinessErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":{"code":"OUT_OF_STOCK","message":"sold out"},"requestId":"srv-2"}`))
	}))
	defer srv.Close()

	e := newEnv(t, srv.URL)
	err := e.client.Post(context.Background(), "/api/v1/orders", nil, nil, nil)

	var ae *domain.APIError
	if !errors.As(err, &ae) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if ae.Code != "OUT_OF_STOCK" || ae.Message != "sold out" || ae.ResponseRequestID != "srv-2" {
		t.Fatalf("error fields: %+v", ae)
	}
	if len(e.notifier.toasts) != 1 || e.notifier.toasts[0] != "sold out" {
		t.Fatalf("toast missing: %v", e.notifier.toasts)
	}
	if e.sessions.Session() == nil {
		t.Fatalf("business error must not clear the session")
	}
}

func TestClient_UnauthenticatedClearsSessionAndRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":{"code":"UNAUTHENTICATED","message":"expired"}}`))
	}))
	defer srv.Close()

	e := newEnv(t, srv.URL)
	err := e.client.Get(context.Background(), "/api/v1/users/profile", nil, nil, nil)

	if !domain.IsUnauthenticated(err) {
		t.Fatalf("expected unauthenticated error, got %v", err)
	}
	if e.sessions.Session() != nil {
		t.Fatalf("session not cleared")
	}
	if len(e.nav.calls) != 1 || e.nav.calls[0].target != "/login" {
		t.Fatalf("redirect not scheduled: %+v", e.nav.calls)
	}
	if e.nav.calls[0].delay != defaultRedirectDelay {
		t.Fatalf("non-silent delay: %v", e.nav.calls[0].delay)
	}
	if len(e.notifier.toasts) == 0 {
		t.Fatalf("auth failure should toast in non-silent mode")
	}
}

func TestClient_SilentAuthFailureShorterDelayNoToast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	e := newEnv(t, srv.URL)
	err := e.client.Get(context.Background(), "/x", nil, nil, &ports.RequestOptions{Silent: true})

	if !domain.IsUnauthenticated(err) {
		t.Fatalf("raw 401 must classify as auth failure, got %v", err)
	}
	if e.sessions.Session() != nil {
		t.Fatalf("session not cleared on raw 401")
	}
	if len(e.nav.calls) != 1 || e.nav.calls[0].delay != defaultSilentRedirectDelay {
		t.Fatalf("silent delay: %+v", e.nav.calls)
	}
	if len(e.notifier.toasts) != 0 {
		t.Fatalf("silent mode must not toast: %v", e.notifier.toasts)
	}
}

func TestClient_LegacyDetailShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":{"code":"SLOT_TAKEN","message":"slot no longer available"}}`))
	}))
	defer srv.Close()

	e := newEnv(t, srv.URL)
	err := e.client.Post(context.Background(), "/api/v1/bookings", nil, nil, nil)

	var ae *domain.APIError
	if !errors.As(err, &ae) || ae.Code != "SLOT_TAKEN" {
		t.Fatalf("legacy shape not decoded: %v", err)
	}
}

func TestClient_GarbageBodyIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	e := newEnv(t, srv.URL)
	err := e.client.Get(context.Background(), "/x", nil, nil, nil)

	var ae *domain.APIError
	if !errors.As(err, &ae) || ae.Code != domain.CodeNetworkError {
		t.Fatalf("expected NETWORK_ERROR, got %v", err)
	}
	if ae.Status != http.StatusBadGateway {
		t.Fatalf("status not carried: %d", ae.Status)
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	// Reserve a port and close it so the dial is refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	e := newEnv(t, base)
	err := e.client.Get(context.Background(), "/x", nil, nil, nil)

	var ae *domain.APIError
	if !errors.As(err, &ae) || ae.Code != domain.CodeNetworkError {
		t.Fatalf("expected NETWORK_ERROR, got %v", err)
	}
	if ae.Message != "cannot reach server" {
		t.Fatalf("message: %q", ae.Message)
	}
}

func TestClient_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	e := newEnv(t, srv.URL)
	e.client.cfg.Timeout = 50 * time.Millisecond

	err := e.client.Get(context.Background(), "/slow", nil, nil, nil)
	var ae *domain.APIError
	if !errors.As(err, &ae) || ae.Message != "request timed out" {
		t.Fatalf("expected timeout classification, got %v", err)
	}
}

func TestClient_NotConfigured(t *testing.T) {
	e := newEnv(t, "")
	err := e.client.Get(context.Background(), "/x", nil, nil, nil)
	if !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if len(e.notifier.modals) != 1 {
		t.Fatalf("configuration errors surface as a modal: %v", e.notifier.modals)
	}
}

func TestClient_LastEventRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"ok":1},"requestId":"srv-9"}`))
	}))
	defer srv.Close()

	e := newEnv(t, srv.URL)
	if err := e.client.Get(context.Background(), "/api/v1/ping", nil, nil, nil); err != nil {
		t.Fatalf("get: %v", err)
	}
	e.recorder.Flush(context.Background())

	evt, ok := e.recorder.Last()
	if !ok {
		t.Fatalf("no diagnostic event")
	}
	if !evt.OK || evt.Method != "GET" || evt.ResponseRequestID != "srv-9" {
		t.Fatalf("event fields: %+v", evt)
	}
	if evt.RequestID == "" || evt.StatusCode != 200 {
		t.Fatalf("event correlation: %+v", evt)
	}
}

func TestClient_Upload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("not multipart: %v", err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file part: %v", err)
		} else {
			f.Close()
			if hdr.Filename != "avatar.png" {
				t.Errorf("filename: %q", hdr.Filename)
			}
		}
		if r.Header.Get("Idempotency-Key") == "" {
			t.Errorf("upload is mutating and needs an idempotency key")
		}
		w.Write([]byte(`{"success":true,"data":{"url":"/u/1.png"}}`))
	}))
	defer srv.Close()

	e := newEnv(t, srv.URL)
	var out struct {
		URL string `json:"url"`
	}
	file := ports.UploadFile{Filename: "avatar.png", Content: strings.NewReader("png-bytes")}
	if err := e.client.Upload(context.Background(), "/api/v1/uploads/images", file, &out, nil); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if out.URL != "/u/1.png" {
		t.Fatalf("upload response: %+v", out)
	}
}
