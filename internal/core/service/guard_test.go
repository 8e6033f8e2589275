package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/healthmall/client-core/internal/core/domain"
	"github.com/healthmall/client-core/internal/infrastructure/storage"
)

type fakeOnboarding struct {
	state *domain.ProviderOnboarding
	calls int
}

func (f *fakeOnboarding) State(ctx context.Context) *domain.ProviderOnboarding {
	f.calls++
	return f.state
}

type fakeTheme struct {
	forcedLight int
	stored      int
}

func (f *fakeTheme) ForceLight()  { f.forcedLight++ }
func (f *fakeTheme) ApplyStored() { f.stored++ }

func newSessions(t *testing.T, sess *domain.Session) *SessionStore {
	t.Helper()
	s := NewSessionStore(storage.NewMemory(), zerolog.Nop())
	if sess != nil {
		s.SetSession(*sess)
	}
	return s
}

func ts(t time.Time) *time.Time { return &t }

func TestGuard_PublicRouteAlwaysAllowedAndLightThemed(t *testing.T) {
	theme := &fakeTheme{}
	g := NewGuard(newSessions(t, nil), &fakeOnboarding{}, theme, zerolog.Nop())

	d := g.Evaluate(context.Background(), AdminRoutes().Lookup(SignInPath, SignInPath))
	if !d.Allow {
		t.Fatalf("public route blocked: %+v", d)
	}
	if theme.forcedLight != 1 || theme.stored != 0 {
		t.Fatalf("public pages are always light: %+v", theme)
	}
}

func TestGuard_NoSessionRedirectsToSignIn(t *testing.T) {
	g := NewGuard(newSessions(t, nil), &fakeOnboarding{}, nil, zerolog.Nop())

	d := g.Evaluate(context.Background(), AdminRoutes().Lookup("/admin/dashboard", "/admin/dashboard"))
	if d.Allow || d.Path != SignInPath {
		t.Fatalf("expected sign-in redirect, got %+v", d)
	}
	if d.Query.Get("next") != "/admin/dashboard" || d.Query.Get("reason") != "UNAUTHENTICATED" {
		t.Fatalf("redirect must carry destination and reason: %v", d.Query)
	}
}

func TestGuard_RoleMismatchForbidden(t *testing.T) {
	sessions := newSessions(t, &domain.Session{Token: "t", ActorType: domain.ActorDealer})
	g := NewGuard(sessions, &fakeOnboarding{}, nil, zerolog.Nop())

	d := g.Evaluate(context.Background(), AdminRoutes().Lookup("/admin/dashboard", "/admin/dashboard"))
	if d.Allow || d.Path != ForbiddenPath {
		t.Fatalf("expected /403, got %+v", d)
	}
}

func TestGuard_ProviderStaffSatisfiesProviderRole(t *testing.T) {
	sessions := newSessions(t, &domain.Session{Token: "t", ActorType: domain.ActorProviderStaff})
	ob := &fakeOnboarding{state: &domain.ProviderOnboarding{
		InfraAgreementAcceptedAt: ts(time.Now()),
		AgreementAcceptedAt:      ts(time.Now()),
	}}
	g := NewGuard(sessions, ob, nil, zerolog.Nop())

	d := g.Evaluate(context.Background(), AdminRoutes().Lookup("/provider/bookings", "/provider/bookings"))
	if !d.Allow {
		t.Fatalf("staff must pass provider routes: %+v", d)
	}
}

func TestGuard_InfraGateBlocksOutsideAllowList(t *testing.T) {
	sessions := newSessions(t, &domain.Session{Token: "t", ActorType: domain.ActorProvider})
	ob := &fakeOnboarding{state: &domain.ProviderOnboarding{}}
	g := NewGuard(sessions, ob, nil, zerolog.Nop())

	d := g.Evaluate(context.Background(), AdminRoutes().Lookup("/provider/bookings", "/provider/bookings"))
	if d.Allow || d.Path != ProviderWorkbenchPath {
		t.Fatalf("expected workbench redirect, got %+v", d)
	}
	if d.Query.Get("gate") != GateInfra || d.Query.Get("next") != "/provider/bookings" {
		t.Fatalf("gate query: %v", d.Query)
	}
}

func TestGuard_InfraGateAllowListReachable(t *testing.T) {
	sessions := newSessions(t, &domain.Session{Token: "t", ActorType: domain.ActorProvider})
	g := NewGuard(sessions, &fakeOnboarding{state: &domain.ProviderOnboarding{}}, nil, zerolog.Nop())

	for _, path := range []string{"/provider", ProviderWorkbenchPath, "/provider/venues"} {
		d := g.Evaluate(context.Background(), AdminRoutes().Lookup(path, path))
		if !d.Allow {
			t.Fatalf("allow-list path %s blocked: %+v", path, d)
		}
	}
}

func TestGuard_HealthGateOnlyOnServicesPage(t *testing.T) {
	sessions := newSessions(t, &domain.Session{Token: "t", ActorType: domain.ActorProvider})
	ob := &fakeOnboarding{state: &domain.ProviderOnboarding{
		InfraAgreementAcceptedAt: ts(time.Now()),
	}}
	g := NewGuard(sessions, ob, nil, zerolog.Nop())

	d := g.Evaluate(context.Background(), AdminRoutes().Lookup(ProviderServicesPath, ProviderServicesPath))
	if d.Allow || d.Query.Get("gate") != GateHealth {
		t.Fatalf("expected HEALTH gate, got %+v", d)
	}

	// Every other destination is open once infra is satisfied.
	d = g.Evaluate(context.Background(), AdminRoutes().Lookup("/provider/bookings", "/provider/bookings"))
	if !d.Allow {
		t.Fatalf("infra-satisfied provider blocked: %+v", d)
	}
}

func TestGuard_UnknownOnboardingFailsClosed(t *testing.T) {
	sessions := newSessions(t, &domain.Session{Token: "t", ActorType: domain.ActorProvider})
	// Fetch failed upstream: cache reports nil.
	g := NewGuard(sessions, &fakeOnboarding{state: nil}, nil, zerolog.Nop())

	d := g.Evaluate(context.Background(), AdminRoutes().Lookup("/provider/bookings", "/provider/bookings"))
	if d.Allow {
		t.Fatalf("unknown onboarding state must not allow gated routes")
	}
	if d.Path != ProviderWorkbenchPath || d.Query.Get("gate") != GateInfra {
		t.Fatalf("expected INFRA gate redirect, got %+v", d)
	}
}

func TestGuard_Idempotent(t *testing.T) {
	sessions := newSessions(t, &domain.Session{Token: "t", ActorType: domain.ActorDealer})
	g := NewGuard(sessions, &fakeOnboarding{}, nil, zerolog.Nop())
	to := AdminRoutes().Lookup("/dealer/orders", "/dealer/orders")

	first := g.Evaluate(context.Background(), to)
	second := g.Evaluate(context.Background(), to)
	if first.Allow != second.Allow || first.Target() != second.Target() {
		t.Fatalf("unstable decision: %+v vs %+v", first, second)
	}
}

// Running the guard against its own redirect target must settle within two
// hops for every route and every session shape.
func TestGuard_NoRedirectLoops(t *testing.T) {
	table := AdminRoutes()

	cases := []struct {
		name       string
		session    *domain.Session
		onboarding *domain.ProviderOnboarding
	}{
		{"signed out", nil, nil},
		{"admin", &domain.Session{Token: "t", ActorType: domain.ActorAdmin}, nil},
		{"dealer", &domain.Session{Token: "t", ActorType: domain.ActorDealer}, nil},
		{"provider no agreements", &domain.Session{Token: "t", ActorType: domain.ActorProvider}, &domain.ProviderOnboarding{}},
		{"provider unknown state", &domain.Session{Token: "t", ActorType: domain.ActorProvider}, nil},
		{"provider infra only", &domain.Session{Token: "t", ActorType: domain.ActorProvider}, &domain.ProviderOnboarding{InfraAgreementAcceptedAt: ts(time.Now())}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGuard(newSessions(t, tc.session), &fakeOnboarding{state: tc.onboarding}, nil, zerolog.Nop())

			for path := range table {
				to := table.Lookup(path, path)
				hops := 0
				for {
					d := g.Evaluate(context.Background(), to)
					if d.Allow {
						break
					}
					hops++
					if hops > 2 {
						t.Fatalf("route %s did not settle after 2 hops (at %s)", path, d.Target())
					}
					to = table.Lookup(d.Path, d.Target())
				}
			}
		})
	}
}
