package service

import (
	"context"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/healthmall/client-core/internal/core/domain"
	"github.com/healthmall/client-core/internal/core/ports"
	"github.com/healthmall/client-core/internal/metrics"
)

// Well-known navigation targets. Every redirect the guard emits lands on a
// route that cannot re-trigger the same blocking condition.
const (
	SignInPath            = "/login"
	ForbiddenPath         = "/403"
	ProviderWorkbenchPath = "/provider/workbench"
	ProviderServicesPath  = "/provider/services"
)

// Query keys carried on redirects.
const (
	queryNext   = "next"
	queryReason = "reason"
	queryGate   = "gate"
)

// Gate identifiers surfaced to the workbench so it can open the right
// agreement flow.
const (
	GateInfra  = "INFRA"
	GateHealth = "HEALTH"
)

// infraAllowList is the set of paths reachable before the infrastructure
// agreement is accepted: the workbench (where the agreement is signed) and
// venue info.
var infraAllowList = map[string]struct{}{
	"/provider":           {},
	ProviderWorkbenchPath: {},
	"/provider/venues":    {},
}

// RouteMeta is the authorization metadata a route declares. Absence of both
// fields means "authenticated, any role".
type RouteMeta struct {
	Public bool
	// Role is "ADMIN", "DEALER" or "PROVIDER". PROVIDER is satisfied by
	// staff accounts too.
	Role string
}

// Route is the target of a navigation.
type Route struct {
	Path string
	// FullPath includes the query string; it is what a post-sign-in flow
	// returns the user to. Falls back to Path when empty.
	FullPath string
	Meta     RouteMeta
}

func (r Route) fullPath() string {
	if r.FullPath != "" {
		return r.FullPath
	}
	return r.Path
}

// Decision is the guard's verdict on one navigation.
type Decision struct {
	Allow bool
	Path  string
	Query url.Values
}

// Target renders a redirect decision as path?query.
func (d Decision) Target() string {
	if d.Allow || len(d.Query) == 0 {
		return d.Path
	}
	return d.Path + "?" + d.Query.Encode()
}

func allowed() Decision { return Decision{Allow: true} }

func redirect(path string, query url.Values) Decision {
	return Decision{Path: path, Query: query}
}

// Guard is the navigation authorization gate, evaluated once per route
// transition. Evaluation order is fixed: public, session, provider agreement
// gates, role. Only the agreement gates perform I/O (through the onboarding
// cache); a stale evaluation superseded by a newer navigation still completes
// and the router discards the decision.
type Guard struct {
	sessions   ports.SessionStore
	onboarding ports.OnboardingService
	theme      ports.ThemeSetter
	log        zerolog.Logger
}

// NewGuard wires the guard. theme may be nil when the surface has no theming.
func NewGuard(sessions ports.SessionStore, onboarding ports.OnboardingService, theme ports.ThemeSetter, log zerolog.Logger) *Guard {
	return &Guard{sessions: sessions, onboarding: onboarding, theme: theme, log: log}
}

// Evaluate decides whether the navigation to may proceed.
func (g *Guard) Evaluate(ctx context.Context, to Route) Decision {
	if to.Meta.Public {
		// Public pages are never themed.
		if g.theme != nil {
			g.theme.ForceLight()
		}
		return g.decide("allow", allowed())
	}
	if g.theme != nil {
		g.theme.ApplyStored()
	}

	session := g.sessions.Session()
	if session == nil {
		return g.decide("signin", redirect(SignInPath, url.Values{
			queryNext:   {to.fullPath()},
			queryReason: {domain.CodeUnauthenticated},
		}))
	}

	if session.ActorType.IsProvider() {
		if d, blocked := g.agreementGate(ctx, to); blocked {
			return d
		}
	}

	if to.Meta.Role != "" && !roleSatisfied(to.Meta.Role, session.ActorType) {
		return g.decide("forbidden", redirect(ForbiddenPath, nil))
	}

	return g.decide("allow", allowed())
}

// agreementGate applies the two-phase provider agreement gate. Unknown
// onboarding state reads as nothing accepted.
func (g *Guard) agreementGate(ctx context.Context, to Route) (Decision, bool) {
	state := g.onboarding.State(ctx)

	if !state.InfraAccepted() {
		if _, ok := infraAllowList[to.Path]; !ok {
			return g.decide("gate_infra", redirect(ProviderWorkbenchPath, url.Values{
				queryGate: {GateInfra},
				queryNext: {to.fullPath()},
			})), true
		}
		return Decision{}, false
	}

	// Infra satisfied: only the health-services page additionally requires
	// the health agreement.
	if !state.HealthAccepted() && to.Path == ProviderServicesPath {
		return g.decide("gate_health", redirect(ProviderWorkbenchPath, url.Values{
			queryGate: {GateHealth},
			queryNext: {to.fullPath()},
		})), true
	}
	return Decision{}, false
}

func (g *Guard) decide(label string, d Decision) Decision {
	metrics.GuardDecisionsTotal.WithLabelValues(label).Inc()
	if !d.Allow {
		g.log.Debug().Str("target", d.Target()).Str("decision", label).Msg("navigation redirected")
	}
	return d
}

func roleSatisfied(required string, actor domain.ActorType) bool {
	switch required {
	case "ADMIN":
		return actor.IsAdmin()
	case "DEALER":
		return actor.IsDealer()
	case "PROVIDER":
		return actor.IsProvider()
	}
	return false
}
