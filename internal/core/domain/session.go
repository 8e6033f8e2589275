package domain

// ActorType classifies an authenticated session.
type ActorType string

const (
	ActorAdmin         ActorType = "ADMIN"
	ActorProvider      ActorType = "PROVIDER"
	ActorProviderStaff ActorType = "PROVIDER_STAFF"
	ActorDealer        ActorType = "DEALER"
)

// Valid reports whether a is one of the known actor types.
func (a ActorType) Valid() bool {
	switch a {
	case ActorAdmin, ActorProvider, ActorProviderStaff, ActorDealer:
		return true
	}
	return false
}

// IsAdmin reports whether a is the back-office administrator actor.
func (a ActorType) IsAdmin() bool { return a == ActorAdmin }

// IsProvider reports whether a is a provider-type actor. Staff accounts
// satisfy every provider route requirement.
func (a ActorType) IsProvider() bool { return a == ActorProvider || a == ActorProviderStaff }

// IsDealer reports whether a is a dealer actor.
func (a ActorType) IsDealer() bool { return a == ActorDealer }

// Session is the current credential plus actor identity. A non-empty token
// always has a valid actor type; the two are never updated independently.
type Session struct {
	Token         string    `json:"token"`
	ActorType     ActorType `json:"actorType"`
	ActorUsername string    `json:"actorUsername"`
}
