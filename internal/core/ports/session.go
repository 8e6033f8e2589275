package ports

import "github.com/healthmall/client-core/internal/core/domain"

// CredentialSource is the narrow view of the session the request client
// needs: a bearer token, and the ability to invalidate it globally when the
// server signals an authentication failure.
type CredentialSource interface {
	Token() string
	Clear()
}

// SessionStore holds the current credential plus actor identity.
type SessionStore interface {
	CredentialSource

	Session() *domain.Session
	SetSession(domain.Session)
	// Subscribe registers fn to run after every session change. The returned
	// function removes the subscription.
	Subscribe(fn func(*domain.Session)) (unsubscribe func())
}
