package service

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/healthmall/client-core/internal/core/domain"
	"github.com/healthmall/client-core/internal/core/ports"
)

// Storage keys. Stored as three independent fields rather than one blob; a
// partial read is treated as no session.
const (
	keyToken         = "token"
	keyActorType     = "actorType"
	keyActorUsername = "actorUsername"
)

// SessionStore holds the current credential and actor identity. The
// in-memory copy is authoritative during a session; the KV store keeps it
// across restarts. All mutations notify subscribers.
type SessionStore struct {
	mu      sync.RWMutex
	kv      ports.KV
	cur     *domain.Session
	subs    map[int]func(*domain.Session)
	nextSub int
	log     zerolog.Logger
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore re-hydrates the session from kv. Token without a valid
// actor type (or the reverse) reads as no session.
func NewSessionStore(kv ports.KV, log zerolog.Logger) *SessionStore {
	s := &SessionStore{kv: kv, subs: make(map[int]func(*domain.Session)), log: log}

	token, _ := kv.Get(keyToken)
	actor, _ := kv.Get(keyActorType)
	username, _ := kv.Get(keyActorUsername)
	if token != "" && domain.ActorType(actor).Valid() {
		s.cur = &domain.Session{
			Token:         token,
			ActorType:     domain.ActorType(actor),
			ActorUsername: username,
		}
	} else if token != "" || actor != "" {
		log.Warn().Msg("partial persisted session, treating as signed out")
	}
	return s
}

// Session returns a copy of the current session, or nil when signed out.
func (s *SessionStore) Session() *domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return nil
	}
	cp := *s.cur
	return &cp
}

// Token returns the current bearer token, or "".
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return ""
	}
	return s.cur.Token
}

// SetSession replaces the current session. An invalid session (empty token
// or unknown actor type) clears instead: the token/actor invariant is never
// violated by a bad write.
func (s *SessionStore) SetSession(sess domain.Session) {
	if sess.Token == "" || !sess.ActorType.Valid() {
		s.log.Warn().Str("actorType", string(sess.ActorType)).Msg("rejecting invalid session write")
		s.Clear()
		return
	}

	s.mu.Lock()
	s.cur = &sess
	s.persist(keyToken, sess.Token)
	s.persist(keyActorType, string(sess.ActorType))
	s.persist(keyActorUsername, sess.ActorUsername)
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(&sess)
	}
}

// Clear signs the session out. Idempotent; never fails even when storage is
// already empty.
func (s *SessionStore) Clear() {
	s.mu.Lock()
	wasSignedIn := s.cur != nil
	s.cur = nil
	for _, k := range []string{keyToken, keyActorType, keyActorUsername} {
		if err := s.kv.Delete(k); err != nil {
			s.log.Warn().Err(err).Str("key", k).Msg("clearing persisted session")
		}
	}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	if wasSignedIn {
		for _, fn := range subs {
			fn(nil)
		}
	}
}

// Subscribe registers fn to observe session changes. The returned function
// removes the subscription.
func (s *SessionStore) Subscribe(fn func(*domain.Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *SessionStore) persist(key, value string) {
	if err := s.kv.Set(key, value); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("persisting session field")
	}
}

func (s *SessionStore) snapshotSubs() []func(*domain.Session) {
	out := make([]func(*domain.Session), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}
