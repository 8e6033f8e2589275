// Package devapi is a contract fixture server: an in-process implementation
// of the platform's wire envelope used to exercise the client core in tests
// and local development. It is not the production backend; its storage is
// deliberately in-memory except for idempotency replay protection, which can
// be Redis-backed to survive fixture restarts.
package devapi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/healthmall/client-core/internal/core/domain"
)

// ReplayStore deduplicates mutating requests by their Idempotency-Key.
// Remember returns the stored value and whether the key was a replay.
type ReplayStore interface {
	Remember(ctx context.Context, key, value string) (string, bool, error)
}

// MemoryReplay is the hermetic ReplayStore used in tests.
type MemoryReplay struct {
	mu sync.Mutex
	m  map[string]string
}

func NewMemoryReplay() *MemoryReplay {
	return &MemoryReplay{m: make(map[string]string)}
}

func (s *MemoryReplay) Remember(_ context.Context, key, value string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.m[key]; ok {
		return prev, true, nil
	}
	s.m[key] = value
	return value, false, nil
}

type user struct {
	Username     string
	PasswordHash []byte
	ActorType    domain.ActorType
}

type order struct {
	ID        string    `json:"id"`
	SKU       string    `json:"sku"`
	Quantity  int       `json:"quantity"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store holds the fixture state.
type Store struct {
	mu         sync.Mutex
	users      map[string]user
	onboarding map[string]*domain.ProviderOnboarding
	orders     map[string]order
	agreement  domain.LoginAgreement
	nextOrder  int
}

// NewStore seeds the fixture accounts: one per actor type, password equal to
// "<username>123".
func NewStore() *Store {
	s := &Store{
		users:      make(map[string]user),
		onboarding: make(map[string]*domain.ProviderOnboarding),
		orders:     make(map[string]order),
		agreement:  domain.LoginAgreement{Title: "Service Agreement", Version: "3"},
	}
	for name, actor := range map[string]domain.ActorType{
		"admin":    domain.ActorAdmin,
		"provider": domain.ActorProvider,
		"staff":    domain.ActorProviderStaff,
		"dealer":   domain.ActorDealer,
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(name+"123"), bcrypt.MinCost)
		if err != nil {
			panic(fmt.Sprintf("devapi: seeding users: %v", err))
		}
		s.users[name] = user{Username: name, PasswordHash: hash, ActorType: actor}
	}
	s.onboarding["provider"] = &domain.ProviderOnboarding{}
	s.onboarding["staff"] = &domain.ProviderOnboarding{}
	return s
}

func (s *Store) userByName(username string) (user, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	return u, ok
}

func (s *Store) authenticate(username, password string) (user, bool) {
	s.mu.Lock()
	u, ok := s.users[username]
	s.mu.Unlock()
	if !ok {
		return user{}, false
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return user{}, false
	}
	return u, true
}

func (s *Store) onboardingFor(username string) *domain.ProviderOnboarding {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.onboarding[username]; ok {
		return o
	}
	o := &domain.ProviderOnboarding{}
	s.onboarding[username] = o
	return o
}

func (s *Store) acceptInfra(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	o := s.onboarding[username]
	if o == nil {
		o = &domain.ProviderOnboarding{}
		s.onboarding[username] = o
	}
	o.InfraAgreementAcceptedAt = &now
}

func (s *Store) acceptHealth(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	o := s.onboarding[username]
	if o == nil {
		o = &domain.ProviderOnboarding{}
		s.onboarding[username] = o
	}
	o.AgreementAcceptedAt = &now
}

func (s *Store) createOrder(sku string, quantity int) order {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextOrder++
	o := order{
		ID:        fmt.Sprintf("o-%d", s.nextOrder),
		SKU:       sku,
		Quantity:  quantity,
		Status:    "CREATED",
		CreatedAt: time.Now(),
	}
	s.orders[o.ID] = o
	return o
}

func (s *Store) deleteOrder(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, id)
}

func (s *Store) orderByID(id string) (order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	return o, ok
}
