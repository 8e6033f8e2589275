package miniapp

import (
	"encoding/json"
	"time"

	"github.com/healthmall/client-core/internal/core/domain"
)

const (
	keyPendingCheckout = "pendingCheckout"

	// A marker older than this is abandoned: the user did not come back
	// from the address side-trip in any reasonable time.
	pendingCheckoutTTL = 10 * time.Minute
)

// SavePendingCheckout persists a marker before an address-selection
// side-trip so the interrupted write can resume afterwards.
func (a *App) SavePendingCheckout(kind string, payload json.RawMessage) error {
	raw, err := json.Marshal(domain.PendingCheckout{
		Kind:      kind,
		Payload:   payload,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	return a.kv.Set(keyPendingCheckout, string(raw))
}

// TakePendingCheckout returns and consumes the marker. Expired or unreadable
// markers are discarded; the marker is taken at most once.
func (a *App) TakePendingCheckout() (*domain.PendingCheckout, bool) {
	raw, ok := a.kv.Get(keyPendingCheckout)
	if !ok {
		return nil, false
	}
	_ = a.kv.Delete(keyPendingCheckout)

	var m domain.PendingCheckout
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		a.log.Debug().Err(err).Msg("pending checkout marker unreadable")
		return nil, false
	}
	if time.Since(m.CreatedAt) > pendingCheckoutTTL {
		return nil, false
	}
	return &m, true
}
