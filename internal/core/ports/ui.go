package ports

import (
	"context"
	"time"

	"github.com/healthmall/client-core/internal/core/domain"
)

// Notifier surfaces failures to the user. Toast is transient; Modal blocks,
// reserved for configuration errors where no request can succeed.
type Notifier interface {
	Toast(message string)
	Modal(message string)
}

// Navigator applies redirect decisions. ScheduleRedirect fires after delay;
// a redirect that is stale by the time it fires must be a tolerable no-op on
// the navigator's side.
type Navigator interface {
	ScheduleRedirect(target string, delay time.Duration)
}

// ThemeSetter applies the visual theme around a navigation. Public pages are
// always light regardless of the stored preference.
type ThemeSetter interface {
	ForceLight()
	ApplyStored()
}

// OnboardingService reports a provider actor's agreement-acceptance state.
// A nil result means the state is unknown and every gate must fail closed.
type OnboardingService interface {
	State(ctx context.Context) *domain.ProviderOnboarding
}
