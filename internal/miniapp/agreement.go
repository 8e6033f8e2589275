package miniapp

import (
	"context"
	"net/url"
	"strings"

	"github.com/healthmall/client-core/internal/core/domain"
	"github.com/healthmall/client-core/internal/core/ports"
)

const (
	agreementPath = "/api/v1/legal/agreements/current"
	agreementCode = "MP_LOGIN_AGREEMENT"

	keyAgreementVersion = "mp_login_agreement_accepted_version"
)

// CurrentAgreement fetches the published login agreement. Unauthenticated
// and silent: it backs a dialog, not a navigation.
func (a *App) CurrentAgreement(ctx context.Context) (*domain.LoginAgreement, error) {
	var ag domain.LoginAgreement
	q := url.Values{"code": {agreementCode}}
	if err := a.client.Get(ctx, agreementPath, q, &ag, &ports.RequestOptions{NoAuth: true, Silent: true}); err != nil {
		return nil, err
	}
	return &ag, nil
}

// AgreementAccepted reports whether the stored accepted version matches the
// currently published one. An empty or "0" published version means no
// agreement is required.
func (a *App) AgreementAccepted(currentVersion string) bool {
	cur := strings.TrimSpace(currentVersion)
	if cur == "" || cur == "0" {
		return true
	}
	accepted, _ := a.kv.Get(keyAgreementVersion)
	return strings.TrimSpace(accepted) == cur
}

// AcceptAgreement records local acceptance of version.
func (a *App) AcceptAgreement(version string) {
	if err := a.kv.Set(keyAgreementVersion, strings.TrimSpace(version)); err != nil {
		a.log.Warn().Err(err).Msg("persisting agreement acceptance")
	}
}

// ResetAgreement forgets the local acceptance, used on account switch.
func (a *App) ResetAgreement() {
	_ = a.kv.Delete(keyAgreementVersion)
}
