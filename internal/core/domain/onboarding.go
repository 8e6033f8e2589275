package domain

import "time"

// ProviderOnboarding is the agreement-acceptance state of a provider actor,
// as reported by the backend. A nil receiver means the state could not be
// fetched; all gates then read as not-accepted (fail closed).
type ProviderOnboarding struct {
	InfraAgreementAcceptedAt *time.Time `json:"infraAgreementAcceptedAt"`
	AgreementAcceptedAt      *time.Time `json:"agreementAcceptedAt"`
}

// InfraAccepted reports whether the infrastructure agreement has been signed.
func (o *ProviderOnboarding) InfraAccepted() bool {
	return o != nil && o.InfraAgreementAcceptedAt != nil
}

// HealthAccepted reports whether the health-services agreement has been signed.
func (o *ProviderOnboarding) HealthAccepted() bool {
	return o != nil && o.AgreementAcceptedAt != nil
}

// LoginAgreement is the currently published end-user agreement on the
// mini-program side. Acceptance is tracked by version string.
type LoginAgreement struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}
