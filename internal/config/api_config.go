package config

import "time"

type API struct{}

var _ APIConfig = API{}

// GetBaseURL returns the backend address every request is resolved against.
func (API) GetBaseURL() string {
	return GetEnv("API_BASE_URL", "http://localhost:8000")
}

func (API) GetRequestTimeout() time.Duration {
	return GetDuration("REQUEST_TIMEOUT", 10*time.Second)
}

type Polling struct{}

var _ PollingConfig = Polling{}

func (Polling) GetNotificationPollInterval() time.Duration {
	return GetDuration("NOTIFICATION_POLL_INTERVAL", 30*time.Second)
}

type Payments struct{}

var _ PaymentConfig = Payments{}

func (Payments) GetPaymentInitiationDelay() time.Duration {
	return GetDuration("PAYMENT_INITIATION_DELAY", 1500*time.Millisecond)
}

func (Payments) GetPaymentConfirmationDelay() time.Duration {
	return GetDuration("PAYMENT_CONFIRMATION_DELAY", 1*time.Second)
}

func (Payments) GetPaymentSuccessRate() float64 {
	rate := GetFloat("PAYMENT_SUCCESS_RATE", 0.9)
	if rate < 0 || rate > 1 {
		return 0.9
	}
	return rate
}

type Roles struct{}

var _ RoleConfig = Roles{}

// GetRoleStrategy is one of "claims", "heuristic" or "oidc".
func (Roles) GetRoleStrategy() string {
	return GetEnv("ROLE_STRATEGY", "claims")
}

func (Roles) GetTokenSecret() string {
	return GetEnv("TOKEN_SECRET", "")
}

func (Roles) GetOIDCIssuer() string {
	return GetEnv("OIDC_ISSUER", "")
}

func (Roles) GetOIDCClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "")
}
