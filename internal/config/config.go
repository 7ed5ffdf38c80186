package config

import "time"

type Config interface {
	EnvConfig
	APIConfig
	PollingConfig
	PaymentConfig
	RoleConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetStorePath() string
	GetStoreKey() string
}

type APIConfig interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
}

type PollingConfig interface {
	GetNotificationPollInterval() time.Duration
}

type PaymentConfig interface {
	GetPaymentInitiationDelay() time.Duration
	GetPaymentConfirmationDelay() time.Duration
	GetPaymentSuccessRate() float64
}

// RoleConfig selects how an access role is derived from a fresh credential.
type RoleConfig interface {
	GetRoleStrategy() string
	GetTokenSecret() string
	GetOIDCIssuer() string
	GetOIDCClientID() string
}

type mainConfig struct {
	EnvVars
	API
	Polling
	Payments
	Roles
}

func New() Config {
	return mainConfig{}
}
