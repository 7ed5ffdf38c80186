package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	appNameVar   = "APP_NAME"
	envVar       = "ENV"
	logLevelVar  = "LOG_LEVEL"
	storePathVar = "STORE_PATH"
	storeKeyVar  = "STORE_KEY"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "KaziFlow")
}

func (EnvVars) GetEnv() string {
	return strings.ToUpper(GetEnv(envVar, "DEV"))
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

// GetStorePath returns the file holding the persisted credential and role.
func (EnvVars) GetStorePath() string {
	if path := GetEnv(storePathVar, ""); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".kaziflow", "session.yaml")
	}
	return filepath.Join(home, ".kaziflow", "session.yaml")
}

// GetStoreKey returns the passphrase used to seal the stored credential. Empty disables sealing.
func (EnvVars) GetStoreKey() string {
	return GetEnv(storeKeyVar, "")
}

// GetEnv resolves a setting from the process environment first, then from the
// loaded config file, then falls back to defaultValue.
func GetEnv(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	if value := fileValue(envVar); value != "" {
		return value
	}
	return defaultValue
}

func GetDuration(envVar string, defaultValue time.Duration) time.Duration {
	value := GetEnv(envVar, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return defaultValue
	}
	return d
}

func GetFloat(envVar string, defaultValue float64) float64 {
	value := GetEnv(envVar, "")
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
