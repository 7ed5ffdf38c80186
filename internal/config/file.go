package config

import (
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var (
	fileSettings     *viper.Viper
	fileSettingsLock sync.RWMutex
)

// LoadDotEnv loads KEY=value pairs into the environment. Missing files are ignored
// and variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return errors.Wrapf(err, "[LoadDotEnv] %s", path)
		}
	}
	return nil
}

// LoadFile reads a YAML config file whose keys mirror the environment variable
// names (case-insensitive). A missing file is not an error.
func LoadFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "[LoadFile] %s", path)
	}

	fileSettingsLock.Lock()
	fileSettings = v
	fileSettingsLock.Unlock()
	return nil
}

// ResetFile drops settings loaded by LoadFile.
func ResetFile() {
	fileSettingsLock.Lock()
	fileSettings = nil
	fileSettingsLock.Unlock()
}

func fileValue(key string) string {
	fileSettingsLock.RLock()
	defer fileSettingsLock.RUnlock()
	if fileSettings == nil {
		return ""
	}
	return fileSettings.GetString(key)
}
