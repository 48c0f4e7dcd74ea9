package app

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	AuthorityEndpoint string // Required: base URL of the directory service
	Tenant            string // Optional: tenant tokens are requested in (default: common)
	ClientID          string // Required: application id tokens are issued to
	Resource          string // Required: resource URI tokens grant access to
	RedirectURI       string // Optional: reply address registered for interactive flows

	CacheFile     string // Optional: path to SQLite token cache file (default: ./dirauth.db)
	MasterKeyPath string // Optional: path to master encryption key file for the cache

	SigningSecret string        // Optional: HMAC secret the dev provider signs tokens with
	TokenTTL      time.Duration // Optional: lifetime of minted tokens (default: 1h)
	DeviceUser    string        // Optional: account the dev provider signs in for device flows
	Users         map[string]string

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: text)
}

func LoadConfig() Config {
	cfg := Config{
		AuthorityEndpoint: getEnvOrDefault("DIRAUTH_ENDPOINT", "https://login.dirauth.local"),
		Tenant:            getEnvOrDefault("DIRAUTH_TENANT", "common"),
		ClientID:          getEnvOrDefault("DIRAUTH_CLIENT_ID", "dirauth-cli"),
		Resource:          getEnvOrDefault("DIRAUTH_RESOURCE", "https://api.dirauth.local"),
		RedirectURI:       os.Getenv("DIRAUTH_REDIRECT_URI"),
		CacheFile:         getEnvOrDefault("DIRAUTH_CACHE_FILE", "dirauth.db"),
		MasterKeyPath:     os.Getenv("DIRAUTH_MASTER_KEY_PATH"), // Optional
		SigningSecret:     os.Getenv("DIRAUTH_SIGNING_SECRET"),
		TokenTTL:          getEnvDurationOrDefault("DIRAUTH_TOKEN_TTL", time.Hour),
		DeviceUser:        os.Getenv("DIRAUTH_DEVICE_USER"),
		Users:             parseUsers(os.Getenv("DIRAUTH_USERS")),
		Env:               getEnvOrDefault("ENV", "dev"),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         getEnvOrDefault("LOG_FORMAT", "text"),
	}

	return cfg
}

// parseUsers turns "alice:pw1,bob:pw2" into a username -> password map.
// Entries without a colon are ignored.
func parseUsers(raw string) map[string]string {
	users := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		username, password, ok := strings.Cut(entry, ":")
		if !ok || username == "" {
			continue
		}
		users[username] = password
	}
	return users
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
