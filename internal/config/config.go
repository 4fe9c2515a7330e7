// Package config resolves runtime settings from the environment, with an
// optional .env file in the working directory for development setups.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

const (
	// DefaultAPIURL is the production backend.
	DefaultAPIURL = "https://api.nexapdf.com/api"
	// DefaultSiteURL is the marketing/site origin used for terms and privacy.
	DefaultSiteURL = "https://nexapdf.com"

	envAPIURL   = "NEXA_API_URL"
	envSiteURL  = "NEXA_BASE_URL"
	envStateDir = "NEXA_STATE_DIR"
)

// Config is everything the app needs to start.
type Config struct {
	// APIURL is the backend base URL, without a trailing slash.
	APIURL string
	// SiteURL is the web origin for informational pages.
	SiteURL string
	// StateDir holds tokens.json, session.json, prefs.json and the
	// operation marker. Empty means the per-user default.
	StateDir string
}

// Load reads a .env file if one exists, then resolves settings from the
// environment. Real environment variables win over .env entries.
func Load() Config {
	godotenv.Load() //nolint:errcheck // a missing .env is the normal case

	return Config{
		APIURL:   getenv(envAPIURL, DefaultAPIURL),
		SiteURL:  getenv(envSiteURL, DefaultSiteURL),
		StateDir: os.Getenv(envStateDir),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
