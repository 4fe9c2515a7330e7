package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv(envAPIURL, "")
	t.Setenv(envSiteURL, "")
	t.Setenv(envStateDir, "")

	cfg := Load()
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL = %q, want default", cfg.APIURL)
	}
	if cfg.SiteURL != DefaultSiteURL {
		t.Errorf("SiteURL = %q, want default", cfg.SiteURL)
	}
	if cfg.StateDir != "" {
		t.Errorf("StateDir = %q, want empty", cfg.StateDir)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(envAPIURL, "http://localhost:8000/api")
	t.Setenv(envSiteURL, "http://localhost:3000")
	t.Setenv(envStateDir, "/tmp/nexa-test")

	cfg := Load()
	if cfg.APIURL != "http://localhost:8000/api" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.SiteURL != "http://localhost:3000" {
		t.Errorf("SiteURL = %q", cfg.SiteURL)
	}
	if cfg.StateDir != "/tmp/nexa-test" {
		t.Errorf("StateDir = %q", cfg.StateDir)
	}
}
