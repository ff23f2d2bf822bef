package config

import (
	"fmt"
	"net/url"
	"portalsync/internal/components/telemetry"
	"time"
)

type Portal struct {
	// BaseUrl is the root every scraped page is resolved against.
	BaseUrl string `json:"base_url"`
	// LoginUrl is the identity provider entrypoint, it usually carries `idp=...`.
	LoginUrl string `json:"login_url"`
	// LandingUrlPrefix identifies the page the provider redirects to after a successful login.
	LandingUrlPrefix  string  `json:"landing_url_prefix"`
	SessionCookie     string  `json:"session_cookie"`
	UserAgent         string  `json:"user_agent"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
}

type Login struct {
	PollIntervalMs        int    `json:"poll_interval_ms"`
	SessionTimeoutSeconds int    `json:"session_timeout_seconds"`
	StallTimeoutSeconds   int    `json:"stall_timeout_seconds"`
	LoginTimeoutSeconds   int    `json:"login_timeout_seconds"`
	RecheckIntervalMs     int    `json:"recheck_interval_ms"`
	Headless              *bool  `json:"headless"`
	ChromePath            string `json:"chrome_path"`
}

func (l Login) PollInterval() time.Duration {
	return time.Duration(l.PollIntervalMs) * time.Millisecond
}

func (l Login) SessionTimeout() time.Duration {
	return time.Duration(l.SessionTimeoutSeconds) * time.Second
}

func (l Login) StallTimeout() time.Duration {
	return time.Duration(l.StallTimeoutSeconds) * time.Second
}

func (l Login) LoginTimeout() time.Duration {
	return time.Duration(l.LoginTimeoutSeconds) * time.Second
}

func (l Login) RecheckInterval() time.Duration {
	return time.Duration(l.RecheckIntervalMs) * time.Millisecond
}

// Selectors overrides the CSS selectors used to recognize login pages, empty
// fields keep the defaults.
type Selectors struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	Submit        string `json:"submit"`
	Provider      string `json:"provider"`
	ErrorText     string `json:"error_text"`
	TwoFactorCode string `json:"two_factor_code"`
}

type Database struct {
	// File is a local sqlite path, ":memory:" is allowed.
	File string `json:"file"`
	// Url points to a remote libsql database, it takes precedence over File.
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

const (
	KEYCHAIN_SQLITE = "sqlite"
	KEYCHAIN_MEMORY = "memory"
)

type Keychain struct {
	Type          string `json:"type"`
	TokenTtlHours int    `json:"token_ttl_hours"`
}

type Log struct {
	Level  string `json:"level"`
	Debug  bool   `json:"debug"`
	Format string `json:"format"`
}

type Sync struct {
	Cron string `json:"cron"`
}

type Config struct {
	Portal    Portal    `json:"portal"`
	Login     Login     `json:"login"`
	Selectors Selectors `json:"selectors"`
	Database  Database  `json:"database"`
	Keychain  Keychain  `json:"keychain"`
	Log       Log       `json:"log"`
	Timezone  string    `json:"timezone"`
	Sync      Sync      `json:"sync"`
}

// WithDefaults returns a copy of the config with every unset value filled in.
func (c Config) WithDefaults() Config {
	if c.Portal.SessionCookie == "" {
		c.Portal.SessionCookie = "SESSION"
	}
	if c.Portal.UserAgent == "" {
		c.Portal.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	}
	if c.Portal.RequestsPerSecond == 0 {
		c.Portal.RequestsPerSecond = 2
	}
	if c.Portal.TimeoutSeconds == 0 {
		c.Portal.TimeoutSeconds = 30
	}
	if c.Login.PollIntervalMs == 0 {
		c.Login.PollIntervalMs = 2000
	}
	if c.Login.SessionTimeoutSeconds == 0 {
		c.Login.SessionTimeoutSeconds = 120
	}
	if c.Login.StallTimeoutSeconds == 0 {
		c.Login.StallTimeoutSeconds = 30
	}
	if c.Login.LoginTimeoutSeconds == 0 {
		c.Login.LoginTimeoutSeconds = 300
	}
	if c.Login.RecheckIntervalMs == 0 {
		c.Login.RecheckIntervalMs = 1000
	}
	if c.Login.Headless == nil {
		headless := true
		c.Login.Headless = &headless
	}
	if c.Database.File == "" && c.Database.Url == "" {
		c.Database.File = "portalsync.db"
	}
	if c.Keychain.Type == "" {
		c.Keychain.Type = KEYCHAIN_SQLITE
	}
	if c.Keychain.TokenTtlHours == 0 {
		c.Keychain.TokenTtlHours = 24
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Tokyo"
	}
	if c.Sync.Cron == "" {
		c.Sync.Cron = "*/30 * * * *"
	}
	return c
}

func requireUrl(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", name)
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute url, got %q", name, value)
	}
	return nil
}

// Validate reports the first problem that would prevent the client from starting.
func (c Config) Validate() error {
	if err := requireUrl("portal.base_url", c.Portal.BaseUrl); err != nil {
		return err
	}
	if err := requireUrl("portal.login_url", c.Portal.LoginUrl); err != nil {
		return err
	}
	if err := requireUrl("portal.landing_url_prefix", c.Portal.LandingUrlPrefix); err != nil {
		return err
	}
	if c.Portal.RequestsPerSecond < 0 {
		return fmt.Errorf("portal.requests_per_second must not be negative")
	}
	switch c.Keychain.Type {
	case KEYCHAIN_SQLITE, KEYCHAIN_MEMORY:
	default:
		return fmt.Errorf("keychain.type must be %q or %q, got %q", KEYCHAIN_SQLITE, KEYCHAIN_MEMORY, c.Keychain.Type)
	}
	if _, err := telemetry.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	return nil
}
