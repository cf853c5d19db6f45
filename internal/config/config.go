// Package config loads Viper-backed configuration and builds the process logger.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full, immutable process configuration. It is unmarshalled
// once at startup and read-only afterwards.
type Config struct {
	Target      TargetConfig      `mapstructure:"target"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Selectors   SelectorsConfig   `mapstructure:"selectors"`
	Thresholds  ThresholdsConfig  `mapstructure:"thresholds"`
	Retry       RetryConfig       `mapstructure:"retry"`
	Alerts      AlertsConfig      `mapstructure:"alerts"`
	Browser     BrowserConfig     `mapstructure:"browser"`
	Scrape      ScrapeConfig      `mapstructure:"scrape"`
	Files       FilesConfig       `mapstructure:"files"`
	Database    DatabaseConfig    `mapstructure:"database"`
}

type TargetConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	LoginPath  string `mapstructure:"login_path"`
	StatusPath string `mapstructure:"status_path"`
}

// LoginURL resolves the login path against the base URL.
func (t TargetConfig) LoginURL() (string, error) {
	return t.resolve(t.LoginPath)
}

// StatusURL resolves the status page path against the base URL.
func (t TargetConfig) StatusURL() (string, error) {
	return t.resolve(t.StatusPath)
}

func (t TargetConfig) resolve(p string) (string, error) {
	base, err := url.Parse(t.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", t.BaseURL, err)
	}
	ref, err := url.Parse(p)
	if err != nil {
		return "", fmt.Errorf("parse path %q: %w", p, err)
	}
	return base.ResolveReference(ref).String(), nil
}

type CredentialsConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// SelectorsConfig holds the CSS selectors and XPath expressions used to
// locate page elements. An empty optional-field selector disables that field.
type SelectorsConfig struct {
	OnOffStatus        string `mapstructure:"on_off_status"`
	OnOffStatusXPath   string `mapstructure:"on_off_status_xpath"`
	LastLoginTimeXPath string `mapstructure:"last_login_time_xpath"`
	SignalStrength     string `mapstructure:"signal_strength"`
	BatteryLevel       string `mapstructure:"battery_level"`
	LoginForm          string `mapstructure:"login_form"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	Submit             string `mapstructure:"submit"`
	Dashboard          string `mapstructure:"dashboard"`
}

// ThresholdsConfig holds the data-quality minimums. These are distinct from
// the alert thresholds in AlertsConfig.
type ThresholdsConfig struct {
	MinSignal  int `mapstructure:"min_signal"`
	MinBattery int `mapstructure:"min_battery"`
}

type RetryConfig struct {
	MaxRetries    int           `mapstructure:"max_retries"`
	InitialDelay  time.Duration `mapstructure:"initial_delay"`
	MaxDelay      time.Duration `mapstructure:"max_delay"`
	BackoffFactor float64       `mapstructure:"backoff_factor"`
}

type AlertsConfig struct {
	Enabled          bool            `mapstructure:"enabled"`
	FailureThreshold int             `mapstructure:"failure_threshold"`
	Recipients       []string        `mapstructure:"recipients"`
	SMTP             SMTPConfig      `mapstructure:"smtp"`
	Webhook          WebhookConfig   `mapstructure:"webhook"`
	SignalLow        DataAlertConfig `mapstructure:"signal_low"`
	BatteryLow       DataAlertConfig `mapstructure:"battery_low"`
	DataCooldown     time.Duration   `mapstructure:"data_cooldown"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type WebhookConfig struct {
	URL     string            `mapstructure:"url"`
	Secret  string            `mapstructure:"secret"`
	Headers map[string]string `mapstructure:"headers"`
}

// DataAlertConfig gates one field-threshold alert.
type DataAlertConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	Threshold int  `mapstructure:"threshold"`
}

type BrowserConfig struct {
	Headless       bool          `mapstructure:"headless"`
	NoSandbox      bool          `mapstructure:"no_sandbox"`
	UserAgent      string        `mapstructure:"user_agent"`
	NavTimeout     time.Duration `mapstructure:"nav_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type ScrapeConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type FilesConfig struct {
	Dir        string `mapstructure:"dir"`
	LogPrefix  string `mapstructure:"log_prefix"`
	HTMLPrefix string `mapstructure:"html_prefix"`
}

type DatabaseConfig struct {
	Path      string        `mapstructure:"path"`
	Retention time.Duration `mapstructure:"retention"`
}

// LoadViper reads configuration from an optional file and environment
// variables. Environment overrides use the RM_ prefix, e.g.
// RM_ALERTS_FAILURE_THRESHOLD=5.
func LoadViper(configPath string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("target.base_url", "https://radio.example.com")
	v.SetDefault("target.login_path", "/login")
	v.SetDefault("target.status_path", "/radio_status")

	v.SetDefault("credentials.username", "")
	v.SetDefault("credentials.password", "")

	v.SetDefault("selectors.on_off_status", "#status-indicator")
	v.SetDefault("selectors.on_off_status_xpath", `//div[@id="status-indicator"]`)
	v.SetDefault("selectors.last_login_time_xpath", `//div[@class="last-login"]`)
	v.SetDefault("selectors.signal_strength", ".signal-bar")
	v.SetDefault("selectors.battery_level", "#battery-percent")
	v.SetDefault("selectors.login_form", `input[name="username"]`)
	v.SetDefault("selectors.username", `input[name="username"]`)
	v.SetDefault("selectors.password", `input[name="password"]`)
	v.SetDefault("selectors.submit", `button[type="submit"]`)
	v.SetDefault("selectors.dashboard", "#dashboard")

	v.SetDefault("thresholds.min_signal", -80)
	v.SetDefault("thresholds.min_battery", 20)

	v.SetDefault("retry.max_retries", 5)
	v.SetDefault("retry.initial_delay", "5s")
	v.SetDefault("retry.max_delay", "60s")
	v.SetDefault("retry.backoff_factor", 2.0)

	v.SetDefault("alerts.enabled", false)
	v.SetDefault("alerts.failure_threshold", 3)
	v.SetDefault("alerts.recipients", []string{})
	v.SetDefault("alerts.smtp.host", "")
	v.SetDefault("alerts.smtp.port", 587)
	v.SetDefault("alerts.smtp.username", "")
	v.SetDefault("alerts.smtp.password", "")
	v.SetDefault("alerts.webhook.url", "")
	v.SetDefault("alerts.webhook.secret", "")
	v.SetDefault("alerts.signal_low.enabled", false)
	v.SetDefault("alerts.signal_low.threshold", -95)
	v.SetDefault("alerts.battery_low.enabled", false)
	v.SetDefault("alerts.battery_low.threshold", 10)
	v.SetDefault("alerts.data_cooldown", "0s")

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.no_sandbox", true)
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("browser.nav_timeout", "60s")
	v.SetDefault("browser.request_timeout", "30s")

	v.SetDefault("scrape.interval", "60s")

	v.SetDefault("files.dir", "./data")
	v.SetDefault("files.log_prefix", "scrape-log")
	v.SetDefault("files.html_prefix", "html-response")

	v.SetDefault("database.path", "./data/radio-monitor.db")
	v.SetDefault("database.retention", "720h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("radio-monitor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/radio-monitor")
	}

	v.SetEnvPrefix("RM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}

// Load builds the typed Config from a loaded Viper instance and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that cannot produce a working monitor.
func (c *Config) Validate() error {
	if _, err := c.Target.LoginURL(); err != nil {
		return err
	}
	if _, err := c.Target.StatusURL(); err != nil {
		return err
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must be >= 0, got %d", c.Retry.MaxRetries)
	}
	if c.Retry.BackoffFactor < 1 {
		return fmt.Errorf("retry.backoff_factor must be >= 1, got %g", c.Retry.BackoffFactor)
	}
	if c.Retry.InitialDelay <= 0 || c.Retry.MaxDelay <= 0 {
		return fmt.Errorf("retry delays must be positive")
	}
	if c.Scrape.Interval <= 0 {
		return fmt.Errorf("scrape.interval must be positive, got %s", c.Scrape.Interval)
	}
	if c.Alerts.FailureThreshold < 1 {
		return fmt.Errorf("alerts.failure_threshold must be >= 1, got %d", c.Alerts.FailureThreshold)
	}
	return nil
}
