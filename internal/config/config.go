package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds the relay configuration. Environment variables are parsed
// from the TERMRELAY_ prefix, e.g. TERMRELAY_GW_URL, TERMRELAY_KEYWORDS.
type Config struct {
	// Upstream service settings.
	GwURL           string `envconfig:"GW_URL" default:""`
	GwGraphQLAPIKey string `envconfig:"GW_API_KEY_GRAPHQL" default:""`
	GwRestAPIKey    string `envconfig:"GW_API_KEY_REST" default:""`
	GwOplogID       int64  `envconfig:"GW_OPLOG_ID" default:"0"`
	GwSSLCheck      bool   `envconfig:"GW_SSL_CHECK" default:"true"`
	GwTimeoutSecs   int    `envconfig:"GW_TIMEOUT_SECONDS" default:"5"`

	// Matching settings.
	Keywords   []string `envconfig:"KEYWORDS" default:""`
	DescToken  string   `envconfig:"DESC_TOKEN" default:"#desc"`
	NoLogToken string   `envconfig:"NOLOG_TOKEN" default:"#nolog"`

	// Entry defaults applied when the caller does not supply a value.
	Operator   string `envconfig:"OPERATOR" default:""`
	SourceHost string `envconfig:"SRC_HOST" default:""`
	DestHost   string `envconfig:"DEST_HOST" default:""`
	Comments   string `envconfig:"COMMENTS" default:"Logged by termrelay"`

	// Journal settings.
	SaveAllLocal bool   `envconfig:"SAVE_ALL_LOCAL" default:"false"`
	JournalDir   string `envconfig:"JOURNAL_DIR" default:"logs"`

	// Daemon settings.
	Enabled    bool   `envconfig:"ENABLED" default:"true"`
	ListenHost string `envconfig:"LISTEN_HOST" default:"127.0.0.1"`
	ListenPort int    `envconfig:"LISTEN_PORT" default:"8000"`
}

// New creates a Config from environment variables and normalizes it.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("TERMRELAY", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}

	log.Info().
		Str("gw_url", cfg.GwURL).
		Int64("oplog_id", cfg.GwOplogID).
		Bool("sync_enabled", cfg.SyncEnabled()).
		Bool("save_all_local", cfg.SaveAllLocal).
		Strs("keywords", cfg.Keywords).
		Str("journal_dir", cfg.JournalDir).
		Int("port", cfg.ListenPort).
		Msg("Configuration loaded")

	return &cfg, nil
}

// Resolve validates the configuration and forces local-only fallbacks when
// upstream sync cannot work. Marker tokens must start with '#' so the shell
// treats them as comments instead of executing them.
func (c *Config) Resolve() error {
	if c.DescToken != "" && !strings.HasPrefix(strings.TrimSpace(c.DescToken), "#") {
		return fmt.Errorf("desc token %q must start with '#'", c.DescToken)
	}
	if c.NoLogToken != "" && !strings.HasPrefix(strings.TrimSpace(c.NoLogToken), "#") {
		return fmt.Errorf("nolog token %q must start with '#'", c.NoLogToken)
	}
	if c.GwTimeoutSecs <= 0 {
		return fmt.Errorf("timeout must be a positive number of seconds, got %d", c.GwTimeoutSecs)
	}
	if c.GwURL != "" && !strings.HasPrefix(c.GwURL, "http") {
		return fmt.Errorf("invalid upstream URL %q", c.GwURL)
	}
	c.GwURL = strings.TrimRight(c.GwURL, "/")

	if !c.SyncEnabled() {
		switch {
		case c.GwURL == "":
			log.Warn().Msg("No upstream URL configured; activity will not be synced upstream")
		case c.GwOplogID < 1:
			log.Warn().Msg("Oplog ID must be a positive integer; activity will not be synced upstream")
		default:
			log.Warn().Msg("No upstream API key configured; activity will not be synced upstream")
		}
		// Without an upstream the journal is the only copy.
		c.SaveAllLocal = true
		log.Info().Msg("Local journal enabled as a fallback")
	}
	return nil
}

// SyncEnabled reports whether the configuration is complete enough to reach
// the upstream service.
func (c *Config) SyncEnabled() bool {
	return c.GwURL != "" && c.GwOplogID > 0 && (c.GwGraphQLAPIKey != "" || c.GwRestAPIKey != "")
}

// Timeout returns the bounded upstream timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.GwTimeoutSecs) * time.Second
}

// ListenAddr returns the daemon bind address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ListenHost, c.ListenPort)
}

// NewForTesting creates a config suitable for unit tests: local-only unless
// the test fills in upstream settings.
func NewForTesting() *Config {
	return &Config{
		GwSSLCheck:    true,
		GwTimeoutSecs: 2,
		Keywords:      []string{"kubectl"},
		DescToken:     "#desc",
		NoLogToken:    "#nolog",
		Comments:      "Logged by termrelay",
		JournalDir:    "logs",
		Enabled:       true,
		ListenHost:    "127.0.0.1",
		ListenPort:    8000,
	}
}
