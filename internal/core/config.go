package core

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
	"github.com/valter-silva-au/goal-board/pkg/models"
)

// ConfigFileName is the board configuration file looked up in the base path.
const ConfigFileName = ".goalsconfig"

// ConfigurationManager loads and validates board configuration from
// .goalsconfig and the environment.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// envOverrides are applied on top of the file configuration. Unset variables
// leave the file value untouched.
type envOverrides struct {
	DefaultProject   string        `env:"GOALS_DEFAULT_PROJECT"`
	StorageBackend   string        `env:"GOALS_STORAGE_BACKEND"`
	StoragePath      string        `env:"GOALS_STORAGE_PATH"`
	SnapshotInterval time.Duration `env:"GOALS_SNAPSHOT_INTERVAL"`
	SnapshotDebounce time.Duration `env:"GOALS_SNAPSHOT_DEBOUNCE"`
	SlackWebhookURL  string        `env:"GOALS_SLACK_WEBHOOK_URL"`
}

// viperConfigManager implements ConfigurationManager using Viper for the YAML
// file and caarlos0/env for environment overrides.
type viperConfigManager struct {
	basePath string
	environ  map[string]string // nil reads the process environment
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .goalsconfig from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// newConfigurationManagerWithEnv is used by tests to inject the environment.
func newConfigurationManagerWithEnv(basePath string, environ map[string]string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath, environ: environ}
}

// DefaultGlobalConfig returns a GlobalConfig populated with the defaults.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		DefaultProject: DefaultProjectKey,
		StorageBackend: models.StorageFile,
		Snapshot: models.SnapshotConfig{
			Interval: DefaultSnapshotInterval,
		},
		Celebration: models.CelebrationConfig{
			MilestoneMessage: DefaultMilestoneMessage,
			QuoteDelay:       DefaultQuoteDelay,
		},
	}
}

// LoadGlobalConfig reads .goalsconfig from the base path, then applies
// environment overrides. A missing file yields the defaults.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("defaults.project", string(cfg.DefaultProject))
	v.SetDefault("storage.backend", string(cfg.StorageBackend))
	v.SetDefault("storage.path", "")
	v.SetDefault("snapshot.interval", cfg.Snapshot.Interval)
	v.SetDefault("snapshot.debounce", time.Duration(0))
	v.SetDefault("celebration.milestone_message", cfg.Celebration.MilestoneMessage)
	v.SetDefault("celebration.quote_delay", cfg.Celebration.QuoteDelay)
	v.SetDefault("notifications.enabled", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
		}
	}

	cfg.DefaultProject = models.ProjectKey(v.GetString("defaults.project"))
	cfg.StorageBackend = models.StorageBackend(v.GetString("storage.backend"))
	cfg.StoragePath = v.GetString("storage.path")
	cfg.Snapshot.Interval = v.GetDuration("snapshot.interval")
	cfg.Snapshot.Debounce = v.GetDuration("snapshot.debounce")
	cfg.Celebration.Messages = v.GetStringSlice("celebration.messages")
	cfg.Celebration.MilestoneMessage = v.GetString("celebration.milestone_message")
	cfg.Celebration.QuoteDelay = v.GetDuration("celebration.quote_delay")
	cfg.Notifications.Enabled = v.GetBool("notifications.enabled")
	cfg.Notifications.Slack.WebhookURL = v.GetString("notifications.slack.webhook_url")

	if err := cm.applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cm *viperConfigManager) applyEnv(cfg *models.GlobalConfig) error {
	var o envOverrides
	opts := env.Options{}
	if cm.environ != nil {
		opts.Environment = cm.environ
	}
	if err := env.ParseWithOptions(&o, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if o.DefaultProject != "" {
		cfg.DefaultProject = models.ProjectKey(o.DefaultProject)
	}
	if o.StorageBackend != "" {
		cfg.StorageBackend = models.StorageBackend(o.StorageBackend)
	}
	if o.StoragePath != "" {
		cfg.StoragePath = o.StoragePath
	}
	if o.SnapshotInterval != 0 {
		cfg.Snapshot.Interval = o.SnapshotInterval
	}
	if o.SnapshotDebounce != 0 {
		cfg.Snapshot.Debounce = o.SnapshotDebounce
	}
	if o.SlackWebhookURL != "" {
		cfg.Notifications.Slack.WebhookURL = o.SlackWebhookURL
		cfg.Notifications.Enabled = true
	}
	return nil
}

var validBackends = map[models.StorageBackend]bool{
	models.StorageFile:   true,
	models.StorageSQLite: true,
	models.StorageMemory: true,
}

// ValidateConfig checks the configuration and reports every problem at once.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if cfg.DefaultProject == "" {
		errs = append(errs, "defaults.project must not be empty")
	}
	if !validBackends[cfg.StorageBackend] {
		errs = append(errs, fmt.Sprintf(
			"storage.backend %q is invalid, must be one of: file, sqlite, memory",
			cfg.StorageBackend,
		))
	}
	if cfg.Snapshot.Interval <= 0 {
		errs = append(errs, fmt.Sprintf("snapshot.interval must be positive, got %s", cfg.Snapshot.Interval))
	}
	if cfg.Snapshot.Debounce < 0 {
		errs = append(errs, fmt.Sprintf("snapshot.debounce must not be negative, got %s", cfg.Snapshot.Debounce))
	}
	if cfg.Celebration.QuoteDelay < 0 {
		errs = append(errs, fmt.Sprintf("celebration.quote_delay must not be negative, got %s", cfg.Celebration.QuoteDelay))
	}
	for i, msg := range cfg.Celebration.Messages {
		if strings.TrimSpace(msg) == "" {
			errs = append(errs, fmt.Sprintf("celebration.messages[%d] must not be blank", i))
		}
	}
	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL != "" {
		if u, err := url.Parse(cfg.Notifications.Slack.WebhookURL); err != nil || u.Scheme != "https" {
			errs = append(errs, "notifications.slack.webhook_url must be an https URL")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
