package models

import "time"

// StorageBackend selects the key-value store that holds the board snapshot.
type StorageBackend string

const (
	StorageFile   StorageBackend = "file"
	StorageSQLite StorageBackend = "sqlite"
	StorageMemory StorageBackend = "memory"
)

// SlackConfig holds the Slack webhook used for celebration notifications.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// NotificationConfig controls where celebrations are sent besides the
// terminal.
type NotificationConfig struct {
	Enabled bool        `yaml:"enabled" mapstructure:"enabled"`
	Slack   SlackConfig `yaml:"slack" mapstructure:"slack"`
}

// SnapshotConfig controls the persistence mirror write policy.
type SnapshotConfig struct {
	// Interval is the safety-net period; dirty state is rewritten on every tick.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	// Debounce coalesces bursts of mutations. Zero means write-through.
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

// CelebrationConfig holds the celebration messages and the quote refresh delay.
type CelebrationConfig struct {
	Messages         []string      `yaml:"messages,omitempty" mapstructure:"messages"`
	MilestoneMessage string        `yaml:"milestone_message,omitempty" mapstructure:"milestone_message"`
	QuoteDelay       time.Duration `yaml:"quote_delay" mapstructure:"quote_delay"`
}

// GlobalConfig holds board settings read from .goalsconfig via Viper, with
// environment overrides applied on top.
type GlobalConfig struct {
	DefaultProject ProjectKey         `yaml:"default_project" mapstructure:"default_project"`
	StorageBackend StorageBackend     `yaml:"storage_backend" mapstructure:"storage_backend"`
	StoragePath    string             `yaml:"storage_path,omitempty" mapstructure:"storage_path"`
	Snapshot       SnapshotConfig     `yaml:"snapshot" mapstructure:"snapshot"`
	Celebration    CelebrationConfig  `yaml:"celebration" mapstructure:"celebration"`
	Notifications  NotificationConfig `yaml:"notifications" mapstructure:"notifications"`
}
