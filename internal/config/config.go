// Package config loads config.yaml, expands ${ENV} references, and applies
// defaults. A .env file in the working directory is loaded first via
// godotenv; already-set process environment always wins.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/talentscout/internal/errors"
)

// DefaultPath is where the CLI looks for configuration when --config is not
// given.
const DefaultPath = "config.yaml"

// Duration decodes "15m" / "24h" style YAML scalars.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts to the standard library type.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration document.
type Config struct {
	DataDir   string          `yaml:"data_dir"`
	Profile   ProfileConfig   `yaml:"profile"`
	Locations []string        `yaml:"locations"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	LLM       LLMConfig       `yaml:"llm"`
	Server    ServerConfig    `yaml:"server"`
	Events    EventsConfig    `yaml:"events"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Watch     WatchConfig     `yaml:"watch"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Export    ExportConfig    `yaml:"export"`
}

// ProfileConfig points at the operator's source-of-truth documents.
type ProfileConfig struct {
	BaseResume string `yaml:"base_resume"`
}

// PipelineConfig tunes pipeline review behavior.
type PipelineConfig struct {
	FollowUpDays int `yaml:"follow_up_days"`
}

// LLMConfig configures the completion client. APIKey is usually left empty
// here and provided through ANTHROPIC_API_KEY or a .env file.
type LLMConfig struct {
	BaseURL     string   `yaml:"base_url"`
	APIKey      string   `yaml:"api_key"`
	Model       string   `yaml:"model"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature float64  `yaml:"temperature"`
	Timeout     Duration `yaml:"timeout"`
	Retries     int      `yaml:"retries"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Addr renders host:port for net.Listen.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// EventsConfig configures the transition event log and the optional NATS
// publisher.
type EventsConfig struct {
	SQLiteFile    string `yaml:"sqlite_path"`
	NATSEnabled   bool   `yaml:"nats_enabled"`
	NATSURL       string `yaml:"nats_url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// SchedulerConfig gates the serve-mode background jobs. A zero
// LearningInterval disables scheduled learning runs.
type SchedulerConfig struct {
	Enabled          bool     `yaml:"enabled"`
	ImportInterval   Duration `yaml:"import_interval"`
	ReminderInterval Duration `yaml:"reminder_interval"`
	LearningInterval Duration `yaml:"learning_interval"`
}

// WatchConfig gates the import-directory watcher.
type WatchConfig struct {
	Enabled bool `yaml:"enabled"`
}

// CorpusConfig lists corpus sources.
type CorpusConfig struct {
	Dirs  []string     `yaml:"dirs"`
	Repos []RepoSource `yaml:"repos"`
}

// RepoSource names a git repository harvested into the corpus.
type RepoSource struct {
	URL    string `yaml:"url"`
	Branch string `yaml:"branch,omitempty"`
	Name   string `yaml:"name,omitempty"`
}

// ExportConfig sets the default workbook output path.
type ExportConfig struct {
	DefaultOut string `yaml:"default_out"`
}

// Load reads and validates configuration from path.
func Load(path string) (*Config, error) {
	// Missing .env is the normal case; godotenv never overrides existing env.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.StorageError("read config", err).WithContext("path", path)
	}

	expanded := os.ExpandEnv(string(data))
	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, errors.New(errors.CategoryConfig, errors.SeverityError, "invalid config yaml").
			WithContext("path", path).
			WithContext("cause", err.Error())
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.Pipeline.FollowUpDays <= 0 {
		c.Pipeline.FollowUpDays = 7
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8404
	}
	if c.Events.SQLiteFile == "" {
		c.Events.SQLiteFile = "events.db"
	}
	if c.Events.NATSURL == "" {
		c.Events.NATSURL = "nats://127.0.0.1:4222"
	}
	if c.Events.SubjectPrefix == "" {
		c.Events.SubjectPrefix = "scout.pipeline"
	}
	if c.Scheduler.ImportInterval <= 0 {
		c.Scheduler.ImportInterval = Duration(15 * time.Minute)
	}
	if c.Scheduler.ReminderInterval <= 0 {
		c.Scheduler.ReminderInterval = Duration(24 * time.Hour)
	}
	if c.Export.DefaultOut == "" {
		c.Export.DefaultOut = "pipeline.xlsx"
	}
}

// EventLogPath resolves the SQLite path; relative paths land under data_dir.
func (c *Config) EventLogPath() string {
	if filepath.IsAbs(c.Events.SQLiteFile) {
		return c.Events.SQLiteFile
	}
	return filepath.Join(c.DataDir, c.Events.SQLiteFile)
}

// ImportDir is where the watcher and sweep pick up posting files.
func (c *Config) ImportDir() string {
	return filepath.Join(c.DataDir, "import-jobs")
}

// Validate rejects configurations that cannot work.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.ConfigRequired("data_dir")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New(errors.CategoryConfig, errors.SeverityError, "server.port out of range").
			WithContext("port", c.Server.Port)
	}
	if c.Events.NATSEnabled && strings.TrimSpace(c.Events.NATSURL) == "" {
		return errors.ConfigRequired("events.nats_url")
	}
	for i, repo := range c.Corpus.Repos {
		if strings.TrimSpace(repo.URL) == "" {
			return errors.ConfigRequired(fmt.Sprintf("corpus.repos[%d].url", i))
		}
	}
	return nil
}

const starterConfig = `# talentscout configuration
data_dir: ./data

profile:
  # Markdown file describing your background; grounding for all generated
  # material.
  base_resume: ./profile/resume.md

locations:
  - oslo
  - remote

pipeline:
  follow_up_days: 7

llm:
  # API key comes from ANTHROPIC_API_KEY (or a .env file) by default.
  model: claude-sonnet-4-20250514
  max_tokens: 4096
  temperature: 0.2
  timeout: 120s
  retries: 3

server:
  host: 127.0.0.1
  port: 8404
  cors_origins: []

events:
  # Relative paths resolve under data_dir.
  sqlite_path: events.db
  nats_enabled: false
  nats_url: nats://127.0.0.1:4222
  subject_prefix: scout.pipeline

scheduler:
  enabled: false
  import_interval: 15m
  reminder_interval: 24h
  # learning_interval: 168h

watch:
  enabled: false

corpus:
  dirs: []
  repos: []

export:
  default_out: pipeline.xlsx
`

// Init writes a commented starter config. Refuses to overwrite unless force.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.Conflict("configuration file already exists; use --force to overwrite").
			WithContext("path", path)
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return errors.StorageError("write starter config", err).WithContext("path", path)
	}
	return nil
}
