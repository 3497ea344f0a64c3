package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/talentscout/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "data_dir: ./scratch\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "./scratch", cfg.DataDir)
	require.Equal(t, 7, cfg.Pipeline.FollowUpDays)
	require.Equal(t, "127.0.0.1:8404", cfg.Server.Addr())
	require.Equal(t, "scout.pipeline", cfg.Events.SubjectPrefix)
	require.Equal(t, 15*time.Minute, cfg.Scheduler.ImportInterval.Std())
	require.Equal(t, filepath.Join("./scratch", "events.db"), cfg.EventLogPath())
	require.Equal(t, filepath.Join("./scratch", "import-jobs"), cfg.ImportDir())
	require.Equal(t, "pipeline.xlsx", cfg.Export.DefaultOut)
}

func TestLoadParsesFullDocument(t *testing.T) {
	path := writeConfig(t, `
data_dir: /tmp/scout
profile:
  base_resume: /tmp/resume.md
locations: [oslo, remote]
pipeline:
  follow_up_days: 10
llm:
  model: claude-sonnet-4-20250514
  max_tokens: 2000
  temperature: 0.4
  timeout: 90s
  retries: 2
server:
  host: 0.0.0.0
  port: 9000
  cors_origins: ["https://scout.local"]
events:
  sqlite_path: /var/lib/scout/events.db
  nats_enabled: true
  nats_url: nats://broker:4222
scheduler:
  enabled: true
  import_interval: 5m
  reminder_interval: 12h
  learning_interval: 168h
watch:
  enabled: true
corpus:
  dirs: [/home/me/notes]
  repos:
    - url: https://example.com/me/brag-doc.git
      branch: main
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"oslo", "remote"}, cfg.Locations)
	require.Equal(t, 10, cfg.Pipeline.FollowUpDays)
	require.Equal(t, 90*time.Second, cfg.LLM.Timeout.Std())
	require.Equal(t, "0.0.0.0:9000", cfg.Server.Addr())
	require.True(t, cfg.Events.NATSEnabled)
	require.Equal(t, "/var/lib/scout/events.db", cfg.EventLogPath())
	require.Equal(t, 168*time.Hour, cfg.Scheduler.LearningInterval.Std())
	require.True(t, cfg.Watch.Enabled)
	require.Len(t, cfg.Corpus.Repos, 1)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("SCOUT_TEST_DATA_DIR", "/tmp/from-env")
	path := writeConfig(t, "data_dir: ${SCOUT_TEST_DATA_DIR}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/from-env", cfg.DataDir)
}

func TestLoadMissingFileIsConfigError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.True(t, errors.IsCategory(err, errors.CategoryConfig))
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "data_dir: [unclosed\n")
	_, err := Load(path)
	require.True(t, errors.IsCategory(err, errors.CategoryConfig))
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, "llm:\n  timeout: soon\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateRejectsRepoWithoutURL(t *testing.T) {
	path := writeConfig(t, "corpus:\n  repos:\n    - name: broken\n")
	_, err := Load(path)
	require.True(t, errors.IsCategory(err, errors.CategoryConfig))
}

func TestInitWritesStarterAndRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, Init(path, false))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "data_dir:")
	require.Contains(t, string(data), "follow_up_days: 7")

	err = Init(path, false)
	require.True(t, errors.IsCategory(err, errors.CategoryConflict))
	require.NoError(t, Init(path, true))

	// The starter file must load cleanly.
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
}
