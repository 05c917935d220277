package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/lector/pkg/frequency"
	"github.com/japaniel/lector/pkg/llm"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range []string{"OPENAI_API_KEY", "OPENAI_BASE_URL", "LECTOR_DATABASE_PATH", "LECTOR_LOCALE"} {
		t.Setenv(env, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "lector.db", cfg.Database.Path)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, int64(10*1024*1024), cfg.Fetch.MaxBodyBytes)
	assert.Equal(t, "zh-cn", cfg.Locale)
	assert.Equal(t, 1.0, cfg.HardWords.K)
	assert.Equal(t, "rarity", cfg.HardWords.ScoreDirection)
	assert.Equal(t, llm.DefaultModels, cfg.Models())
	assert.Empty(t, cfg.FrequencySources())
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	enPath := writeFile(t, dir, "en.csv", "word,score\nthe,1\n")
	jaPath := writeFile(t, dir, "ja.csv", "word,score\n猫,5\n")

	configPath := writeFile(t, dir, "lector.yaml", `server:
  addr: ":9000"
  allowed_origins: ["https://reader.example"]
database:
  path: `+filepath.Join(dir, "db.sqlite")+`
fetch:
  timeout: 5s
openai:
  timeout: 10s
  models:
    speed: small
languages:
  en:
    frequency_path: `+enPath+`
  ja:
    frequency_path: `+jaPath+`
    score_direction: frequency
hard_words:
  k: 1.5
locale: ja
log:
  mode: prod
`)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, []string{"https://reader.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 10*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, "small", cfg.Models()[llm.TierSpeed])
	assert.Equal(t, "gpt-5-mini", cfg.Models()[llm.TierBalanced])
	assert.Equal(t, 1.5, cfg.HardWords.K)
	assert.Equal(t, "prod", cfg.Log.Mode)
	assert.Equal(t, map[string]frequency.Source{
		"en": {Path: enPath, Direction: frequency.Rarity},
		"ja": {Path: jaPath, Direction: frequency.Frequency},
	}, cfg.FrequencySources())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	configPath := writeFile(t, dir, "lector.yaml", "locale: en\n")

	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OPENAI_BASE_URL", "http://llm.internal/v1")
	t.Setenv("LECTOR_DATABASE_PATH", "/tmp/env.db")
	t.Setenv("LECTOR_LOCALE", "ja")

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
	assert.Equal(t, "http://llm.internal/v1", cfg.OpenAI.BaseURL)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
	assert.Equal(t, "ja", cfg.Locale)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name              string
		content           string
		wantErrorContains []string
	}{
		{
			name:              "invalid YAML format",
			content:           "server:\n  addr: \":1\"\n  invalid yaml format here [[[\n",
			wantErrorContains: []string{"configuration file found but could not be read"},
		},
		{
			name:              "missing frequency file",
			content:           "languages:\n  en:\n    frequency_path: /does/not/exist.csv\n",
			wantErrorContains: []string{"languages.en.frequency_path: frequency corpus /does/not/exist.csv cannot be read"},
		},
		{
			name:              "unknown score direction",
			content:           "hard_words:\n  score_direction: zipf\n",
			wantErrorContains: []string{"hard_words.score_direction:"},
		},
		{
			name:              "negative k and bad log mode",
			content:           "hard_words:\n  k: -1\nlog:\n  mode: verbose\n",
			wantErrorContains: []string{"hard_words.k: k must be greater than 0", "log.mode: mode must be one of"},
		},
		{
			name:              "zero k",
			content:           "hard_words:\n  k: 0\n",
			wantErrorContains: []string{"hard_words.k: k must be greater than 0"},
		},
		{
			name:              "bad base url",
			content:           "openai:\n  base_url: not a url\n",
			wantErrorContains: []string{"openai.base_url: base_url must be a valid URL"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			path := writeFile(t, t.TempDir(), "config.yaml", tt.content)

			_, err := Load(path)
			require.Error(t, err)
			for _, want := range tt.wantErrorContains {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestConfigKey(t *testing.T) {
	assert.Equal(t, "hard_words.k", configKey("Config.hard_words.k"))
	assert.Equal(t, "languages.fr.frequency_path", configKey("Config.languages[fr].frequency_path"))
	assert.Equal(t, "locale", configKey("locale"))
}
