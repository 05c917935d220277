// Package config loads lector's settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/japaniel/lector/pkg/frequency"
	"github.com/japaniel/lector/pkg/llm"
	"github.com/japaniel/lector/pkg/nlp"
)

type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	Database  DatabaseConfig            `mapstructure:"database"`
	Fetch     FetchConfig               `mapstructure:"fetch"`
	OpenAI    OpenAIConfig              `mapstructure:"openai"`
	Languages map[string]LanguageConfig `mapstructure:"languages" validate:"dive"`
	HardWords HardWordsConfig           `mapstructure:"hard_words"`
	Locale    string                    `mapstructure:"locale" validate:"required"`
	Log       LogConfig                 `mapstructure:"log"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr" validate:"required"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type FetchConfig struct {
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes" validate:"gt=0"`
	UserAgent    string        `mapstructure:"user_agent"`
}

type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Models  ModelsConfig  `mapstructure:"models"`
}

type ModelsConfig struct {
	Speed    string `mapstructure:"speed" validate:"required"`
	Balanced string `mapstructure:"balanced" validate:"required"`
	Quality  string `mapstructure:"quality" validate:"required"`
}

// LanguageConfig points at a language's frequency corpus. ScoreDirection
// overrides hard_words.score_direction for this corpus.
type LanguageConfig struct {
	FrequencyPath  string `mapstructure:"frequency_path" validate:"omitempty,file"`
	ScoreDirection string `mapstructure:"score_direction" validate:"omitempty,oneof=rarity frequency"`
}

type HardWordsConfig struct {
	K              float64 `mapstructure:"k" validate:"gt=0"`
	ScoreDirection string  `mapstructure:"score_direction" validate:"oneof=rarity frequency"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode" validate:"oneof=dev prod development production"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("database.path", "lector.db")
	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.max_body_bytes", 10*1024*1024)
	v.SetDefault("openai.base_url", llm.DefaultBaseURL)
	v.SetDefault("openai.timeout", llm.DefaultTimeout)
	v.SetDefault("openai.models.speed", llm.DefaultModels[llm.TierSpeed])
	v.SetDefault("openai.models.balanced", llm.DefaultModels[llm.TierBalanced])
	v.SetDefault("openai.models.quality", llm.DefaultModels[llm.TierQuality])
	v.SetDefault("hard_words.k", 1.0)
	v.SetDefault("hard_words.score_direction", string(frequency.Rarity))
	v.SetDefault("locale", "zh-cn")
	v.SetDefault("log.mode", "dev")
}

// Load reads configFile, or config.yaml from . or $HOME/.config/lector when
// configFile is empty, and validates the result. A missing default file is
// not an error.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/lector")
	}
	setDefaults(v)

	envs := map[string]string{
		"openai.api_key":  "OPENAI_API_KEY",
		"openai.base_url": "OPENAI_BASE_URL",
		"database.path":   "LECTOR_DATABASE_PATH",
		"locale":          "LECTOR_LOCALE",
	}
	for key, env := range envs {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s environment variable: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	validate, trans, err := newValidator()
	if err != nil {
		return err
	}
	err = validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, configKey(fe.Namespace())+": "+fe.Translate(trans))
	}
	sort.Strings(msgs)
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// FrequencySources lists the configured corpora by normalized language code.
func (c *Config) FrequencySources() map[string]frequency.Source {
	out := make(map[string]frequency.Source, len(c.Languages))
	for code, lc := range c.Languages {
		if lc.FrequencyPath == "" {
			continue
		}
		dir := lc.ScoreDirection
		if dir == "" {
			dir = c.HardWords.ScoreDirection
		}
		// Values are already validated.
		d, _ := frequency.ParseDirection(dir)
		out[nlp.NormalizeLanguage(code)] = frequency.Source{Path: lc.FrequencyPath, Direction: d}
	}
	return out
}

// Models maps model tiers to the configured model names.
func (c *Config) Models() map[llm.Tier]string {
	return map[llm.Tier]string{
		llm.TierSpeed:    c.OpenAI.Models.Speed,
		llm.TierBalanced: c.OpenAI.Models.Balanced,
		llm.TierQuality:  c.OpenAI.Models.Quality,
	}
}
