package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderFake   = "fake"

	ProjectFile = "trialrev.yaml"
)

type Config struct {
	Model     ModelConfig     `mapstructure:"model"`
	Review    ReviewConfig    `mapstructure:"review"`
	Roles     []RoleConfig    `mapstructure:"roles" validate:"dive"`
	RolesDir  string          `mapstructure:"roles_dir"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Redaction RedactionConfig `mapstructure:"redaction"`
	Store     StoreConfig     `mapstructure:"store"`
	Log       LogConfig       `mapstructure:"log"`
	TUI       TUIConfig       `mapstructure:"tui"`
}

// ModelConfig is passed explicitly to every component that talks to the model.
type ModelConfig struct {
	Provider          string        `mapstructure:"provider" validate:"oneof=openai claude fake"`
	ID                string        `mapstructure:"id" validate:"required"`
	Temperature       float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	APIKey            string        `mapstructure:"api_key" json:"-"`
	Endpoint          string        `mapstructure:"endpoint" validate:"omitempty,url"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gte=0"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gte=0"`
	Command           string        `mapstructure:"command"`
	Args              []string      `mapstructure:"args"`
	FixtureDir        string        `mapstructure:"fixture_dir"`
}

type ReviewConfig struct {
	Roles           []string `mapstructure:"roles" validate:"min=1,dive,required"`
	Concurrency     int      `mapstructure:"concurrency" validate:"gte=0"`
	Isolate         bool     `mapstructure:"isolate"`
	RiskTemperature float64  `mapstructure:"risk_temperature" validate:"gte=0,lte=2"`
}

// RoleConfig declares an extra reviewer role inline in a config file.
type RoleConfig struct {
	Name        string   `mapstructure:"name" yaml:"name" validate:"required"`
	Label       string   `mapstructure:"label" yaml:"label"`
	Template    string   `mapstructure:"template" yaml:"template" validate:"required"`
	Temperature *float64 `mapstructure:"temperature" yaml:"temperature" validate:"omitempty,gte=0,lte=2"`
}

type GeneratorConfig struct {
	TemplatePath string  `mapstructure:"template_path"`
	Temperature  float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
}

type RedactionConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

type TUIConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func Defaults() Config {
	return Config{
		Model: ModelConfig{
			Provider:    ProviderOpenAI,
			ID:          "gpt-4o",
			Temperature: 0.5,
			Endpoint:    "https://api.openai.com/v1",
			Command:     "claude",
			Args:        []string{"-p", "--output-format", "text", "--model", "{MODEL}"},
		},
		Review: ReviewConfig{
			Roles:           []string{"pi", "site_physician", "health_authority"},
			RiskTemperature: 0.3,
		},
		Generator: GeneratorConfig{Temperature: 0.7},
		Redaction: RedactionConfig{Enabled: true},
		Store: StoreConfig{
			Path: filepath.Join(os.Getenv("HOME"), ".trialrev", "trialrev.db"),
		},
		Log: LogConfig{Level: "warn"},
		TUI: TUIConfig{Enabled: true},
	}
}

// Load merges defaults, the user config file, ./trialrev.yaml and
// environment overrides, in that order.
func Load(configPath string) (Config, error) {
	cfg := Defaults()

	if err := loadFile(UserConfigPath(configPath), &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load user config: %w", err)
	}
	if err := loadFile(filepath.Join(".", ProjectFile), &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load project config: %w", err)
	}
	applyEnv(&cfg)
	fillZeroValues(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// UserConfigPath is configPath when set, else ~/.trialrev/config.yaml.
func UserConfigPath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	return filepath.Join(os.Getenv("HOME"), ".trialrev", "config.yaml")
}

// Sources lists the files Load reads, in precedence order, and whether each
// exists.
func Sources(configPath string) []Source {
	paths := []string{UserConfigPath(configPath), filepath.Join(".", ProjectFile)}
	out := make([]Source, 0, len(paths))
	for _, p := range paths {
		_, err := os.Stat(p)
		out = append(out, Source{Path: p, Exists: err == nil})
	}
	return out
}

type Source struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	v := viper.New()
	_ = v.BindEnv("model.api_key", "TRIALREV_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("model.provider", "TRIALREV_PROVIDER")
	_ = v.BindEnv("model.id", "TRIALREV_MODEL")
	_ = v.BindEnv("model.fixture_dir", "TRIALREV_FIXTURE_DIR")
	_ = v.BindEnv("store.path", "TRIALREV_DB_PATH")
	_ = v.BindEnv("log.level", "TRIALREV_LOG_LEVEL")

	if v.IsSet("model.api_key") {
		cfg.Model.APIKey = v.GetString("model.api_key")
	}
	if v.IsSet("model.provider") {
		cfg.Model.Provider = strings.ToLower(v.GetString("model.provider"))
	}
	if v.IsSet("model.id") {
		cfg.Model.ID = v.GetString("model.id")
	}
	if v.IsSet("model.fixture_dir") {
		cfg.Model.FixtureDir = v.GetString("model.fixture_dir")
	}
	if v.IsSet("store.path") {
		cfg.Store.Path = v.GetString("store.path")
	}
	if v.IsSet("log.level") {
		cfg.Log.Level = strings.ToLower(v.GetString("log.level"))
	}
}

func fillZeroValues(cfg *Config) {
	def := Defaults()
	if cfg.Model.Provider == "" {
		cfg.Model.Provider = def.Model.Provider
	}
	if cfg.Model.ID == "" {
		cfg.Model.ID = def.Model.ID
	}
	if cfg.Model.Command == "" {
		cfg.Model.Command = def.Model.Command
	}
	if cfg.Model.Endpoint == "" && cfg.Model.Provider == ProviderOpenAI {
		cfg.Model.Endpoint = def.Model.Endpoint
	}
	if len(cfg.Review.Roles) == 0 {
		cfg.Review.Roles = def.Review.Roles
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = def.Store.Path
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
}

var validate = validator.New()

// Validate checks field constraints and reports every violation at once.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
