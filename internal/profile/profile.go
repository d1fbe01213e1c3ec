package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // zone data for hosts without a tz database

	"github.com/joho/godotenv"
	"github.com/nyaruka/phonenumbers"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. CALLPARROT_LLM_API_KEY.
const EnvPrefix = "CALLPARROT"

const (
	ModeDev  = "dev"
	ModeProd = "prod"
	ModeDemo = "demo"

	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Profile is the configuration of a callparrot process.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Data is the data directory used for the sqlite database file
	Data string
	// Driver is the session store driver (memory, sqlite or postgres)
	Driver string
	// DSN points to where sessions are stored. Derived from Data for sqlite when empty.
	DSN string
	// Version is the current version of the binary
	Version string

	// Timezone is the IANA zone of the reference clock (default: Asia/Kathmandu)
	Timezone string
	// PhoneRegion is the ISO 3166 region assumed for phone numbers without a country code
	PhoneRegion string

	LogLevel  string // debug|info|warn|error
	LogFormat string // json|text

	// AnswerTimeout bounds one document answer round-trip
	AnswerTimeout time.Duration
	// HistoryWindow is the number of turns kept per session and sent to the answerer
	HistoryWindow int
	// SessionRetention is how long an idle session survives before purge
	SessionRetention time.Duration

	// LLM configuration for the document answerer
	LLMProvider     string  // CALLPARROT_LLM_PROVIDER (default: openai)
	LLMModel        string  // CALLPARROT_LLM_MODEL (default: gpt-4o-mini)
	LLMAPIKey       string  // CALLPARROT_LLM_API_KEY
	LLMBaseURL      string  // CALLPARROT_LLM_BASE_URL (default: https://api.openai.com/v1)
	LLMMaxTokens    int     // CALLPARROT_LLM_MAX_TOKENS (default: 1024)
	LLMTemperature  float32 // CALLPARROT_LLM_TEMPERATURE (default: 0.3)
	LLMRateLimit    float64 // requests per second, 0 disables limiting
	LLMSystemPrompt string  // CALLPARROT_LLM_SYSTEM_PROMPT, optional override

	// MetricsAddr serves /metrics when non-empty, e.g. ":9090"
	MetricsAddr string
}

// Default returns a profile with every default applied.
func Default() *Profile {
	return &Profile{
		Mode:             ModeDev,
		Data:             ".",
		Driver:           DriverMemory,
		Timezone:         "Asia/Kathmandu",
		PhoneRegion:      "US",
		LogLevel:         "info",
		LogFormat:        "text",
		AnswerTimeout:    30 * time.Second,
		HistoryWindow:    20,
		SessionRetention: 30 * 24 * time.Hour,
		LLMProvider:      "openai",
		LLMModel:         "gpt-4o-mini",
		LLMBaseURL:       "https://api.openai.com/v1",
		LLMMaxTokens:     1024,
		LLMTemperature:   0.3,
		LLMRateLimit:     2,
	}
}

// IsDev reports whether the profile runs outside production.
func (p *Profile) IsDev() bool {
	return p.Mode != ModeProd
}

// IsLLMEnabled returns true if an API key or a non-default base URL is configured.
// Local OpenAI-compatible servers usually accept requests without a key.
func (p *Profile) IsLLMEnabled() bool {
	return p.LLMAPIKey != "" || (p.LLMBaseURL != "" && p.LLMBaseURL != Default().LLMBaseURL)
}

// NewViper returns a viper instance seeded with defaults, bound to CALLPARROT_*
// environment variables (after loading .env files) and, when found, a config file.
// An explicit configFile must exist; otherwise "callparrot.{yaml,toml,json}" is looked
// up in the working directory and $HOME/.callparrot.
func NewViper(configFile string, envFiles ...string) (*viper.Viper, error) {
	loadDotEnv(envFiles...)

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("callparrot")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".callparrot"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}
	return v, nil
}

// loadDotEnv loads .env files into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to load env file", "file", f, "error", err)
		}
	}
}

func setDefaults(v *viper.Viper, d *Profile) {
	v.SetDefault("mode", d.Mode)
	v.SetDefault("data", d.Data)
	v.SetDefault("driver", d.Driver)
	v.SetDefault("dsn", d.DSN)
	v.SetDefault("timezone", d.Timezone)
	v.SetDefault("phone_region", d.PhoneRegion)
	v.SetDefault("log.level", d.LogLevel)
	v.SetDefault("log.format", d.LogFormat)
	v.SetDefault("answer_timeout", d.AnswerTimeout)
	v.SetDefault("history_window", d.HistoryWindow)
	v.SetDefault("session_retention", d.SessionRetention)
	v.SetDefault("llm.provider", d.LLMProvider)
	v.SetDefault("llm.model", d.LLMModel)
	v.SetDefault("llm.api_key", d.LLMAPIKey)
	v.SetDefault("llm.base_url", d.LLMBaseURL)
	v.SetDefault("llm.max_tokens", d.LLMMaxTokens)
	v.SetDefault("llm.temperature", d.LLMTemperature)
	v.SetDefault("llm.rate_limit", d.LLMRateLimit)
	v.SetDefault("llm.system_prompt", d.LLMSystemPrompt)
	v.SetDefault("metrics_addr", d.MetricsAddr)
}

// FromViper builds a profile from resolved viper keys.
func FromViper(v *viper.Viper) *Profile {
	return &Profile{
		Mode:             v.GetString("mode"),
		Data:             v.GetString("data"),
		Driver:           v.GetString("driver"),
		DSN:              v.GetString("dsn"),
		Timezone:         v.GetString("timezone"),
		PhoneRegion:      v.GetString("phone_region"),
		LogLevel:         v.GetString("log.level"),
		LogFormat:        v.GetString("log.format"),
		AnswerTimeout:    v.GetDuration("answer_timeout"),
		HistoryWindow:    v.GetInt("history_window"),
		SessionRetention: v.GetDuration("session_retention"),
		LLMProvider:      v.GetString("llm.provider"),
		LLMModel:         v.GetString("llm.model"),
		LLMAPIKey:        v.GetString("llm.api_key"),
		LLMBaseURL:       v.GetString("llm.base_url"),
		LLMMaxTokens:     v.GetInt("llm.max_tokens"),
		LLMTemperature:   float32(v.GetFloat64("llm.temperature")),
		LLMRateLimit:     v.GetFloat64("llm.rate_limit"),
		LLMSystemPrompt:  v.GetString("llm.system_prompt"),
		MetricsAddr:      v.GetString("metrics_addr"),
	}
}

func checkDataDir(dataDir string) (string, error) {
	absDir, err := filepath.Abs(dataDir)
	if err != nil {
		return "", err
	}

	// Trim trailing \ or / in case user supplies
	absDir = strings.TrimRight(absDir, "\\/")
	if _, err := os.Stat(absDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", absDir)
	}
	return absDir, nil
}

// Validate normalizes the profile and reports the first invalid setting.
func (p *Profile) Validate() error {
	if p.Mode != ModeDemo && p.Mode != ModeDev && p.Mode != ModeProd {
		p.Mode = ModeDemo
	}

	switch p.Driver {
	case DriverMemory:
	case DriverSQLite:
		if p.DSN == "" {
			dataDir, err := checkDataDir(p.Data)
			if err != nil {
				slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
				return err
			}
			p.Data = dataDir
			p.DSN = filepath.Join(dataDir, fmt.Sprintf("callparrot_%s.db", p.Mode))
		}
	case DriverPostgres:
		if p.DSN == "" {
			return errors.New("dsn is required for the postgres driver")
		}
	default:
		return errors.Errorf("unknown driver %q: only 'memory', 'sqlite' and 'postgres' are supported", p.Driver)
	}

	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return errors.Wrapf(err, "invalid timezone %q", p.Timezone)
	}

	p.PhoneRegion = strings.ToUpper(p.PhoneRegion)
	if !phonenumbers.GetSupportedRegions()[p.PhoneRegion] {
		return errors.Errorf("unsupported phone region %q", p.PhoneRegion)
	}

	if p.AnswerTimeout <= 0 {
		return errors.Errorf("answer timeout must be positive, got %s", p.AnswerTimeout)
	}
	if p.HistoryWindow <= 0 {
		return errors.Errorf("history window must be positive, got %d", p.HistoryWindow)
	}
	if p.SessionRetention <= 0 {
		return errors.Errorf("session retention must be positive, got %s", p.SessionRetention)
	}
	if p.LLMRateLimit < 0 {
		return errors.Errorf("llm rate limit must not be negative, got %v", p.LLMRateLimit)
	}
	return nil
}
