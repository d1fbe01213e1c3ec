package profile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noEnvFile keeps tests from picking up a developer's .env.
func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestProfileDefaults(t *testing.T) {
	v, err := NewViper("", noEnvFile(t))
	require.NoError(t, err)
	p := FromViper(v)

	tests := []struct {
		name     string
		expected any
		actual   any
	}{
		{"Mode", ModeDev, p.Mode},
		{"Driver", DriverMemory, p.Driver},
		{"Timezone", "Asia/Kathmandu", p.Timezone},
		{"PhoneRegion", "US", p.PhoneRegion},
		{"AnswerTimeout", 30 * time.Second, p.AnswerTimeout},
		{"HistoryWindow", 20, p.HistoryWindow},
		{"LLMModel", "gpt-4o-mini", p.LLMModel},
		{"LLMBaseURL", "https://api.openai.com/v1", p.LLMBaseURL},
		{"LLMTemperature", float32(0.3), p.LLMTemperature},
		{"LLMRateLimit", 2.0, p.LLMRateLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.actual)
		})
	}

	require.NoError(t, p.Validate())
	assert.False(t, p.IsLLMEnabled())
	assert.True(t, p.IsDev())
}

func TestProfileFromEnv(t *testing.T) {
	t.Setenv("CALLPARROT_DRIVER", "postgres")
	t.Setenv("CALLPARROT_DSN", "postgres://localhost/callparrot")
	t.Setenv("CALLPARROT_ANSWER_TIMEOUT", "45s")
	t.Setenv("CALLPARROT_LLM_API_KEY", "sk-test")
	t.Setenv("CALLPARROT_PHONE_REGION", "np")

	v, err := NewViper("", noEnvFile(t))
	require.NoError(t, err)
	p := FromViper(v)

	assert.Equal(t, DriverPostgres, p.Driver)
	assert.Equal(t, "postgres://localhost/callparrot", p.DSN)
	assert.Equal(t, 45*time.Second, p.AnswerTimeout)
	assert.True(t, p.IsLLMEnabled())

	require.NoError(t, p.Validate())
	assert.Equal(t, "NP", p.PhoneRegion)
}

func TestProfileFromDotEnv(t *testing.T) {
	const key = "CALLPARROT_LLM_MODEL"
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(key+"=local-llama\n"), 0o600))

	v, err := NewViper("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "local-llama", FromViper(v).LLMModel)
}

func TestProfileFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "callparrot.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
driver: sqlite
data: `+dir+`
timezone: UTC
history_window: 8
llm:
  base_url: http://localhost:11434/v1
  model: qwen2.5
`), 0o600))

	v, err := NewViper(cfg, noEnvFile(t))
	require.NoError(t, err)
	p := FromViper(v)

	assert.Equal(t, DriverSQLite, p.Driver)
	assert.Equal(t, 8, p.HistoryWindow)
	assert.Equal(t, "qwen2.5", p.LLMModel)
	assert.True(t, p.IsLLMEnabled(), "custom base url enables the answerer without a key")

	require.NoError(t, p.Validate())
	assert.Equal(t, filepath.Join(dir, "callparrot_dev.db"), p.DSN)
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Profile)
		wantErr string
	}{
		{"unknown driver", func(p *Profile) { p.Driver = "mysql" }, "unknown driver"},
		{"postgres without dsn", func(p *Profile) { p.Driver = DriverPostgres }, "dsn is required"},
		{"sqlite with missing data dir", func(p *Profile) {
			p.Driver = DriverSQLite
			p.Data = filepath.Join(os.TempDir(), "callparrot-does-not-exist", "x")
		}, "unable to access data folder"},
		{"bad timezone", func(p *Profile) { p.Timezone = "Mars/Olympus" }, "invalid timezone"},
		{"bad region", func(p *Profile) { p.PhoneRegion = "XX" }, "unsupported phone region"},
		{"zero timeout", func(p *Profile) { p.AnswerTimeout = 0 }, "answer timeout"},
		{"zero history", func(p *Profile) { p.HistoryWindow = 0 }, "history window"},
		{"zero retention", func(p *Profile) { p.SessionRetention = 0 }, "session retention"},
		{"negative rate", func(p *Profile) { p.LLMRateLimit = -1 }, "rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.mutate(p)
			err := p.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProfileValidate_UnknownModeFallsBackToDemo(t *testing.T) {
	p := Default()
	p.Mode = "staging"
	require.NoError(t, p.Validate())
	assert.Equal(t, ModeDemo, p.Mode)
}
