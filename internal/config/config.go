// Package config loads lchelper's settings from a YAML or JSON file, a
// .env file and the environment, in that order of increasing precedence.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // timezone names resolve on hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/lchelper/lchelper/internal/llm"
	"github.com/lchelper/lchelper/internal/logging"
	"github.com/lchelper/lchelper/internal/spacedrep"
)

// DefaultAddr is where serve listens when nothing else is configured.
const DefaultAddr = "127.0.0.1:4317"

// Config is the whole application configuration.
type Config struct {
	// DB is the SQLite file. Empty resolves through store.DefaultDBPath.
	DB   string         `json:"db"`
	Addr string         `json:"addr"`
	Log  logging.Config `json:"log"`

	Schedule ScheduleConfig `json:"schedule"`
	LLM      LLMConfig      `json:"llm"`
	Digest   DigestConfig   `json:"digest"`
}

type ScheduleConfig struct {
	Ladder      []int  `json:"ladder"`
	DailyLimit  int    `json:"daily_limit"`
	HorizonDays int    `json:"horizon_days"`
	Timezone    string `json:"timezone"` // IANA name; empty or "Local" for the host zone
}

type LLMConfig struct {
	Provider   string               `json:"provider"`
	Gemini     llm.GeminiConfig     `json:"gemini"`
	OpenAI     llm.OpenAIConfig     `json:"openai"`
	OpenRouter llm.OpenRouterConfig `json:"openrouter"`

	// Timeout is a Go duration string, e.g. "60s".
	Timeout           string      `json:"timeout"`
	RequestsPerMinute int         `json:"requests_per_minute"`
	Retry             RetryConfig `json:"retry"`
}

type RetryConfig struct {
	MaxAttempts int     `json:"max_attempts"`
	InitialWait string  `json:"initial_wait"`
	MaxWait     string  `json:"max_wait"`
	Multiplier  float64 `json:"multiplier"`
}

// DigestConfig controls the daily due-list log line.
type DigestConfig struct {
	Enabled bool   `json:"enabled"`
	Spec    string `json:"spec"` // five-field cron expression
}

// Default returns the built-in configuration.
func Default() *Config {
	sched := spacedrep.DefaultConfig()
	lc := llm.DefaultConfig()
	return &Config{
		Addr: DefaultAddr,
		Log:  logging.Config{Level: "info", Format: "console"},
		Schedule: ScheduleConfig{
			Ladder:      append([]int(nil), sched.Ladder...),
			DailyLimit:  sched.DailyLimit,
			HorizonDays: sched.Horizon,
		},
		LLM: LLMConfig{
			Provider:          lc.Provider,
			Gemini:            lc.Gemini,
			OpenAI:            lc.OpenAI,
			OpenRouter:        lc.OpenRouter,
			Timeout:           lc.Timeout.String(),
			RequestsPerMinute: lc.RequestsPerMinute,
			Retry: RetryConfig{
				MaxAttempts: lc.Retry.MaxAttempts,
				InitialWait: lc.Retry.InitialWait.String(),
				MaxWait:     lc.Retry.MaxWait.String(),
				Multiplier:  lc.Retry.Multiplier,
			},
		},
		Digest: DigestConfig{Enabled: true, Spec: "0 8 * * *"},
	}
}

// Load reads path over the defaults, then applies .env and the
// environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	jb, format, err := coerceToJSONBytes(path, data)
	if err != nil {
		return fmt.Errorf("parse %s config: %w", format, err)
	}

	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("decode %s config: %w", format, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("decode %s config: trailing data", format)
	}
	return nil
}

// ApplyEnv overrides fields from LCH_* variables and the provider API keys.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("LCH_DB"); v != "" {
		c.DB = v
	}
	if v := os.Getenv("LCH_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("LCH_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LCH_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("LCH_TIMEZONE"); v != "" {
		c.Schedule.Timezone = v
	}
	if v := os.Getenv("LCH_DAILY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LCH_DAILY_LIMIT: %w", err)
		}
		c.Schedule.DailyLimit = n
	}
	if v := os.Getenv("LCH_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.Gemini.APIKey = v
	}
	if v := os.Getenv("LCH_GEMINI_MODEL"); v != "" {
		c.LLM.Gemini.Model = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.OpenAI.APIKey = v
	}
	if v := os.Getenv("LCH_OPENAI_MODEL"); v != "" {
		c.LLM.OpenAI.Model = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.LLM.OpenAI.BaseURL = v
	}
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		c.LLM.OpenRouter.APIKey = v
	}
	if v := os.Getenv("LCH_OPENROUTER_MODEL"); v != "" {
		c.LLM.OpenRouter.Model = v
	}
	return nil
}

// Validate checks every section. LLM keys are checked only when a command
// builds a provider, so scheduling works without them.
func (c *Config) Validate() error {
	if _, err := c.Engine(); err != nil {
		return err
	}
	if _, err := c.LLMSettings(); err != nil {
		return err
	}
	if c.Digest.Enabled {
		if _, err := cron.ParseStandard(c.Digest.Spec); err != nil {
			return fmt.Errorf("digest.spec: %w", err)
		}
	}
	switch strings.ToLower(c.LLM.Provider) {
	case llm.ProviderGemini, llm.ProviderOpenAI, llm.ProviderOpenRouter, llm.ProviderMock, llm.ProviderNone, "":
	default:
		return fmt.Errorf("llm.provider: unknown provider %q", c.LLM.Provider)
	}
	return nil
}

// Engine converts the schedule section into engine settings.
func (c *Config) Engine() (spacedrep.Config, error) {
	loc, err := loadLocation(c.Schedule.Timezone)
	if err != nil {
		return spacedrep.Config{}, err
	}
	ec := spacedrep.Config{
		Ladder:     spacedrep.Ladder(append([]int(nil), c.Schedule.Ladder...)),
		DailyLimit: c.Schedule.DailyLimit,
		Horizon:    c.Schedule.HorizonDays,
		Location:   loc,
	}
	if err := ec.Validate(); err != nil {
		return spacedrep.Config{}, fmt.Errorf("schedule: %w", err)
	}
	return ec, nil
}

// Location is the zone that decides calendar days.
func (c *Config) Location() *time.Location {
	loc, err := loadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// LLMSettings converts the llm section into provider settings.
func (c *Config) LLMSettings() (llm.Config, error) {
	out := llm.Config{
		Provider:          strings.ToLower(c.LLM.Provider),
		Gemini:            c.LLM.Gemini,
		OpenAI:            c.LLM.OpenAI,
		OpenRouter:        c.LLM.OpenRouter,
		RequestsPerMinute: c.LLM.RequestsPerMinute,
		Retry: llm.RetryConfig{
			MaxAttempts: c.LLM.Retry.MaxAttempts,
			Multiplier:  c.LLM.Retry.Multiplier,
		},
	}

	def := llm.DefaultConfig()
	var err error
	if out.Timeout, err = parseDurationOrDefault("llm.timeout", c.LLM.Timeout, def.Timeout); err != nil {
		return llm.Config{}, err
	}
	if out.Retry.InitialWait, err = parseDurationOrDefault("llm.retry.initial_wait", c.LLM.Retry.InitialWait, def.Retry.InitialWait); err != nil {
		return llm.Config{}, err
	}
	if out.Retry.MaxWait, err = parseDurationOrDefault("llm.retry.max_wait", c.LLM.Retry.MaxWait, def.Retry.MaxWait); err != nil {
		return llm.Config{}, err
	}
	if out.Retry.MaxAttempts < 1 {
		out.Retry.MaxAttempts = def.Retry.MaxAttempts
	}
	return out, nil
}

func loadLocation(name string) (*time.Location, error) {
	switch strings.TrimSpace(name) {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("schedule.timezone: %w", err)
	}
	return loc, nil
}

func parseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	if d == 0 {
		return def, nil
	}
	return d, nil
}
