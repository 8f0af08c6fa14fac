// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for fakegpt.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/huandu/go-clone"
	"github.com/joho/godotenv"

	"github.com/jeranaias/fakegpt/internal/model"
	"github.com/jeranaias/fakegpt/internal/storage"
	"github.com/jeranaias/fakegpt/internal/util"
)

// HomeEnv overrides the configuration directory.
const HomeEnv = "FAKEGPT_HOME"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete fakegpt configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	LLM     LLMConfig     `toml:"llm" json:"llm"`
	History HistoryConfig `toml:"history" json:"history"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Speech  SpeechConfig  `toml:"speech" json:"speech"`
	Export  ExportConfig  `toml:"export" json:"export"`
	Log     LogConfig     `toml:"log" json:"log"`
}

// LLMConfig selects and configures the reply fetcher.
type LLMConfig struct {
	// Provider is one of gemini, openai, ollama, anthropic
	Provider string `toml:"provider" json:"provider"`

	// Model is a registry short name or a provider model ID
	Model string `toml:"model" json:"model"`

	// APIKey for cloud providers. Usually supplied through the environment.
	APIKey string `toml:"api_key" json:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint
	BaseURL string `toml:"base_url" json:"base_url,omitempty"`

	TimeoutSecs  int    `toml:"timeout_secs" json:"timeout_secs"`
	SystemPrompt string `toml:"system_prompt" json:"system_prompt,omitempty"`
}

// HistoryConfig locates the chat history file.
type HistoryConfig struct {
	Path string `toml:"path" json:"path"`
}

// UIConfig controls the terminal interface.
type UIConfig struct {
	Theme            string `toml:"theme" json:"theme"` // dark, light, auto
	RevealIntervalMs int    `toml:"reveal_interval_ms" json:"reveal_interval_ms"`
	SidebarWidth     int    `toml:"sidebar_width" json:"sidebar_width"`
	ShowSidebar      bool   `toml:"show_sidebar" json:"show_sidebar"`
}

// SpeechConfig configures voice input and spoken replies.
type SpeechConfig struct {
	Enabled           bool   `toml:"enabled" json:"enabled"`
	SpeakCommand      string `toml:"speak_command" json:"speak_command"`
	ListenCommand     string `toml:"listen_command" json:"listen_command"`
	ListenTimeoutSecs int    `toml:"listen_timeout_secs" json:"listen_timeout_secs"`
}

// ExportConfig controls session export.
type ExportConfig struct {
	OutputDir     string `toml:"output_dir" json:"output_dir"`
	DefaultFormat string `toml:"default_format" json:"default_format"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level string `toml:"level" json:"level"`
	File  string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		LLM: LLMConfig{
			Provider:    model.ProviderGemini,
			TimeoutSecs: 120,
		},
		UI: UIConfig{
			Theme:            "auto",
			RevealIntervalMs: 4,
			SidebarWidth:     28,
			ShowSidebar:      true,
		},
		Speech: SpeechConfig{
			Enabled:           true,
			ListenTimeoutSecs: 5,
		},
		Export: ExportConfig{
			DefaultFormat: "pdf",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the fakegpt configuration directory, ~/.fakegpt unless
// FAKEGPT_HOME is set.
func ConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".fakegpt"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// LoadDotEnv loads ./.env into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Load loads configuration from ~/.fakegpt. TOML is tried first, then JSON,
// then built-in defaults. Environment overrides are applied last.
func Load() (*Config, error) {
	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			return LoadFromPath(tomlPath)
		}
	}
	if jsonPath, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			return LoadFromPath(jsonPath)
		}
	}

	cfg := Default()
	return finish(cfg)
}

// LoadFromPath loads configuration from a specific file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	if err := fillDefaults(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Unknown keys are rejected.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// fillDefaults fills missing values. Paths default into ConfigDir and the
// model defaults to the provider's registry default.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = defaults.LLM.Provider
	}
	cfg.LLM.Provider = strings.ToLower(cfg.LLM.Provider)
	if cfg.LLM.Model == "" {
		if info, ok := model.DefaultModel(cfg.LLM.Provider); ok {
			cfg.LLM.Model = info.ID
		}
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = defaults.LLM.TimeoutSecs
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.UI.RevealIntervalMs == 0 {
		cfg.UI.RevealIntervalMs = defaults.UI.RevealIntervalMs
	}
	if cfg.UI.SidebarWidth == 0 {
		cfg.UI.SidebarWidth = defaults.UI.SidebarWidth
	}
	if cfg.Speech.ListenTimeoutSecs == 0 {
		cfg.Speech.ListenTimeoutSecs = defaults.Speech.ListenTimeoutSecs
	}
	if cfg.Export.DefaultFormat == "" {
		cfg.Export.DefaultFormat = defaults.Export.DefaultFormat
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}

	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		cfg.History.Path = filepath.Join(dir, storage.DefaultFileName)
	}
	cfg.History.Path = expandHome(cfg.History.Path)
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(dir, "fakegpt.log")
	}
	cfg.Log.File = expandHome(cfg.Log.File)
	if cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = "."
	}
	cfg.Export.OutputDir = expandHome(cfg.Export.OutputDir)

	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to path with 0600 permissions, since it
// may hold an API key.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# fakegpt configuration file\n")
	buf.WriteString("# Prefer GOOGLE_API_KEY / FAKEGPT_API_KEY over storing keys here.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ExportFormats lists the accepted export.default_format values.
var ExportFormats = []string{"pdf", "md", "html", "json"}

// Validate checks field ranges and enumerations.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if !model.IsProvider(c.LLM.Provider) {
		errs = append(errs, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("must be one of %s", strings.Join(model.Providers, ", ")),
		})
	}
	if c.LLM.Model == "" {
		errs = append(errs, ValidationError{Field: "llm.model", Message: "must not be empty"})
	}
	if c.LLM.BaseURL != "" {
		if u, err := url.Parse(c.LLM.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{Field: "llm.base_url", Message: "must be an absolute URL"})
		}
	}
	if c.LLM.TimeoutSecs < 1 || c.LLM.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{Field: "llm.timeout_secs", Message: "must be between 1 and 600"})
	}

	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		errs = append(errs, ValidationError{Field: "ui.theme", Message: "must be dark, light or auto"})
	}
	if c.UI.RevealIntervalMs < 1 || c.UI.RevealIntervalMs > 1000 {
		errs = append(errs, ValidationError{Field: "ui.reveal_interval_ms", Message: "must be between 1 and 1000"})
	}
	if c.UI.SidebarWidth < 12 || c.UI.SidebarWidth > 80 {
		errs = append(errs, ValidationError{Field: "ui.sidebar_width", Message: "must be between 12 and 80"})
	}

	if c.Speech.ListenTimeoutSecs < 1 || c.Speech.ListenTimeoutSecs > 60 {
		errs = append(errs, ValidationError{Field: "speech.listen_timeout_secs", Message: "must be between 1 and 60"})
	}

	if !contains(ExportFormats, c.Export.DefaultFormat) {
		errs = append(errs, ValidationError{
			Field:   "export.default_format",
			Message: fmt.Sprintf("must be one of %s", strings.Join(ExportFormats, ", ")),
		})
	}

	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "error", "disabled":
	default:
		errs = append(errs, ValidationError{Field: "log.level", Message: "must be trace, debug, info, warn, error or disabled"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - FAKEGPT_PROVIDER, FAKEGPT_MODEL, FAKEGPT_BASE_URL
//   - FAKEGPT_API_KEY: key for any provider
//   - GOOGLE_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY: provider-specific keys,
//     used only when no key is configured
//   - OLLAMA_HOST: base URL for the ollama provider
//   - FAKEGPT_HISTORY: history file path
//   - FAKEGPT_LOG_LEVEL: log level
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("FAKEGPT_PROVIDER"); v != "" {
		c.LLM.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("FAKEGPT_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("FAKEGPT_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("FAKEGPT_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv(providerKeyEnv(c.LLM.Provider))
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" && c.LLM.Provider == model.ProviderOllama && c.LLM.BaseURL == "" {
		if !strings.Contains(v, "://") {
			v = "http://" + v
		}
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("FAKEGPT_HISTORY"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("FAKEGPT_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

// Overrides carries command-line flag values. Empty fields are ignored.
type Overrides struct {
	Provider string
	Model    string
	History  string
	LogLevel string
}

// ApplyOverrides applies flag values on top of a loaded configuration and
// re-validates it. Switching provider drops the model, key and endpoint of
// the previous provider.
func (c *Config) ApplyOverrides(o Overrides) error {
	if o.Provider != "" && !strings.EqualFold(o.Provider, c.LLM.Provider) {
		c.LLM.Provider = strings.ToLower(o.Provider)
		c.LLM.Model = ""
		c.LLM.BaseURL = os.Getenv("FAKEGPT_BASE_URL")
		c.LLM.APIKey = os.Getenv("FAKEGPT_API_KEY")
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = os.Getenv(providerKeyEnv(c.LLM.Provider))
		}
	}
	if o.Model != "" {
		c.LLM.Model = o.Model
	}
	if o.History != "" {
		c.History.Path = o.History
	}
	if o.LogLevel != "" {
		c.Log.Level = strings.ToLower(o.LogLevel)
	}
	if err := fillDefaults(c); err != nil {
		return err
	}
	return c.Validate()
}

// providerKeyEnv names the conventional API key variable of a provider.
func providerKeyEnv(provider string) string {
	switch strings.ToLower(provider) {
	case model.ProviderGemini, "":
		return "GOOGLE_API_KEY"
	case model.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case model.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "FAKEGPT_API_KEY"
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// RevealInterval returns the typewriter pacing.
func (c *Config) RevealInterval() time.Duration {
	return time.Duration(c.UI.RevealIntervalMs) * time.Millisecond
}

// ListenTimeout returns the voice capture limit.
func (c *Config) ListenTimeout() time.Duration {
	return time.Duration(c.Speech.ListenTimeoutSecs) * time.Second
}

// RequestTimeout returns the reply fetch limit.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSecs) * time.Second
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "ui.theme").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// lookup walks the struct by toml tag names.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("field '%s' is a section", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("toml") == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strVal)
			if err != nil {
				return fmt.Errorf("invalid boolean value: %v", err)
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// Keys returns every settable key in dot notation.
func Keys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		if section.Type.Kind() != reflect.Struct {
			keys = append(keys, section.Tag.Get("toml"))
			continue
		}
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, section.Tag.Get("toml")+"."+section.Type.Field(j).Tag.Get("toml"))
		}
	}
	return keys
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	return clone.Clone(c).(*Config)
}

// String renders the configuration as TOML with the API key redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.LLM.APIKey != "" {
		safe.LLM.APIKey = "[REDACTED]"
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(safe); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}
