package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// PlaceholderAPIKey is the value shipped in sample configs. It never counts as configured.
const PlaceholderAPIKey = "YOUR_NEW_API_KEY_HERE"

// DefaultAPIURL is the chat-completions endpoint used for summaries.
const DefaultAPIURL = "https://api.openai.com/v1/chat/completions"

// Environment variables consulted for the summary credential, lowest precedence first.
const (
	EnvAPIKey       = "HILITE_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// Config holds application configuration.
type Config struct {
	// APIKey is the bearer credential for the summary endpoint.
	// Overridden by ~/.hilite/.env and then by the process environment.
	APIKey string `json:"api_key,omitempty"`

	// APIURL is the chat-completions endpoint.
	APIURL string `json:"api_url,omitempty"`

	// Model is the chat model used for summaries.
	Model string `json:"model,omitempty"`

	// MaxTokens caps the summary length.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature is a pointer so an explicit 0 survives the merge.
	Temperature *float64 `json:"temperature,omitempty"`

	// SettleDelayMs is the wait between a pointer/key release and the selection check.
	SettleDelayMs int `json:"settle_delay_ms,omitempty"`

	// ToastMs is how long the "Highlight saved!" toast stays on the page.
	ToastMs int `json:"toast_ms,omitempty"`

	// FetchTimeoutSeconds bounds page fetches for capture and view.
	FetchTimeoutSeconds int `json:"fetch_timeout_seconds,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.hilite/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	temp := 0.7
	return &Config{
		APIURL:              DefaultAPIURL,
		Model:               "gpt-3.5-turbo",
		MaxTokens:           150,
		Temperature:         &temp,
		SettleDelayMs:       10,
		ToastMs:             2000,
		FetchTimeoutSeconds: 15,
	}
}

// APIKeyConfigured reports whether a usable summary credential is present.
func (c *Config) APIKeyConfigured() bool {
	key := strings.TrimSpace(c.APIKey)
	return key != "" && key != PlaceholderAPIKey
}

// TemperatureValue returns the configured temperature, or the default when unset.
func (c *Config) TemperatureValue() float64 {
	if c.Temperature != nil {
		return *c.Temperature
	}
	return *DefaultConfig().Temperature
}

// Load loads configuration from baseDir/config.json, then applies the
// credential from baseDir/.env and the process environment.
// Returns default config if neither file exists.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.hilite.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}

	env, err := loadDotEnv(filepath.Join(baseDir, ".env"))
	if err != nil {
		return nil, err
	}
	for _, name := range []string{EnvAPIKey, EnvOpenAIAPIKey} {
		if v := strings.TrimSpace(env[name]); v != "" {
			cfg.APIKey = v
		}
	}
	for _, name := range []string{EnvAPIKey, EnvOpenAIAPIKey} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			cfg.APIKey = v
		}
	}

	return cfg, nil
}

// loadDotEnv reads a .env file without touching the process environment.
// A missing file yields an empty map.
func loadDotEnv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return godotenv.Read(path)
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		APIKey:              firstString(overlay.APIKey, base.APIKey),
		APIURL:              firstString(overlay.APIURL, base.APIURL),
		Model:               firstString(overlay.Model, base.Model),
		MaxTokens:           firstInt(overlay.MaxTokens, base.MaxTokens),
		SettleDelayMs:       firstInt(overlay.SettleDelayMs, base.SettleDelayMs),
		ToastMs:             firstInt(overlay.ToastMs, base.ToastMs),
		FetchTimeoutSeconds: firstInt(overlay.FetchTimeoutSeconds, base.FetchTimeoutSeconds),
		DBMaxOpenConns:      firstInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:      firstInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
	}

	result.Temperature = overlay.Temperature
	if result.Temperature == nil {
		result.Temperature = base.Temperature
	}

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func firstString(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func firstInt(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s != "" && !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
