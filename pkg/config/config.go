package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// FlexibleStringSlice is a []string that also accepts JSON numbers, so
// allow_from can contain both "123" and 123.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

type Config struct {
	Workspace string          `json:"workspace" env:"KIRABRIDGE_WORKSPACE"`
	Channels  ChannelsConfig  `json:"channels"`
	Sources   SourcesConfig   `json:"sources"`
	Personas  PersonasConfig  `json:"personas"`
	Provider  ProviderConfig  `json:"provider"`
	Assembler AssemblerConfig `json:"assembler"`
	Logging   LoggingConfig   `json:"logging"`
}

type ChannelsConfig struct {
	Slack   SlackConfig   `json:"slack"`
	Gateway GatewayConfig `json:"gateway"`
	CLI     CLIConfig     `json:"cli"`
}

type SlackConfig struct {
	Enabled   bool                `json:"enabled" env:"KIRABRIDGE_CHANNELS_SLACK_ENABLED"`
	BotToken  string              `json:"bot_token" env:"KIRABRIDGE_CHANNELS_SLACK_BOT_TOKEN"`
	AppToken  string              `json:"app_token" env:"KIRABRIDGE_CHANNELS_SLACK_APP_TOKEN"`
	AllowFrom FlexibleStringSlice `json:"allow_from" env:"KIRABRIDGE_CHANNELS_SLACK_ALLOW_FROM"`
}

// GatewayConfig configures the websocket endpoint the Electron desktop app
// and web UI connect through.
type GatewayConfig struct {
	Enabled   bool                `json:"enabled" env:"KIRABRIDGE_CHANNELS_GATEWAY_ENABLED"`
	Host      string              `json:"host" env:"KIRABRIDGE_CHANNELS_GATEWAY_HOST"`
	Port      int                 `json:"port" env:"KIRABRIDGE_CHANNELS_GATEWAY_PORT"`
	Path      string              `json:"path" env:"KIRABRIDGE_CHANNELS_GATEWAY_PATH"`
	AllowFrom FlexibleStringSlice `json:"allow_from" env:"KIRABRIDGE_CHANNELS_GATEWAY_ALLOW_FROM"`
}

type CLIConfig struct {
	Enabled bool   `json:"enabled" env:"KIRABRIDGE_CHANNELS_CLI_ENABLED"`
	UserID  string `json:"user_id" env:"KIRABRIDGE_CHANNELS_CLI_USER_ID"`
}

type SourcesConfig struct {
	Taskflow TaskflowConfig `json:"taskflow"`
}

type TaskflowConfig struct {
	APIKey  string `json:"api_key" env:"KIRABRIDGE_SOURCES_TASKFLOW_API_KEY"`
	APIBase string `json:"api_base" env:"KIRABRIDGE_SOURCES_TASKFLOW_API_BASE"`
}

type PersonasConfig struct {
	Dir     string `json:"dir" env:"KIRABRIDGE_PERSONAS_DIR"`
	Default string `json:"default" env:"KIRABRIDGE_PERSONAS_DEFAULT"`
}

type ProviderConfig struct {
	Kind      string `json:"kind" env:"KIRABRIDGE_PROVIDER_KIND"` // openai|anthropic
	APIKey    string `json:"api_key" env:"KIRABRIDGE_PROVIDER_API_KEY"`
	APIBase   string `json:"api_base" env:"KIRABRIDGE_PROVIDER_API_BASE"`
	Model     string `json:"model" env:"KIRABRIDGE_PROVIDER_MODEL"`
	MaxTokens int    `json:"max_tokens" env:"KIRABRIDGE_PROVIDER_MAX_TOKENS"`
}

type AssemblerConfig struct {
	SourceTimeoutSeconds int `json:"source_timeout_seconds" env:"KIRABRIDGE_ASSEMBLER_SOURCE_TIMEOUT_SECONDS"`
}

type LoggingConfig struct {
	FileEnabled bool   `json:"file_enabled" env:"KIRABRIDGE_LOGGING_FILE_ENABLED"`
	FilePath    string `json:"file_path" env:"KIRABRIDGE_LOGGING_FILE_PATH"`
	MaxSizeMB   int    `json:"max_size_mb" env:"KIRABRIDGE_LOGGING_MAX_SIZE_MB"`
	MaxAgeDays  int    `json:"max_age_days" env:"KIRABRIDGE_LOGGING_MAX_AGE_DAYS"`
	Debug       bool   `json:"debug" env:"KIRABRIDGE_LOGGING_DEBUG"`
}

func DefaultConfig() *Config {
	return &Config{
		Workspace: "~/.kirabridge/workspace",
		Channels: ChannelsConfig{
			Slack: SlackConfig{
				Enabled:   false,
				BotToken:  "",
				AppToken:  "",
				AllowFrom: FlexibleStringSlice{},
			},
			Gateway: GatewayConfig{
				Enabled:   true,
				Host:      "127.0.0.1",
				Port:      18890,
				Path:      "/ws",
				AllowFrom: FlexibleStringSlice{},
			},
			CLI: CLIConfig{
				Enabled: false,
				UserID:  "local",
			},
		},
		Sources: SourcesConfig{
			Taskflow: TaskflowConfig{
				APIKey:  "",
				APIBase: "",
			},
		},
		Personas: PersonasConfig{
			Dir:     "~/.kirabridge/personas",
			Default: "",
		},
		Provider: ProviderConfig{
			Kind:      "openai",
			APIKey:    "",
			APIBase:   "",
			Model:     "gpt-4o-mini",
			MaxTokens: 4096,
		},
		Assembler: AssemblerConfig{
			SourceTimeoutSeconds: 10,
		},
		Logging: LoggingConfig{
			FileEnabled: true,
			FilePath:    "~/.kirabridge/workspace/kirabridge.log",
			MaxSizeMB:   50,
			MaxAgeDays:  7,
			Debug:       false,
		},
	}
}

// LoadConfig reads path over DefaultConfig, then applies KIRABRIDGE_*
// environment overlays. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Provider.APIKey = resolveEnvRef(cfg.Provider.APIKey)
	cfg.Sources.Taskflow.APIKey = resolveEnvRef(cfg.Sources.Taskflow.APIKey)

	return cfg, nil
}

// resolveEnvRef expands "$NAME" and "${NAME}" values against the
// environment, so config files can reference secrets without embedding
// them.
func resolveEnvRef(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return v
	}
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		key := strings.TrimSpace(s[2 : len(s)-1])
		if key == "" {
			return v
		}
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return v
	}
	if strings.HasPrefix(s, "$") && len(s) > 1 {
		if val, ok := os.LookupEnv(strings.TrimSpace(s[1:])); ok {
			return val
		}
	}
	return v
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// WorkspacePath returns the workspace directory with ~ expanded.
func (c *Config) WorkspacePath() string {
	return expandHome(c.Workspace)
}

// PersonasDir returns the personas directory with ~ expanded.
func (c *Config) PersonasDir() string {
	return expandHome(c.Personas.Dir)
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
