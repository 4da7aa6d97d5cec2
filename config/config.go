// Package config loads service configuration from a JSON or YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix scopes environment overrides, e.g. NOVA7_SERVER_ADDR.
const EnvPrefix = "NOVA7"

// CredentialEnv is the bare environment variable holding the service key.
const CredentialEnv = "API_KEY"

// Config holds everything the CLI and server need.
type Config struct {
	LLM        LLMConfig    `json:"llm" mapstructure:"llm"`
	ServerAddr string       `json:"server_addr,omitempty" mapstructure:"server_addr"`
	LogLevel   string       `json:"log_level,omitempty" mapstructure:"log_level"`
	Export     ExportConfig `json:"export" mapstructure:"export"`
}

// LLMConfig selects and authenticates the generative-text service.
type LLMConfig struct {
	Provider string `json:"provider,omitempty" mapstructure:"provider"`
	Model    string `json:"model,omitempty" mapstructure:"model"`
	APIKey   string `json:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL  string `json:"base_url,omitempty" mapstructure:"base_url"`
}

// ExportConfig controls where artifacts go and how they are produced.
// Capture is one of auto, chrome, command or print; auto prefers the
// converter command, then a Chrome binary, then the print-HTML page.
type ExportConfig struct {
	Dir     string        `json:"dir,omitempty" mapstructure:"dir"`
	Capture string        `json:"capture,omitempty" mapstructure:"capture"`
	Browser string        `json:"browser,omitempty" mapstructure:"browser"`
	Command string        `json:"command,omitempty" mapstructure:"command"`
	Settle  time.Duration `json:"settle,omitempty" mapstructure:"settle"`
}

// Capture modes.
const (
	CaptureAuto    = "auto"
	CaptureChrome  = "chrome"
	CaptureCommand = "command"
	CapturePrint   = "print"
)

// Defaults.
const (
	DefaultProvider   = "gemini"
	DefaultServerAddr = ":8080"
	DefaultLogLevel   = "info"
	DefaultExportDir  = "exports"
	DefaultCapture    = CaptureAuto
	DefaultSettle     = 800 * time.Millisecond
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", DefaultProvider)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("server_addr", DefaultServerAddr)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("export.dir", DefaultExportDir)
	v.SetDefault("export.capture", DefaultCapture)
	v.SetDefault("export.browser", "")
	v.SetDefault("export.command", "")
	v.SetDefault("export.settle", DefaultSettle)
}

// Load reads path when given, otherwise looks for config.{json,yaml} in
// ./config and the working directory. A missing default file is not an
// error; a missing explicit file is. The credential is never defaulted.
func Load(path string) (Config, error) {
	v := newViper(path)
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("llm.api_key", CredentialEnv, EnvPrefix+"_LLM_API_KEY"); err != nil {
		return Config{}, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.LLM.APIKey = strings.TrimSpace(cfg.LLM.APIKey)
	cfg.Export.Capture = strings.ToLower(strings.TrimSpace(cfg.Export.Capture))
	switch cfg.Export.Capture {
	case CaptureAuto, CaptureChrome, CaptureCommand, CapturePrint:
	default:
		return Config{}, fmt.Errorf("export.capture %q: want auto, chrome, command or print", cfg.Export.Capture)
	}
	return cfg, nil
}

// Used reports the file Load would read for path, or "" when none exists.
func Used(path string) string {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return ""
	}
	return v.ConfigFileUsed()
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("config")
		v.AddConfigPath(".")
	}
	return v
}
