package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the research pipeline
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Email     EmailConfig     `mapstructure:"email"`
	Research  ResearchConfig  `mapstructure:"research"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug             bool          `mapstructure:"debug"`
	LogLevel          string        `mapstructure:"log_level"`
	MaxProcessingTime time.Duration `mapstructure:"max_processing_time"`
	DefaultTimeout    time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address          string `mapstructure:"address"`
	RunStreamEnabled bool   `mapstructure:"run_stream_enabled"`
}

// LLMConfig contains LLM provider configurations
type LLMConfig struct {
	Providers map[string]LLMProvider `mapstructure:"providers"`
	Routing   LLMRoutingConfig       `mapstructure:"routing"`
}

// LLMProvider represents a single LLM provider configuration
type LLMProvider struct {
	Type    string              `mapstructure:"type"` // openai, anthropic, etc.
	APIKey  string              `mapstructure:"api_key"`
	BaseURL string              `mapstructure:"base_url"`
	Models  map[string]LLMModel `mapstructure:"models"`
	Timeout time.Duration       `mapstructure:"timeout"`
}

// LLMModel represents a specific model configuration
type LLMModel struct {
	Name            string  `mapstructure:"name"`
	APIName         string  `mapstructure:"api_name"`
	MaxTokens       int     `mapstructure:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature"`
	CostPer1K       float64 `mapstructure:"cost_per_1k_input"`
	CostPer1KOutput float64 `mapstructure:"cost_per_1k_output"`
}

// LLMRoutingConfig defines which model to use for each pipeline stage
type LLMRoutingConfig struct {
	Planning  string `mapstructure:"planning"`  // search plan generation
	Research  string `mapstructure:"research"`  // per-item result condensation
	Synthesis string `mapstructure:"synthesis"` // report writing
	Fallback  string `mapstructure:"fallback"`
}

// ModelFor resolves the configured model key for a stage, falling back when unset.
func (r LLMRoutingConfig) ModelFor(stage string) string {
	var m string
	switch stage {
	case "planning":
		m = r.Planning
	case "research":
		m = r.Research
	case "synthesis":
		m = r.Synthesis
	}
	if m == "" {
		m = r.Fallback
	}
	return m
}

// SearchConfig contains web search settings
type SearchConfig struct {
	Provider          string        `mapstructure:"provider"` // tavily, brave, serper
	TavilyAPIKey      string        `mapstructure:"tavily_api_key"`
	BraveAPIKey       string        `mapstructure:"brave_api_key"`
	SerperAPIKey      string        `mapstructure:"serper_api_key"`
	Depth             string        `mapstructure:"depth"` // low, medium, high
	MaxResults        int           `mapstructure:"max_results"`
	IncludeRawContent bool          `mapstructure:"include_raw_content"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

func (s SearchConfig) Validate() error {
	switch s.Depth {
	case "", "low", "medium", "high":
	default:
		return fmt.Errorf("search.depth must be one of low, medium, high")
	}
	if s.MaxResults < 0 {
		return fmt.Errorf("search.max_results cannot be negative")
	}
	return nil
}

// EmailConfig contains report delivery settings
type EmailConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIKey  string        `mapstructure:"api_key"`
	From    string        `mapstructure:"from"`
	To      string        `mapstructure:"to"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func (e EmailConfig) Validate() error {
	if !e.Enabled {
		return nil
	}
	if strings.TrimSpace(e.From) == "" {
		return fmt.Errorf("email.from required when email is enabled")
	}
	if strings.TrimSpace(e.To) == "" {
		return fmt.Errorf("email.to required when email is enabled")
	}
	return nil
}

// ResearchConfig controls the shape of a research run
type ResearchConfig struct {
	NumSearches      int `mapstructure:"num_searches"`
	SummaryWordLimit int `mapstructure:"summary_word_limit"`
}

// Normalize applies defaults for unset research values.
func (r ResearchConfig) Normalize() ResearchConfig {
	if r.NumSearches <= 0 {
		r.NumSearches = 5
	}
	if r.SummaryWordLimit <= 0 {
		r.SummaryWordLimit = 300
	}
	return r
}

func (r ResearchConfig) Validate() error {
	if r.NumSearches > 25 {
		return fmt.Errorf("research.num_searches must be <= 25")
	}
	return nil
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	MetricsPort  int    `mapstructure:"metrics_port"`
	CostTracking bool   `mapstructure:"cost_tracking"`
	PeriodicLogs bool   `mapstructure:"periodic_logs"`
	LogFile      string `mapstructure:"log_file"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && t.MetricsPort < 0 {
		return fmt.Errorf("telemetry.metrics_port cannot be negative")
	}
	return nil
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("json")   // REQUIRED if the config file does not have the extension in the name
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", "30s")
	viper.SetDefault("general.max_processing_time", "10m")
	viper.SetDefault("server.address", ":10010")
	viper.SetDefault("server.run_stream_enabled", true)
	viper.SetDefault("search.provider", "tavily")
	viper.SetDefault("search.depth", "low")
	viper.SetDefault("search.max_results", 5)
	viper.SetDefault("search.include_raw_content", false)
	viper.SetDefault("search.timeout", "20s")
	viper.SetDefault("email.enabled", false)
	viper.SetDefault("email.timeout", "15s")
	viper.SetDefault("research.num_searches", 5)
	viper.SetDefault("research.summary_word_limit", 300)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("RESEARCHER")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv() // read in environment variables that match (RESEARCHER_*)

	err := viper.ReadInConfig() // Find and read the config file
	if err != nil {             // Handle errors reading the config file
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	// unmarshal config
	var config Config

	if err = viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	config.Research = config.Research.Normalize()

	if err := config.Search.Validate(); err != nil {
		panic(err)
	}
	if err := config.Email.Validate(); err != nil {
		panic(err)
	}
	if err := config.Research.Validate(); err != nil {
		panic(err)
	}
	if err := config.Telemetry.Validate(); err != nil {
		panic(err)
	}
	return &config
}
