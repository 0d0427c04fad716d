package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Generation strategies understood by generator.New.
const (
	StrategyLocal  = "local"
	StrategyOllama = "ollama"
	StrategyOpenAI = "openai"
	StrategyRemote = "remote"
)

type Config struct {
	Server     ServerConfig
	Generation GenerationConfig
	LLM        LLMConfig
	Redis      RedisConfig
	Cache      CacheConfig
	Client     ClientConfig
	Logger     LoggerConfig
}

type ServerConfig struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxUploadBytes int
	AllowOrigins   string
	AcceptedTypes  []string
}

type GenerationConfig struct {
	Strategy          string
	MaxCards          int
	MinSentenceLength int
	MaxInputChars     int
}

type LLMConfig struct {
	ServerURL    string
	Model        string
	OpenAIAPIKey string
	OpenAIModel  string
	Temperature  float64
	Timeout      time.Duration
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// ClientConfig configures the front end's view of the backend.
type ClientConfig struct {
	BaseURL       string
	Timeout       time.Duration
	AcceptedTypes []string
}

type LoggerConfig struct {
	Level string
	Env   string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 20)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("server.idle_timeout", 20)
	v.SetDefault("server.max_upload_bytes", 10*1024*1024)
	v.SetDefault("server.allow_origins", "*")
	v.SetDefault("server.accepted_types", []string{".pdf", ".txt"})

	v.SetDefault("generation.strategy", StrategyLocal)
	v.SetDefault("generation.max_cards", 5)
	v.SetDefault("generation.min_sentence_length", 15)
	v.SetDefault("generation.max_input_chars", 100000)

	v.SetDefault("llm.server", "http://localhost:11434")
	v.SetDefault("llm.model", "llama3.2:3b")
	v.SetDefault("llm.openai_model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.timeout", 60)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", 3600)

	v.SetDefault("client.base_url", "http://localhost:5000")
	v.SetDefault("client.timeout", 30)
	v.SetDefault("client.accepted_types", []string{".pdf", ".txt"})

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")
}

// LoadConfig reads config.yaml (when present) and the CARDSMITH_* environment.
func LoadConfig() (*Config, error) {
	return LoadConfigFile("", nil)
}

// LoadConfigFile reads path instead of searching for config.yaml when path
// is set. overrides take precedence over the file and the environment.
func LoadConfigFile(path string, overrides map[string]interface{}) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if os.Getenv("ENV") == "test" {
			v.AddConfigPath("../../config")
			v.AddConfigPath("../../")
		} else {
			v.AddConfigPath(".")
			v.AddConfigPath("./config")
		}
	}

	v.SetEnvPrefix("CARDSMITH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" && path == "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", absPath)
	}

	for key, value := range overrides {
		v.Set(key, value)
	}
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
// Durations are configured in seconds.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetInt("server.port"),
			ReadTimeout:    v.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout:   v.GetDuration("server.write_timeout") * time.Second,
			IdleTimeout:    v.GetDuration("server.idle_timeout") * time.Second,
			MaxUploadBytes: v.GetInt("server.max_upload_bytes"),
			AllowOrigins:   v.GetString("server.allow_origins"),
			AcceptedTypes:  normalizeExtensions(v.GetStringSlice("server.accepted_types")),
		},
		Generation: GenerationConfig{
			Strategy:          strings.ToLower(v.GetString("generation.strategy")),
			MaxCards:          v.GetInt("generation.max_cards"),
			MinSentenceLength: v.GetInt("generation.min_sentence_length"),
			MaxInputChars:     v.GetInt("generation.max_input_chars"),
		},
		LLM: LLMConfig{
			ServerURL:    v.GetString("llm.server"),
			Model:        v.GetString("llm.model"),
			OpenAIAPIKey: v.GetString("llm.openai_api_key"),
			OpenAIModel:  v.GetString("llm.openai_model"),
			Temperature:  v.GetFloat64("llm.temperature"),
			Timeout:      v.GetDuration("llm.timeout") * time.Second,
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Cache: CacheConfig{
			Enabled: v.GetBool("cache.enabled"),
			TTL:     v.GetDuration("cache.ttl") * time.Second,
		},
		Client: ClientConfig{
			BaseURL:       strings.TrimRight(v.GetString("client.base_url"), "/"),
			Timeout:       v.GetDuration("client.timeout") * time.Second,
			AcceptedTypes: normalizeExtensions(v.GetStringSlice("client.accepted_types")),
		},
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   v.GetString("logger.env"),
		},
	}

	// The OpenAI SDK convention is honoured as a fallback.
	if cfg.LLM.OpenAIAPIKey == "" {
		cfg.LLM.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail late at request time.
func (c *Config) Validate() error {
	switch c.Generation.Strategy {
	case StrategyLocal, StrategyOllama, StrategyOpenAI, StrategyRemote:
	default:
		return fmt.Errorf("unsupported generation strategy %q", c.Generation.Strategy)
	}
	if c.Generation.MaxCards <= 0 {
		return fmt.Errorf("generation.max_cards must be positive, got %d", c.Generation.MaxCards)
	}
	if c.Generation.MinSentenceLength < 0 {
		return fmt.Errorf("generation.min_sentence_length must not be negative")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	if c.Cache.Enabled && c.Redis.Address == "" {
		return fmt.Errorf("cache.enabled requires redis.address")
	}
	return nil
}

// ValidateServer checks the settings the HTTP backend cannot run with.
// The remote strategy calls this backend, so serving with it would loop.
func (c *Config) ValidateServer() error {
	if c.Generation.Strategy == StrategyRemote {
		return fmt.Errorf("generation.strategy %q is only valid for the CLI client", StrategyRemote)
	}
	return nil
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := FromViper(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}
