package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration. It is loaded once at startup
// and handed to constructors explicitly; nothing reads it globally.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	OpenAI       OpenAIConfig       `mapstructure:"openai"`
	Providers    ProvidersConfig    `mapstructure:"providers"`
	Augmentation AugmentationConfig `mapstructure:"augmentation"`
	Storage      StorageConfig      `mapstructure:"storage"`
}

type ServerConfig struct {
	ListenAddress string `mapstructure:"listen_address"`
}

type OpenAIConfig struct {
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	ChatModel       string `mapstructure:"chat_model"`
	EmbeddingsModel string `mapstructure:"embeddings_model"`
}

type ProvidersConfig struct {
	TavilyAPIKey  string        `mapstructure:"tavily_api_key"`
	ExaAPIKey     string        `mapstructure:"exa_api_key"`
	ScrapeSources []string      `mapstructure:"scrape_sources"`
	Timeout       time.Duration `mapstructure:"timeout"`

	BreadthResults  int `mapstructure:"breadth_results"`
	SemanticResults int `mapstructure:"semantic_results"`
	DeepResults     int `mapstructure:"deep_results"`
}

type AugmentationConfig struct {
	// Threshold is the sufficiency distance threshold; at or below it the
	// local corpus is considered adequate.
	Threshold      float64       `mapstructure:"threshold"`
	ContextLimit   int           `mapstructure:"context_limit"`
	LocalTimeout   time.Duration `mapstructure:"local_timeout"`
	AugmentTimeout time.Duration `mapstructure:"augment_timeout"`
}

type StorageConfig struct {
	DatabaseURL       string        `mapstructure:"database_url"`
	IndexPath         string        `mapstructure:"index_path"`
	Collection        string        `mapstructure:"collection"`
	AssetDir          string        `mapstructure:"asset_dir"`
	StateFile         string        `mapstructure:"state_file"`
	MaxChunkSize      int           `mapstructure:"max_chunk_size"`
	CurriculumSources []string      `mapstructure:"curriculum_sources"`
	RefreshInterval   time.Duration `mapstructure:"refresh_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_address", ":8080")
	v.SetDefault("openai.chat_model", "gpt-4o-mini")
	v.SetDefault("openai.embeddings_model", "text-embedding-3-small")
	v.SetDefault("providers.timeout", 1500*time.Millisecond)
	v.SetDefault("providers.breadth_results", 3)
	v.SetDefault("providers.semantic_results", 3)
	v.SetDefault("providers.deep_results", 5)
	v.SetDefault("augmentation.threshold", 0.7)
	v.SetDefault("augmentation.context_limit", 5)
	v.SetDefault("augmentation.local_timeout", 100*time.Millisecond)
	v.SetDefault("augmentation.augment_timeout", 2*time.Second)
	v.SetDefault("storage.index_path", "data/index")
	v.SetDefault("storage.collection", "education-kb")
	v.SetDefault("storage.asset_dir", "data/assets")
	v.SetDefault("storage.state_file", "data/library.json")
	v.SetDefault("storage.max_chunk_size", 1000)
	v.SetDefault("storage.refresh_interval", time.Hour)
}

// Load reads configuration from an optional YAML file plus AULA_* env
// overrides (e.g. AULA_OPENAI_API_KEY, AULA_STORAGE_DATABASE_URL).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("aula")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
