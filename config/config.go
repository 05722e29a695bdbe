package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ModelsConfig configures the embedding model services.
type ModelsConfig struct {
	FastHost      string `yaml:"fast_host"`
	AccurateHost  string `yaml:"accurate_host"`
	FastModel     string `yaml:"fast_model"`
	AccurateModel string `yaml:"accurate_model"`
}

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	PoolSize       int `yaml:"pool_size"`
	MaxRetries     int `yaml:"max_retries"`
	RetryDelayMS   int `yaml:"retry_delay_ms"`
	MaxPagesPerDoc int `yaml:"max_pages_per_doc"`
}

// SearchConfig tunes the search orchestrator.
type SearchConfig struct {
	VectorWeight        float32 `yaml:"vector_weight"`
	LexicalWeight       float32 `yaml:"lexical_weight"`
	CandidateMultiplier int     `yaml:"candidate_multiplier"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	DataDir string       `yaml:"data_dir"`
	Models  ModelsConfig `yaml:"models"`
	Ingest  IngestConfig `yaml:"ingest"`
	Search  SearchConfig `yaml:"search"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./sketchdex.yaml first, then ~/.config/sketchdex/config.yaml.
// If neither exists, returns defaults without writing anything.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "sketchdex.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	return defaultConfig(), "", nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "sketchdex", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.DataDir = filepath.Join(home, ".sketchdex")
		} else {
			cfg.DataDir = ".sketchdex"
		}
	}
	if cfg.Models.FastHost == "" {
		cfg.Models.FastHost = "http://localhost:7997/v1"
	}
	if cfg.Models.AccurateHost == "" {
		cfg.Models.AccurateHost = cfg.Models.FastHost
	}
	if cfg.Models.FastModel == "" {
		cfg.Models.FastModel = "google/siglip-so400m-patch14-384"
	}
	if cfg.Models.AccurateModel == "" {
		cfg.Models.AccurateModel = "vidore/colqwen2-v1"
	}
	if cfg.Ingest.PoolSize == 0 {
		cfg.Ingest.PoolSize = 4
	}
	if cfg.Ingest.MaxRetries == 0 {
		cfg.Ingest.MaxRetries = 3
	}
	if cfg.Ingest.RetryDelayMS == 0 {
		cfg.Ingest.RetryDelayMS = 500
	}
	if cfg.Search.VectorWeight == 0 {
		cfg.Search.VectorWeight = 0.7
	}
	if cfg.Search.LexicalWeight == 0 {
		cfg.Search.LexicalWeight = 0.3
	}
	if cfg.Search.CandidateMultiplier == 0 {
		cfg.Search.CandidateMultiplier = 5
	}
}
