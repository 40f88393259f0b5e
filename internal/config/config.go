package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AFSSourceConfig reads documents from a local directory or any afs URL (gs://, s3://).
type AFSSourceConfig struct {
	Location   string   `yaml:"location"`
	Extensions []string `yaml:"extensions,omitempty"`
	Recursive  bool     `yaml:"recursive"`
}

// DriveSourceConfig reads Google Docs from Google Drive.
type DriveSourceConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	Query           string `yaml:"query,omitempty"`
}

// SourceConfig selects where the corpus comes from.
type SourceConfig struct {
	Type  string             `yaml:"type"`
	AFS   *AFSSourceConfig   `yaml:"afs,omitempty"`
	Drive *DriveSourceConfig `yaml:"drive,omitempty"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

type GeminiConfig struct {
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

type EinoEmbedderConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Gemini *GeminiConfig         `yaml:"gemini,omitempty"`
	Eino   *EinoEmbedderConfig   `yaml:"eino,omitempty"`
}

// ChunkerConfig configures how documents are split into passages.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// VectorStoreConfig selects and configures the vector index implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

type RedisCacheConfig struct {
	Addr        string `yaml:"addr"`
	PasswordEnv string `yaml:"password_env"`
	DB          int    `yaml:"db"`
	KeyPrefix   string `yaml:"key_prefix"`
	TTLSecs     int    `yaml:"ttl_secs"`
}

// IndexCacheConfig selects where corpus embeddings are persisted between runs.
type IndexCacheConfig struct {
	Type  string            `yaml:"type"`
	Dir   string            `yaml:"dir,omitempty"`
	Redis *RedisCacheConfig `yaml:"redis,omitempty"`
}

// RetrievalConfig holds the query-phase parameters.
// MaxContextChars of -1 disables truncation and 0 yields an empty context;
// when omitted it defaults to 1000.
type RetrievalConfig struct {
	TopK             int `yaml:"top_k"`
	MaxContextChars  *int `yaml:"max_context_chars"`
	BuildTimeoutSecs int `yaml:"build_timeout_secs"`
}

type OpenAIGeneratorConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// GeneratorConfig selects the chat model. Type "none" runs retrieval only.
type GeneratorConfig struct {
	Type      string                 `yaml:"type"`
	MaxTokens int                    `yaml:"max_tokens"`
	OpenAI    *OpenAIGeneratorConfig `yaml:"openai,omitempty"`
	Gemini    *GeminiConfig          `yaml:"gemini,omitempty"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// PromptConfig overrides the built-in persona and retrieval template.
type PromptConfig struct {
	System   string `yaml:"system,omitempty"`
	Template string `yaml:"template,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	LogLevel    string            `yaml:"log_level"`
	Source      SourceConfig      `yaml:"source"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	IndexCache  IndexCacheConfig  `yaml:"index_cache"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Generator   GeneratorConfig   `yaml:"generator"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	Prompt      PromptConfig      `yaml:"prompt"`
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
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/faqbot/config.yaml.
// If neither exists, it writes defaults to ~/.config/faqbot/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
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
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
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

// Validate rejects unknown component types and settings no component can honour.
func (c *AppConfig) Validate() error {
	checks := []struct {
		block, value string
		allowed      []string
	}{
		{"source", c.Source.Type, []string{"afs", "drive"}},
		{"embedder", c.Embedder.Type, []string{"tfidf", "openai", "gemini", "eino"}},
		{"chunker", c.Chunker.Type, []string{"none", "sentence"}},
		{"vector_store", c.VectorStore.Type, []string{"memory", "qdrant"}},
		{"index_cache", c.IndexCache.Type, []string{"none", "file", "redis"}},
		{"generator", c.Generator.Type, []string{"none", "openai", "gemini"}},
		{"summarizer", c.Summarizer.Type, []string{"none", "frequency"}},
	}
	for _, ch := range checks {
		if !contains(ch.allowed, ch.value) {
			return fmt.Errorf("unknown %s type %q", ch.block, ch.value)
		}
	}
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("retrieval.top_k must be at least 1, got %d", c.Retrieval.TopK)
	}
	if m := c.Retrieval.MaxContextChars; m != nil && *m < -1 {
		return fmt.Errorf("retrieval.max_context_chars must be -1 or non-negative, got %d", *m)
	}
	if c.VectorStore.Type == "qdrant" && (c.VectorStore.Qdrant == nil || c.VectorStore.Qdrant.URL == "") {
		return errors.New("vector_store.qdrant.url is required")
	}
	if c.IndexCache.Type == "redis" && (c.IndexCache.Redis == nil || c.IndexCache.Redis.Addr == "") {
		return errors.New("index_cache.redis.addr is required")
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "faqbot", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		LogLevel:    "info",
		Source:      SourceConfig{Type: "afs", AFS: &AFSSourceConfig{Location: "docs"}},
		Embedder:    EmbedderConfig{Type: "tfidf"},
		Chunker:     ChunkerConfig{Type: "none"},
		VectorStore: VectorStoreConfig{Type: "memory"},
		IndexCache:  IndexCacheConfig{Type: "none"},
		Generator:   GeneratorConfig{Type: "none"},
		Summarizer:  SummarizerConfig{Type: "frequency", MaxSentences: 5},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Source.Type == "" {
		cfg.Source.Type = "afs"
	}
	if cfg.Source.Type == "afs" && cfg.Source.AFS == nil {
		cfg.Source.AFS = &AFSSourceConfig{Location: "docs"}
	}
	if cfg.Source.Type == "drive" && cfg.Source.Drive == nil {
		cfg.Source.Drive = &DriveSourceConfig{}
	}

	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.BatchSize == 0 {
			cfg.Embedder.OpenAI.BatchSize = 32
		}
	}
	if cfg.Embedder.Type == "gemini" {
		cfg.Embedder.Gemini = geminiDefaults(cfg.Embedder.Gemini, "text-embedding-004")
	}
	if cfg.Embedder.Type == "eino" {
		if cfg.Embedder.Eino == nil {
			cfg.Embedder.Eino = &EinoEmbedderConfig{}
		}
		if cfg.Embedder.Eino.APIKeyEnv == "" {
			cfg.Embedder.Eino.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.Eino.Model == "" {
			cfg.Embedder.Eino.Model = "text-embedding-3-small"
		}
	}

	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "none"
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if q := cfg.VectorStore.Qdrant; q != nil {
		if q.Collection == "" {
			q.Collection = "faqbot"
		}
		if q.TimeoutSecs == 0 {
			q.TimeoutSecs = 15
		}
	}

	if cfg.IndexCache.Type == "" {
		cfg.IndexCache.Type = "none"
	}
	if cfg.IndexCache.Type == "file" && cfg.IndexCache.Dir == "" {
		cfg.IndexCache.Dir = filepath.Join(".faqbot", "index")
	}

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.MaxContextChars == nil {
		maxChars := 1000
		cfg.Retrieval.MaxContextChars = &maxChars
	}
	if cfg.Retrieval.BuildTimeoutSecs == 0 {
		cfg.Retrieval.BuildTimeoutSecs = 120
	}

	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "none"
	}
	if cfg.Generator.MaxTokens == 0 {
		cfg.Generator.MaxTokens = 2048
	}
	if cfg.Generator.Type == "openai" {
		if cfg.Generator.OpenAI == nil {
			cfg.Generator.OpenAI = &OpenAIGeneratorConfig{}
		}
		if cfg.Generator.OpenAI.BaseURL == "" {
			cfg.Generator.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Generator.OpenAI.APIKeyEnv == "" {
			cfg.Generator.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Generator.OpenAI.Model == "" {
			cfg.Generator.OpenAI.Model = "gpt-4o-mini"
		}
		if cfg.Generator.OpenAI.TimeoutSecs == 0 {
			cfg.Generator.OpenAI.TimeoutSecs = 60
		}
	}
	if cfg.Generator.Type == "gemini" {
		cfg.Generator.Gemini = geminiDefaults(cfg.Generator.Gemini, "gemini-2.5-flash")
	}

	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "frequency"
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 5
	}
}

func geminiDefaults(g *GeminiConfig, model string) *GeminiConfig {
	if g == nil {
		g = &GeminiConfig{}
	}
	if g.APIKeyEnv == "" {
		g.APIKeyEnv = "GEMINI_API_KEY"
	}
	if g.Model == "" {
		g.Model = model
	}
	return g
}
