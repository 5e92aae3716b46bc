// Package config loads service configuration from an optional YAML file
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type ServerConfig struct {
	Port           string `koanf:"port"`
	APIKey         string `koanf:"api_key"`
	MaxUploadBytes int64  `koanf:"max_upload_bytes"`
}

type LLMConfig struct {
	Provider    string        `koanf:"provider"`
	Model       string        `koanf:"model"`
	APIKey      string        `koanf:"api_key"`
	BaseURL     string        `koanf:"base_url"`
	Temperature float64       `koanf:"temperature"`
	MaxTokens   int           `koanf:"max_tokens"`
	Timeout     time.Duration `koanf:"timeout"`
}

type RetryConfig struct {
	// MaxAttempts bounds model calls per page batch, corrective retries
	// included.
	MaxAttempts int `koanf:"max_attempts"`
	// TransportRetries and TransportDelay govern HTTP-level retries
	// inside the client.
	TransportRetries uint          `koanf:"transport_retries"`
	TransportDelay   time.Duration `koanf:"transport_delay"`
}

type PreprocessConfig struct {
	PageBatchSize        int  `koanf:"page_batch_size"`
	UseLayoutAnalysis    bool `koanf:"use_layout_analysis"`
	PDFFallbackPdftotext bool `koanf:"pdf_fallback_pdftotext"`
}

type PipelineConfig struct {
	WorkerCount  int           `koanf:"worker_count"`
	MaxQueueSize int           `koanf:"max_queue_size"`
	JobTTL       time.Duration `koanf:"job_ttl"`
}

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	LLM        LLMConfig        `koanf:"llm"`
	Retry      RetryConfig      `koanf:"retry"`
	Preprocess PreprocessConfig `koanf:"preprocess"`
	Pipeline   PipelineConfig   `koanf:"pipeline"`
	LogLevel   string           `koanf:"log_level"`
}

var defaults = Config{
	Server: ServerConfig{
		Port:           "8090",
		MaxUploadBytes: 52428800, // 50MB
	},
	LLM: LLMConfig{
		Provider:  "openai",
		Model:     "gpt-4o",
		MaxTokens: 4096,
		Timeout:   120 * time.Second,
	},
	Retry: RetryConfig{
		MaxAttempts:      3,
		TransportRetries: 3,
		TransportDelay:   2 * time.Second,
	},
	Preprocess: PreprocessConfig{
		PageBatchSize:        5,
		UseLayoutAnalysis:    true,
		PDFFallbackPdftotext: true,
	},
	Pipeline: PipelineConfig{
		WorkerCount:  4,
		MaxQueueSize: 100,
		JobTTL:       time.Hour,
	},
	LogLevel: "info",
}

// Load reads configuration in precedence order: defaults, then the YAML
// file at path (skipped when absent), then DOCSTITCH_* environment
// variables. DOCSTITCH_SERVER_PORT maps to server.port.
func Load(path string) (Config, error) {
	cfg := defaults
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("DOCSTITCH_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "DOCSTITCH_"))
		// Section names are single words, so the first underscore is
		// the section separator.
		return strings.Replace(s, "_", ".", 1)
	}), nil); err != nil {
		return cfg, fmt.Errorf("load env config: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings that have no usable default.
func (c Config) Validate() error {
	if c.Server.APIKey == "" {
		return fmt.Errorf("server.api_key is required (DOCSTITCH_SERVER_API_KEY)")
	}
	if c.LLM.Provider != "mock" && c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required (DOCSTITCH_LLM_API_KEY)")
	}
	return nil
}
