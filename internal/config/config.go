package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Audio       AudioConfig       `yaml:"audio"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Summary     SummaryConfig     `yaml:"summary"`
	Paths       PathsConfig       `yaml:"paths"`
	Gateway     GatewayConfig     `yaml:"gateway"`
	Logging     LoggingConfig     `yaml:"logging"`
	Performance PerformanceConfig `yaml:"performance"`
}

type AudioConfig struct {
	InputSampleRate  int `yaml:"input_sample_rate"`
	InputChannels    int `yaml:"input_channels"`
	SampleRate       int `yaml:"sample_rate"`
	SilenceWindowMs  int `yaml:"silence_window_ms"`
	MinUtteranceMs   int `yaml:"min_utterance_ms"`
	MinArtifactBytes int `yaml:"min_artifact_bytes"`
}

type RecognitionConfig struct {
	Model          string `yaml:"model"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	Retries        int    `yaml:"retries"`
	BackoffMs      int    `yaml:"backoff_ms"`
}

type SummaryConfig struct {
	Model       string `yaml:"model"`
	TokenBudget int    `yaml:"token_budget"`
}

type PathsConfig struct {
	Audio       string `yaml:"audio"`
	Transcripts string `yaml:"transcripts"`
	Summaries   string `yaml:"summaries"`
	Spool       string `yaml:"spool"`
}

type GatewayConfig struct {
	URL string `yaml:"url"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type PerformanceConfig struct {
	MaxConcurrent    int `yaml:"max_concurrent"`
	DrainMaxWaitMs   int `yaml:"drain_max_wait_ms"`
	DrainGraceWaitMs int `yaml:"drain_grace_wait_ms"`
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Gateway.URL == "" {
		return fmt.Errorf("gateway.url is required")
	}
	if c.Paths.Transcripts == "" {
		return fmt.Errorf("paths.transcripts is required")
	}
	if c.Paths.Summaries == "" {
		return fmt.Errorf("paths.summaries is required")
	}

	if c.Paths.Audio == "" {
		c.Paths.Audio = "data/audio"
	}
	if c.Paths.Spool == "" {
		c.Paths.Spool = "data/spool"
	}
	if c.Audio.InputSampleRate == 0 {
		c.Audio.InputSampleRate = 48000
	}
	if c.Audio.InputChannels == 0 {
		c.Audio.InputChannels = 2
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.SilenceWindowMs == 0 {
		c.Audio.SilenceWindowMs = 1500
	}
	if c.Audio.MinUtteranceMs == 0 {
		c.Audio.MinUtteranceMs = 500
	}
	if c.Audio.MinArtifactBytes == 0 {
		c.Audio.MinArtifactBytes = 16000
	}
	if c.Recognition.Model == "" {
		c.Recognition.Model = "whisper-1"
	}
	if c.Recognition.MaxUploadBytes == 0 {
		c.Recognition.MaxUploadBytes = 25 << 20
	}
	if c.Recognition.Retries == 0 {
		c.Recognition.Retries = 2
	}
	if c.Recognition.BackoffMs == 0 {
		c.Recognition.BackoffMs = 1000
	}
	if c.Summary.Model == "" {
		c.Summary.Model = "gemini-2.5-flash"
	}
	if c.Summary.TokenBudget == 0 {
		c.Summary.TokenBudget = 6000
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 4
	}
	if c.Performance.DrainMaxWaitMs == 0 {
		c.Performance.DrainMaxWaitMs = 20000
	}
	if c.Performance.DrainGraceWaitMs == 0 {
		c.Performance.DrainGraceWaitMs = 10000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	return nil
}
