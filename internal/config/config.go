package config

import (
	"fmt"
	"strings"
)

const (
	DefaultListenAddr         = "localhost:0"
	DefaultScorer             = "auto"
	DefaultModelDir           = "models"
	DefaultNMFCC              = 13
	DefaultSilenceThresholdDB = 25
	DefaultLanguageDetector   = "auto"
	DefaultMaxAudioBytes      = 32 << 20
)

var (
	scorerModes   = []string{"auto", "heuristic"}
	langIDModes   = []string{"auto", "whisper", "none"}
	logLevelNames = []string{"", "debug", "info", "warn", "warning", "error"}
)

// Config holds the service configuration.
type Config struct {
	ListenAddr         string  `json:"listen_addr"`
	MetricsAddr        string  `json:"metrics_addr"`
	LogLevel           string  `json:"log_level"`
	Scorer             string  `json:"scorer"`
	ModelDir           string  `json:"model_dir"`
	NMFCC              int     `json:"n_mfcc"`
	SilenceThresholdDB float64 `json:"silence_threshold_db"`
	LanguageDetector   string  `json:"language_detector"`
	WhisperModelPath   string  `json:"whisper_model"`
	APIKey             string  `json:"-"`
	MaxAudioBytes      int     `json:"max_audio_bytes"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		ListenAddr:         DefaultListenAddr,
		Scorer:             DefaultScorer,
		ModelDir:           DefaultModelDir,
		NMFCC:              DefaultNMFCC,
		SilenceThresholdDB: DefaultSilenceThresholdDB,
		LanguageDetector:   DefaultLanguageDetector,
		MaxAudioBytes:      DefaultMaxAudioBytes,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("config: listen address must not be empty")
	}
	if !oneOf(strings.ToLower(c.LogLevel), logLevelNames) {
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	if !oneOf(c.Scorer, scorerModes) {
		return fmt.Errorf("config: scorer must be one of %v, got %q", scorerModes, c.Scorer)
	}
	if c.NMFCC < 1 {
		return fmt.Errorf("config: n_mfcc must be at least 1, got %d", c.NMFCC)
	}
	if c.SilenceThresholdDB <= 0 {
		return fmt.Errorf("config: silence threshold must be positive, got %v", c.SilenceThresholdDB)
	}
	if !oneOf(c.LanguageDetector, langIDModes) {
		return fmt.Errorf("config: language detector must be one of %v, got %q", langIDModes, c.LanguageDetector)
	}
	if c.LanguageDetector == "whisper" && c.WhisperModelPath == "" {
		return fmt.Errorf("config: language detector \"whisper\" requires VOICEGUARD_WHISPER_MODEL")
	}
	if c.MaxAudioBytes <= 0 {
		return fmt.Errorf("config: max audio bytes must be positive, got %d", c.MaxAudioBytes)
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
