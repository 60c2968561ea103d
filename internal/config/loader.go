package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Loader loads configuration from environment variables. Tests can override
// Lookup to inject deterministic maps.
type Loader struct {
	Lookup func(string) (string, bool)

	// DotEnvFile, when set, supplies values for variables the environment
	// leaves unset. A missing file is ignored.
	DotEnvFile string
}

// Load retrieves the service configuration.
func (l Loader) Load() (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}
	lookup := l.Lookup
	if l.DotEnvFile != "" {
		file, err := godotenv.Read(l.DotEnvFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("config: read %s: %w", l.DotEnvFile, err)
		default:
			lookup = func(key string) (string, bool) {
				if v, ok := l.Lookup(key); ok {
					return v, true
				}
				v, ok := file[key]
				return v, ok
			}
		}
	}

	cfg := Default()

	if raw, ok := lookup("VOICEGUARD_CONFIG"); ok && strings.TrimSpace(raw) != "" {
		if err := applyJSON(raw, &cfg); err != nil {
			return Config{}, err
		}
	}

	overrideString(lookup, "VOICEGUARD_LISTEN_ADDR", &cfg.ListenAddr)
	overrideString(lookup, "VOICEGUARD_METRICS_ADDR", &cfg.MetricsAddr)
	overrideString(lookup, "VOICEGUARD_LOG_LEVEL", &cfg.LogLevel)
	overrideString(lookup, "VOICEGUARD_SCORER", &cfg.Scorer)
	overrideString(lookup, "VOICEGUARD_MODEL_DIR", &cfg.ModelDir)
	overrideString(lookup, "VOICEGUARD_LANGID", &cfg.LanguageDetector)
	overrideString(lookup, "VOICEGUARD_WHISPER_MODEL", &cfg.WhisperModelPath)
	overrideString(lookup, "VOICEGUARD_API_KEY", &cfg.APIKey)
	if err := overrideInt(lookup, "VOICEGUARD_N_MFCC", &cfg.NMFCC); err != nil {
		return Config{}, err
	}
	if err := overrideFloat(lookup, "VOICEGUARD_SILENCE_THRESHOLD_DB", &cfg.SilenceThresholdDB); err != nil {
		return Config{}, err
	}
	if err := overrideInt(lookup, "VOICEGUARD_MAX_AUDIO_BYTES", &cfg.MaxAudioBytes); err != nil {
		return Config{}, err
	}

	cfg.Scorer = strings.ToLower(cfg.Scorer)
	cfg.LanguageDetector = strings.ToLower(cfg.LanguageDetector)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyJSON(raw string, cfg *Config) error {
	type jsonConfig struct {
		ListenAddr         string   `json:"listen_addr"`
		MetricsAddr        string   `json:"metrics_addr"`
		LogLevel           string   `json:"log_level"`
		Scorer             string   `json:"scorer"`
		ModelDir           string   `json:"model_dir"`
		NMFCC              *int     `json:"n_mfcc"`
		SilenceThresholdDB *float64 `json:"silence_threshold_db"`
		LanguageDetector   string   `json:"language_detector"`
		WhisperModelPath   string   `json:"whisper_model"`
		MaxAudioBytes      *int     `json:"max_audio_bytes"`
	}
	var payload jsonConfig
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return fmt.Errorf("config: decode VOICEGUARD_CONFIG: %w", err)
	}
	for _, f := range []struct {
		src string
		dst *string
	}{
		{payload.ListenAddr, &cfg.ListenAddr},
		{payload.MetricsAddr, &cfg.MetricsAddr},
		{payload.LogLevel, &cfg.LogLevel},
		{payload.Scorer, &cfg.Scorer},
		{payload.ModelDir, &cfg.ModelDir},
		{payload.LanguageDetector, &cfg.LanguageDetector},
		{payload.WhisperModelPath, &cfg.WhisperModelPath},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}
	if payload.NMFCC != nil {
		cfg.NMFCC = *payload.NMFCC
	}
	if payload.SilenceThresholdDB != nil {
		cfg.SilenceThresholdDB = *payload.SilenceThresholdDB
	}
	if payload.MaxAudioBytes != nil {
		cfg.MaxAudioBytes = *payload.MaxAudioBytes
	}
	return nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideFloat(lookup func(string) (string, bool), key string, target *float64) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}

func overrideInt(lookup func(string) (string, bool), key string, target *int) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}
