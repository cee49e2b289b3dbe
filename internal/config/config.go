package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type Config struct {
	ServiceName string          `yaml:"service_name"`
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	Synthesis   SynthesisConfig `yaml:"synthesis"`
	Storage     StorageConfig   `yaml:"storage"`
	Journal     JournalConfig   `yaml:"journal"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type SynthesisConfig struct {
	Mode             string `yaml:"mode"` // mock, exec, http
	Command          string `yaml:"command"`
	Endpoint         string `yaml:"endpoint"`
	DefaultVoice     string `yaml:"default_voice"`
	MaxTextLength    int    `yaml:"max_text_length"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
	StreamChunkBytes int    `yaml:"stream_chunk_bytes"`
}

type StorageConfig struct {
	Root                 string `yaml:"root"`
	MaxAgeSeconds        int    `yaml:"max_age_seconds"`
	SweepIntervalMinutes int    `yaml:"sweep_interval_minutes"`
}

type JournalConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxRecords    int    `yaml:"max_records"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

func Default() Config {
	return Config{
		ServiceName: "loqa-speech",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 5000,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: ":9091",
		},
		Bus: BusConfig{
			Enabled:        false,
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Synthesis: SynthesisConfig{
			Mode:             "mock",
			DefaultVoice:     "en-US-ChristopherNeural",
			MaxTextLength:    5000,
			TimeoutSeconds:   45,
			StreamChunkBytes: 16 * 1024,
		},
		Storage: StorageConfig{
			Root:                 filepath.Join(os.TempDir(), "loqa-speech-audio"),
			MaxAgeSeconds:        3600,
			SweepIntervalMinutes: 15,
		},
		Journal: JournalConfig{
			Path:          "./data/loqa-speech.db",
			RetentionMode: "persistent",
			RetentionDays: 30,
			MaxRecords:    100000,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.ServiceName, "LOQA_SPEECH_SERVICE_NAME")
	overrideString(&cfg.Environment, "LOQA_SPEECH_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "LOQA_SPEECH_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "LOQA_SPEECH_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "LOQA_SPEECH_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "LOQA_SPEECH_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "LOQA_SPEECH_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "LOQA_SPEECH_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Enabled, "LOQA_SPEECH_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "LOQA_SPEECH_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "LOQA_SPEECH_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "LOQA_SPEECH_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "LOQA_SPEECH_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "LOQA_SPEECH_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "LOQA_SPEECH_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "LOQA_SPEECH_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "LOQA_SPEECH_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Synthesis.Mode, "LOQA_SPEECH_SYNTHESIS_MODE")
	overrideString(&cfg.Synthesis.Command, "LOQA_SPEECH_SYNTHESIS_COMMAND")
	overrideString(&cfg.Synthesis.Endpoint, "LOQA_SPEECH_SYNTHESIS_ENDPOINT")
	overrideString(&cfg.Synthesis.DefaultVoice, "LOQA_SPEECH_SYNTHESIS_DEFAULT_VOICE")
	overrideInt(&cfg.Synthesis.MaxTextLength, "LOQA_SPEECH_SYNTHESIS_MAX_TEXT_LENGTH")
	overrideInt(&cfg.Synthesis.TimeoutSeconds, "LOQA_SPEECH_SYNTHESIS_TIMEOUT_SECONDS")
	overrideInt(&cfg.Synthesis.StreamChunkBytes, "LOQA_SPEECH_SYNTHESIS_STREAM_CHUNK_BYTES")
	overrideString(&cfg.Storage.Root, "LOQA_SPEECH_STORAGE_ROOT")
	overrideInt(&cfg.Storage.MaxAgeSeconds, "LOQA_SPEECH_STORAGE_MAX_AGE_SECONDS")
	overrideInt(&cfg.Storage.SweepIntervalMinutes, "LOQA_SPEECH_STORAGE_SWEEP_INTERVAL_MINUTES")
	overrideString(&cfg.Journal.Path, "LOQA_SPEECH_JOURNAL_PATH")
	overrideString(&cfg.Journal.RetentionMode, "LOQA_SPEECH_JOURNAL_RETENTION_MODE")
	overrideInt(&cfg.Journal.RetentionDays, "LOQA_SPEECH_JOURNAL_RETENTION_DAYS")
	overrideInt(&cfg.Journal.MaxRecords, "LOQA_SPEECH_JOURNAL_MAX_RECORDS")
	overrideBool(&cfg.Journal.VacuumOnStart, "LOQA_SPEECH_JOURNAL_VACUUM_ON_START")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.ServiceName == "" {
		return errors.New("service_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	switch cfg.Synthesis.Mode {
	case "mock", "exec", "http":
	default:
		return errors.New("synthesis.mode must be one of mock|exec|http")
	}
	if cfg.Synthesis.Mode == "exec" && cfg.Synthesis.Command == "" {
		return errors.New("synthesis.command must be set when mode=exec")
	}
	if cfg.Synthesis.Mode == "http" && cfg.Synthesis.Endpoint == "" {
		return errors.New("synthesis.endpoint must be set when mode=http")
	}
	if cfg.Synthesis.MaxTextLength <= 0 {
		return errors.New("synthesis.max_text_length must be positive")
	}
	if cfg.Synthesis.TimeoutSeconds <= 0 {
		return errors.New("synthesis.timeout_seconds must be positive")
	}
	if cfg.Synthesis.StreamChunkBytes <= 0 {
		return errors.New("synthesis.stream_chunk_bytes must be positive")
	}
	if cfg.Storage.Root == "" {
		return errors.New("storage.root must not be empty")
	}
	if cfg.Storage.MaxAgeSeconds <= 0 {
		return errors.New("storage.max_age_seconds must be positive")
	}
	if cfg.Storage.SweepIntervalMinutes <= 0 {
		return errors.New("storage.sweep_interval_minutes must be positive")
	}
	switch cfg.Journal.RetentionMode {
	case "ephemeral", "persistent":
		// ok
	default:
		return errors.New("journal.retention_mode must be one of ephemeral|persistent")
	}
	if cfg.Journal.RetentionMode == "persistent" && cfg.Journal.Path == "" {
		return errors.New("journal.path must not be empty when retention is persistent")
	}
	if cfg.Journal.RetentionDays < 0 {
		return errors.New("journal.retention_days must be >= 0")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.Telemetry.PrometheusBind == "" {
		return errors.New("telemetry.prometheus_bind must not be empty")
	}
	return nil
}
