// Package config loads service configuration from the process environment.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Configuration holds all runtime settings for the service.
type Configuration struct {
	Service       ServiceConfig
	STT           STTConfig
	OpenAI        OpenAIConfig
	Salesforce    SalesforceConfig
	Lead          LeadConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig holds process-level settings.
type ServiceConfig struct {
	Principal string
	HTTPPort  string
}

// STTConfig holds speech-to-text settings.
type STTConfig struct {
	Provider        string // "google" or "mock"
	LanguageCode    string
	SampleRateHz    int
	AudioChannels   int
	AudioEncoding   string
	MaxAlternatives int
}

// OpenAIConfig holds language-model settings.
type OpenAIConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// SalesforceConfig holds CRM connection settings.
type SalesforceConfig struct {
	LoginURL      string
	Username      string
	Password      string
	SecurityToken string
	APIVersion    string
}

// LeadConfig holds default field values for leads created by the
// conversation pipeline. Only Description is derived from the transcript;
// LastName and Company are required by the CRM and filled from here.
type LeadConfig struct {
	DefaultLastName string
	DefaultCompany  string
}

// KafkaConfig holds event publisher settings.
type KafkaConfig struct {
	Enabled   bool
	Brokers   []string
	Topic     string
	Principal string
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string
	HTTPPort  string
}

// Load reads configuration from the environment, applying defaults for
// anything unset or unparseable.
func Load() *Configuration {
	cfg := &Configuration{
		Service: ServiceConfig{
			Principal: envOrDefault("SERVICE_PRINCIPAL", "svc-sales-conversation"),
			HTTPPort:  envOrDefault("HTTP_PORT", "3000"),
		},
		STT: STTConfig{
			Provider:        envOrDefault("STT_PROVIDER", "google"),
			LanguageCode:    envOrDefault("STT_LANGUAGE_CODE", "en-US"),
			SampleRateHz:    envOrDefaultInt("STT_SAMPLE_RATE_HZ", 16000),
			AudioChannels:   envOrDefaultInt("STT_AUDIO_CHANNELS", 1),
			AudioEncoding:   envOrDefault("STT_AUDIO_ENCODING", "LINEAR16"),
			MaxAlternatives: envOrDefaultInt("STT_MAX_ALTERNATIVES", 1),
		},
		OpenAI: OpenAIConfig{
			APIKey:    os.Getenv("OPENAI_API_KEY"),
			Model:     envOrDefault("OPENAI_MODEL", "gpt-3.5-turbo-instruct"),
			MaxTokens: envOrDefaultInt("OPENAI_MAX_TOKENS", 150),
		},
		Salesforce: SalesforceConfig{
			LoginURL:      envOrDefault("SALESFORCE_LOGIN_URL", "https://login.salesforce.com"),
			Username:      os.Getenv("SALESFORCE_USERNAME"),
			Password:      os.Getenv("SALESFORCE_PASSWORD"),
			SecurityToken: os.Getenv("SALESFORCE_TOKEN"),
			APIVersion:    envOrDefault("SALESFORCE_API_VERSION", "58.0"),
		},
		Lead: LeadConfig{
			DefaultLastName: envOrDefault("LEAD_DEFAULT_LAST_NAME", "Unknown"),
			DefaultCompany:  envOrDefault("LEAD_DEFAULT_COMPANY", "Unknown"),
		},
		Kafka: KafkaConfig{
			Enabled:   envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:   envOrDefaultList("KAFKA_BROKERS", nil),
			Topic:     envOrDefault("KAFKA_TOPIC_CONVERSATIONS", "crm.conversation.ingested"),
			Principal: envOrDefault("KAFKA_PRINCIPAL", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
			HTTPPort:  envOrDefault("OBSERVABILITY_PORT", "9090"),
		},
	}

	// Kafka messages carry a principal header; default to the service principal.
	if cfg.Kafka.Principal == "" {
		cfg.Kafka.Principal = cfg.Service.Principal
	}

	return cfg
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
