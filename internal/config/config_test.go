package config

import (
	"os"
	"reflect"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	envVars := []string{
		"SERVICE_PRINCIPAL", "HTTP_PORT", "LOG_LEVEL", "LOG_FORMAT",
		"STT_PROVIDER", "STT_LANGUAGE_CODE", "STT_SAMPLE_RATE_HZ",
		"STT_AUDIO_CHANNELS", "STT_AUDIO_ENCODING", "STT_MAX_ALTERNATIVES",
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_MAX_TOKENS",
		"SALESFORCE_LOGIN_URL", "SALESFORCE_API_VERSION",
		"LEAD_DEFAULT_LAST_NAME", "LEAD_DEFAULT_COMPANY",
		"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_TOPIC_CONVERSATIONS", "KAFKA_PRINCIPAL",
		"OBSERVABILITY_PORT",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}

	cfg := Load()

	if cfg.Service.Principal != "svc-sales-conversation" {
		t.Errorf("expected default principal 'svc-sales-conversation', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "3000" {
		t.Errorf("expected default port '3000', got %s", cfg.Service.HTTPPort)
	}
	if cfg.STT.Provider != "google" {
		t.Errorf("expected default STT provider 'google', got %s", cfg.STT.Provider)
	}
	if cfg.STT.LanguageCode != "en-US" {
		t.Errorf("expected default language 'en-US', got %s", cfg.STT.LanguageCode)
	}
	if cfg.STT.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate 16000, got %d", cfg.STT.SampleRateHz)
	}
	if cfg.STT.AudioChannels != 1 {
		t.Errorf("expected default channel count 1, got %d", cfg.STT.AudioChannels)
	}
	if cfg.STT.AudioEncoding != "LINEAR16" {
		t.Errorf("expected default encoding 'LINEAR16', got %s", cfg.STT.AudioEncoding)
	}
	if cfg.STT.MaxAlternatives != 1 {
		t.Errorf("expected default max alternatives 1, got %d", cfg.STT.MaxAlternatives)
	}
	if cfg.OpenAI.Model != "gpt-3.5-turbo-instruct" {
		t.Errorf("expected default model 'gpt-3.5-turbo-instruct', got %s", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.MaxTokens != 150 {
		t.Errorf("expected default max tokens 150, got %d", cfg.OpenAI.MaxTokens)
	}
	if cfg.Salesforce.LoginURL != "https://login.salesforce.com" {
		t.Errorf("expected default login URL, got %s", cfg.Salesforce.LoginURL)
	}
	if cfg.Salesforce.APIVersion != "58.0" {
		t.Errorf("expected default API version '58.0', got %s", cfg.Salesforce.APIVersion)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled by default")
	}
	if cfg.Kafka.Topic != "crm.conversation.ingested" {
		t.Errorf("expected default topic 'crm.conversation.ingested', got %s", cfg.Kafka.Topic)
	}
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
	if cfg.Observability.HTTPPort != "9090" {
		t.Errorf("expected default observability port '9090', got %s", cfg.Observability.HTTPPort)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	os.Setenv("HTTP_PORT", "8080")
	os.Setenv("STT_PROVIDER", "mock")
	os.Setenv("STT_SAMPLE_RATE_HZ", "8000")
	os.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	os.Setenv("OPENAI_MAX_TOKENS", "300")
	os.Setenv("SALESFORCE_LOGIN_URL", "https://test.salesforce.com")
	os.Setenv("LEAD_DEFAULT_LAST_NAME", "Doe")
	os.Setenv("LEAD_DEFAULT_COMPANY", "Acme Corp")
	os.Setenv("KAFKA_ENABLED", "true")
	os.Setenv("KAFKA_BROKERS", "broker-a:9092, broker-b:9092")

	defer func() {
		os.Unsetenv("SERVICE_PRINCIPAL")
		os.Unsetenv("HTTP_PORT")
		os.Unsetenv("STT_PROVIDER")
		os.Unsetenv("STT_SAMPLE_RATE_HZ")
		os.Unsetenv("OPENAI_MODEL")
		os.Unsetenv("OPENAI_MAX_TOKENS")
		os.Unsetenv("SALESFORCE_LOGIN_URL")
		os.Unsetenv("LEAD_DEFAULT_LAST_NAME")
		os.Unsetenv("LEAD_DEFAULT_COMPANY")
		os.Unsetenv("KAFKA_ENABLED")
		os.Unsetenv("KAFKA_BROKERS")
	}()

	cfg := Load()

	if cfg.Service.Principal != "custom-principal" {
		t.Errorf("expected principal 'custom-principal', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "8080" {
		t.Errorf("expected port '8080', got %s", cfg.Service.HTTPPort)
	}
	if cfg.STT.Provider != "mock" {
		t.Errorf("expected STT provider 'mock', got %s", cfg.STT.Provider)
	}
	if cfg.STT.SampleRateHz != 8000 {
		t.Errorf("expected sample rate 8000, got %d", cfg.STT.SampleRateHz)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("expected model 'gpt-4o-mini', got %s", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.MaxTokens != 300 {
		t.Errorf("expected max tokens 300, got %d", cfg.OpenAI.MaxTokens)
	}
	if cfg.Salesforce.LoginURL != "https://test.salesforce.com" {
		t.Errorf("expected sandbox login URL, got %s", cfg.Salesforce.LoginURL)
	}
	if cfg.Lead.DefaultLastName != "Doe" {
		t.Errorf("expected lead last name 'Doe', got %s", cfg.Lead.DefaultLastName)
	}
	if cfg.Lead.DefaultCompany != "Acme Corp" {
		t.Errorf("expected lead company 'Acme Corp', got %s", cfg.Lead.DefaultCompany)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected Kafka enabled")
	}
	if !reflect.DeepEqual(cfg.Kafka.Brokers, []string{"broker-a:9092", "broker-b:9092"}) {
		t.Errorf("expected trimmed broker list, got %v", cfg.Kafka.Brokers)
	}
}

func TestLoad_InvalidValues_FallbackToDefaults(t *testing.T) {
	os.Setenv("STT_SAMPLE_RATE_HZ", "not-a-number")
	os.Setenv("OPENAI_MAX_TOKENS", "invalid")
	os.Setenv("KAFKA_ENABLED", "invalid")

	defer func() {
		os.Unsetenv("STT_SAMPLE_RATE_HZ")
		os.Unsetenv("OPENAI_MAX_TOKENS")
		os.Unsetenv("KAFKA_ENABLED")
	}()

	cfg := Load()

	if cfg.STT.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate on invalid input, got %d", cfg.STT.SampleRateHz)
	}
	if cfg.OpenAI.MaxTokens != 150 {
		t.Errorf("expected default max tokens on invalid input, got %d", cfg.OpenAI.MaxTokens)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled on invalid input")
	}
}

func TestLoad_KafkaPrincipal_FallsBackToServicePrincipal(t *testing.T) {
	os.Setenv("SERVICE_PRINCIPAL", "my-service")
	os.Unsetenv("KAFKA_PRINCIPAL")

	defer os.Unsetenv("SERVICE_PRINCIPAL")

	cfg := Load()

	if cfg.Kafka.Principal != "my-service" {
		t.Errorf("expected Kafka principal to fall back to service principal, got %s", cfg.Kafka.Principal)
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		expected bool
	}{
		{"true string", "true", false, true},
		{"false string", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"TRUE uppercase", "TRUE", false, true},
		{"invalid", "invalid", true, true},
		{"empty", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}
			defer os.Unsetenv(key)

			got := envOrDefaultBool(key, tt.def)
			if got != tt.expected {
				t.Errorf("envOrDefaultBool(%s, %v) = %v, want %v", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}
