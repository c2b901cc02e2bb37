// Package config handles application configuration management.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Env        string
	Server     ServerConfig
	Database   DatabaseConfig
	Bus        BusConfig
	Temporal   TemporalConfig
	Ingestor   IngestorConfig
	Classifier ClassifierConfig
	RiskEngine RiskEngineConfig
	Telemetry  TelemetryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	HTTPPort     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// DSN builds a lib/pq connection string from the configured fields.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode)
}

// BusConfig holds NATS JetStream messaging settings.
type BusConfig struct {
	URL            string
	StreamArticles string
	StreamEvents   string
	StreamSignals  string
	ClientName     string
}

// TemporalConfig holds Temporal workflow engine settings.
type TemporalConfig struct {
	HostPort  string
	Namespace string
	TaskQueue string
}

// IngestorConfig holds scraping/dedup/scheduling settings.
type IngestorConfig struct {
	MaxConcurrentConnections int
	RequestsPerSecond        float64
	RequestTimeout           time.Duration
	PollInterval             time.Duration
	AuditLogSize             int
	AlertLogSize             int
	VeracityPerSource        float64
}

// ClassifierConfig holds LLM extraction/categorization settings.
type ClassifierConfig struct {
	OpenAIAPIKey            string
	Model                   string
	SystemPrompt            string
	PollInterval            time.Duration
	CategorizationInterval  time.Duration
	MaxConcurrentProcessing int
	RequestTimeout          time.Duration
	MaxRetries              int
	RetryBaseDelay          time.Duration
	RetryMaxDelay           time.Duration
	CircuitBreakerName      string
	CircuitFailureRatio     float64
}

// RiskEngineConfig holds reference-dataset paths and scoring thresholds.
type RiskEngineConfig struct {
	ClimateDataPath         string
	ClimateIndicatorsPath   string
	MiningDataPath          string
	BorderDataPath          string
	EconomicDataPath        string
	StrategicIndicatorsPath string
	SurgeThreshold          float64
	PollInterval            time.Duration
	BatchSize               int
}

// TelemetryConfig holds observability settings.
type TelemetryConfig struct {
	ServiceName string
	LogLevel    string
}

const defaultSystemPrompt = `You are a Nextier Conflict Analyst specializing in early-warning social signals.

Analyze the text and extract the following information in valid JSON format:

1. Event_Type: Type of event (clash, conflict, violence, protest, political, security, crime, economic, social, unknown)
2. State: Nigerian state where event occurred
3. LGA: Local Government Area where event occurred
4. Severity: Event severity (low, medium, high, critical)
5. Sentiment_Intensity: Emotional intensity on scale 0-100 (0=neutral, 100=extremely charged)
6. Hate_Speech_Indicators: Array of detected hate speech markers (empty array if none)
7. Conflict_Driver: Primary cause category (Economic, Environmental, Social)

Return ONLY valid JSON with these exact field names.`

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Env: getEnv("SIGNAL_ENGINE_ENV", "development"),
		Server: ServerConfig{
			HTTPPort:     getEnvInt("HTTP_PORT", 8000),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnv("POSTGRES_HOST", "localhost"),
			Port:         getEnvInt("POSTGRES_PORT", 5432),
			User:         getEnv("POSTGRES_USER", "signal_engine"),
			Password:     getEnv("POSTGRES_PASSWORD", ""),
			Database:     getEnv("POSTGRES_DB", "signal_engine"),
			SSLMode:      getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns: 25,
			MaxIdleConns: 5,
			MaxLifetime:  5 * time.Minute,
		},
		Bus: BusConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			StreamArticles: getEnv("NATS_STREAM_ARTICLES", "scraped_articles"),
			StreamEvents:   getEnv("NATS_STREAM_EVENTS", "parsed_events"),
			StreamSignals:  getEnv("NATS_STREAM_SIGNALS", "risk_signals"),
			ClientName:     getEnv("NATS_CLIENT_NAME", "signal-engine"),
		},
		Temporal: TemporalConfig{
			HostPort:  getEnv("TEMPORAL_HOSTPORT", "localhost:7233"),
			Namespace: getEnv("TEMPORAL_NAMESPACE", "signal-engine"),
			TaskQueue: getEnv("TEMPORAL_TASK_QUEUE", "signal-engine-classifier"),
		},
		Ingestor: IngestorConfig{
			MaxConcurrentConnections: getEnvInt("INGESTOR_MAX_CONCURRENT_CONNECTIONS", 10),
			RequestsPerSecond:        getEnvFloat("INGESTOR_REQUESTS_PER_SECOND", 5),
			RequestTimeout:           time.Duration(getEnvInt("INGESTOR_REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
			PollInterval:             time.Duration(getEnvInt("INGESTOR_POLL_INTERVAL_MINUTES", 15)) * time.Minute,
			AuditLogSize:             100,
			AlertLogSize:             20,
			VeracityPerSource:        0.5,
		},
		Classifier: ClassifierConfig{
			OpenAIAPIKey:            getEnv("OPENAI_API_KEY", ""),
			Model:                   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			SystemPrompt:            getEnv("CLASSIFIER_SYSTEM_PROMPT", defaultSystemPrompt),
			PollInterval:            time.Duration(getEnvInt("CLASSIFIER_POLL_INTERVAL_SECONDS", 30)) * time.Second,
			CategorizationInterval:  time.Duration(getEnvInt("CLASSIFIER_CATEGORIZATION_INTERVAL_SECONDS", 300)) * time.Second,
			MaxConcurrentProcessing: getEnvInt("CLASSIFIER_MAX_CONCURRENT_PROCESSING", 5),
			RequestTimeout:          time.Duration(getEnvInt("CLASSIFIER_REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
			MaxRetries:              3,
			RetryBaseDelay:          2 * time.Second,
			RetryMaxDelay:           10 * time.Second,
			CircuitBreakerName:      "classifier-llm",
			CircuitFailureRatio:     0.6,
		},
		RiskEngine: RiskEngineConfig{
			ClimateDataPath:         getEnv("RISKENGINE_CLIMATE_DATA_PATH", "./data/climate_data.json"),
			ClimateIndicatorsPath:   getEnv("RISKENGINE_CLIMATE_INDICATORS_PATH", "./data/climate_indicators.geojson"),
			MiningDataPath:          getEnv("RISKENGINE_MINING_DATA_PATH", "./data/mining_activity.json"),
			BorderDataPath:          getEnv("RISKENGINE_BORDER_DATA_PATH", "./data/border_signals.json"),
			EconomicDataPath:        getEnv("RISKENGINE_ECONOMIC_DATA_PATH", "./data/economic_data.csv"),
			StrategicIndicatorsPath: getEnv("RISKENGINE_STRATEGIC_INDICATORS_PATH", "./data/nigeria_econ_indicators.csv"),
			SurgeThreshold:          getEnvFloat("RISKENGINE_SURGE_THRESHOLD", 20),
			PollInterval:            time.Duration(getEnvInt("RISKENGINE_POLL_INTERVAL_SECONDS", 60)) * time.Second,
			BatchSize:               getEnvInt("RISKENGINE_BATCH_SIZE", 50),
		},
		Telemetry: TelemetryConfig{
			ServiceName: getEnv("SERVICE_NAME", "signal-engine"),
			LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		},
	}

	if cfg.Classifier.OpenAIAPIKey == "" && cfg.Env == "production" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required in production")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
