package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"

	IdentitySourceAPIGatewayEvent = "apigateway-event"
	IdentitySourceHeader          = "header"

	profileTableSuffix = "-profileData"
)

type Config struct {
	AppEnv    string
	Port      string
	Store     StoreConfig
	AWS       AWSConfig
	DB        DatabaseConfig
	Identity  IdentityConfig
	CORS      CORSConfig
	Telemetry TelemetryConfig
}

type StoreConfig struct {
	Backend     string
	TablePrefix string
}

// TableName is the logical profile table, shared by every backend.
func (s StoreConfig) TableName() string {
	return s.TablePrefix + profileTableSuffix
}

type AWSConfig struct {
	Region           string
	DynamoDBEndpoint string
}

type DatabaseConfig struct {
	Engine   string
	Host     string
	Port     string
	Name     string
	Username string
	Password string
	SSLMode  string
}

// IdentityConfig selects the single place the caller identity is read from.
type IdentityConfig struct {
	Source string
	Header string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type TelemetryConfig struct {
	ServiceName          string
	ServiceVersion       string
	OTLPEndpoint         string
	OTLPTracesEndpoint   string
	OTLPMetricsEndpoint  string
	OTLPProtocol         string
	OTLPHeaders          map[string]string
	OTLPInsecure         bool
	MetricsEnabled       bool
	ExportTimeout        time.Duration
	MetricExportInterval time.Duration
}

func Load() (Config, error) {
	appEnv := getEnv("APP_ENV", "dev")
	port := getEnv("APP_PORT", "3000")

	backend := strings.ToLower(getEnv("STORE_BACKEND", BackendDynamoDB))
	if backend != BackendDynamoDB && backend != BackendPostgres {
		return Config{}, fmt.Errorf("invalid STORE_BACKEND: %s", backend)
	}

	tablePrefix := os.Getenv("MOBILE_HUB_DYNAMIC_PREFIX")
	if tablePrefix == "" {
		return Config{}, errors.New("MOBILE_HUB_DYNAMIC_PREFIX must be set")
	}

	dbName := getEnv("DB_NAME", "")
	if dbName == "" {
		dbName = os.Getenv("DB_INSTANCE_IDENTIFIER")
	}

	dbSSLMode := getEnv("DB_SSLMODE", "")
	if dbSSLMode == "" {
		if appEnv == "prod" {
			dbSSLMode = "require"
		} else {
			dbSSLMode = "disable"
		}
	}

	identity, err := loadIdentity()
	if err != nil {
		return Config{}, err
	}

	exportTimeout, err := time.ParseDuration(getEnv("OTEL_EXPORTER_OTLP_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid OTEL_EXPORTER_OTLP_TIMEOUT: %w", err)
	}
	metricInterval, err := time.ParseDuration(getEnv("OTEL_METRIC_EXPORT_INTERVAL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid OTEL_METRIC_EXPORT_INTERVAL: %w", err)
	}
	metricsExporter := strings.ToLower(getEnv("OTEL_METRICS_EXPORTER", "otlp"))
	if metricsExporter != "otlp" && metricsExporter != "none" {
		return Config{}, fmt.Errorf("invalid OTEL_METRICS_EXPORTER: %s", metricsExporter)
	}

	cfg := Config{
		AppEnv: appEnv,
		Port:   port,
		Store: StoreConfig{
			Backend:     backend,
			TablePrefix: tablePrefix,
		},
		AWS: AWSConfig{
			Region:           getEnv("REGION", "us-east-1"),
			DynamoDBEndpoint: getEnv("DYNAMODB_ENDPOINT", ""),
		},
		DB: DatabaseConfig{
			Engine:   getEnv("DB_ENGINE", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     dbName,
			Username: getEnv("DB_USERNAME", ""),
			Password: getEnv("DB_PASSWORD", ""),
			SSLMode:  dbSSLMode,
		},
		Identity: identity,
		CORS: CORSConfig{
			AllowedOrigins: parseCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
		Telemetry: TelemetryConfig{
			ServiceName:          getEnv("OTEL_SERVICE_NAME", "profile-service"),
			ServiceVersion:       getEnv("OTEL_SERVICE_VERSION", "dev"),
			OTLPEndpoint:         getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			OTLPTracesEndpoint:   getEnv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", ""),
			OTLPMetricsEndpoint:  getEnv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", ""),
			OTLPProtocol:         strings.ToLower(getEnv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")),
			OTLPHeaders:          parseHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", "")),
			OTLPInsecure:         getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", appEnv != "prod"),
			MetricsEnabled:       metricsExporter == "otlp",
			ExportTimeout:        exportTimeout,
			MetricExportInterval: metricInterval,
		},
	}

	if cfg.Store.Backend == BackendPostgres && (cfg.DB.Name == "" || cfg.DB.Username == "") {
		return Config{}, errors.New("DB_NAME (or DB_INSTANCE_IDENTIFIER) and DB_USERNAME must be set for the postgres backend")
	}

	return cfg, nil
}

// loadIdentity defaults to the trusted header when one is named, otherwise
// to the API Gateway event.
func loadIdentity() (IdentityConfig, error) {
	header := strings.TrimSpace(os.Getenv("IDENTITY_HEADER"))
	fallback := IdentitySourceAPIGatewayEvent
	if header != "" {
		fallback = IdentitySourceHeader
	}

	source := strings.ToLower(getEnv("IDENTITY_SOURCE", fallback))
	switch source {
	case IdentitySourceAPIGatewayEvent:
		return IdentityConfig{Source: source}, nil
	case IdentitySourceHeader:
		if header == "" {
			return IdentityConfig{}, errors.New("IDENTITY_HEADER must be set when IDENTITY_SOURCE is header")
		}
		return IdentityConfig{Source: source, Header: header}, nil
	default:
		return IdentityConfig{}, fmt.Errorf("invalid IDENTITY_SOURCE: %s", source)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	var results []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

// parseHeaders reads the OTLP "k1=v1,k2=v2" header list.
func parseHeaders(value string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range parseCSV(value) {
		key, val, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(val)
	}
	return headers
}
