package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/afl-match-model/internal/platform/logging"
)

const (
	BackendMemory   = "memory"
	BackendCSV      = "csv"
	BackendPostgres = "postgres"
)

// Config stores runtime configuration for the service and the batch build.
type Config struct {
	AppEnv                     string
	ServiceName                string
	ServiceVersion             string
	HTTPAddr                   string
	ReadTimeout                time.Duration
	WriteTimeout               time.Duration
	SwaggerEnabled             bool
	LogLevel                   logging.Level
	DatasetBackend             string
	DatasetDir                 string
	DBURL                      string
	DBDisablePreparedBinary    bool
	CacheEnabled               bool
	CacheTTL                   time.Duration
	PipelineConfigPath         string
	FeatureParallelism         int
	DatasetLoadWorkers         int
	DatasetLoadTimeout         time.Duration
	OutcomeModelPath           string
	MarginModelPath            string
	ModelBreakerFailures       int
	ModelBreakerOpenTimeout    time.Duration
	InternalJobToken           string
	CORSAllowedOrigins         []string
	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	PprofEnabled               bool
	PprofAddr                  string
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	logLevel, err := logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_LOG_LEVEL: %w", err)
	}

	readTimeout, err := getEnvAsDuration("APP_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := getEnvAsDuration("APP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return Config{}, err
	}

	swaggerEnabled, err := strconv.ParseBool(getEnv("APP_SWAGGER_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_SWAGGER_ENABLED: %w", err)
	}

	backend, err := parseBackend(getEnv("DATASET_BACKEND", BackendMemory))
	if err != nil {
		return Config{}, err
	}
	datasetDir := strings.TrimSpace(getEnv("DATASET_DIR", "./data"))
	if backend == BackendCSV && datasetDir == "" {
		return Config{}, fmt.Errorf("DATASET_DIR is required when DATASET_BACKEND=%s", BackendCSV)
	}
	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if backend == BackendPostgres && dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when DATASET_BACKEND=%s", BackendPostgres)
	}
	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := getEnvAsDuration("CACHE_TTL", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}

	parallelism, err := getEnvAsInt("FEATURE_PARALLELISM", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse FEATURE_PARALLELISM: %w", err)
	}
	if parallelism <= 0 {
		return Config{}, fmt.Errorf("FEATURE_PARALLELISM must be > 0")
	}
	loadWorkers, err := getEnvAsInt("DATASET_LOAD_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse DATASET_LOAD_WORKERS: %w", err)
	}
	if loadWorkers <= 0 {
		return Config{}, fmt.Errorf("DATASET_LOAD_WORKERS must be > 0")
	}
	loadTimeout, err := getEnvAsDuration("DATASET_LOAD_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}

	breakerFailures, err := getEnvAsInt("MODEL_BREAKER_FAILURES", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse MODEL_BREAKER_FAILURES: %w", err)
	}
	breakerOpenTimeout, err := getEnvAsDuration("MODEL_BREAKER_OPEN_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", 15*time.Second)
	if err != nil {
		return Config{}, err
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	serviceName := getEnv("APP_SERVICE_NAME", "afl-match-model")

	return Config{
		AppEnv:                     appEnv,
		ServiceName:                serviceName,
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                   getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:                readTimeout,
		WriteTimeout:               writeTimeout,
		SwaggerEnabled:             swaggerEnabled,
		LogLevel:                   logLevel,
		DatasetBackend:             backend,
		DatasetDir:                 datasetDir,
		DBURL:                      dbURL,
		DBDisablePreparedBinary:    dbDisablePreparedBinary,
		CacheEnabled:               cacheEnabled,
		CacheTTL:                   cacheTTL,
		PipelineConfigPath:         strings.TrimSpace(getEnv("PIPELINE_CONFIG_PATH", "")),
		FeatureParallelism:         parallelism,
		DatasetLoadWorkers:         loadWorkers,
		DatasetLoadTimeout:         loadTimeout,
		OutcomeModelPath:           strings.TrimSpace(getEnv("OUTCOME_MODEL_PATH", "")),
		MarginModelPath:            strings.TrimSpace(getEnv("MARGIN_MODEL_PATH", "")),
		ModelBreakerFailures:       breakerFailures,
		ModelBreakerOpenTimeout:    breakerOpenTimeout,
		InternalJobToken:           strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		CORSAllowedOrigins:         splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAppName:           getEnv("PYROSCOPE_APP_NAME", serviceName),
		PyroscopeAuthToken:         getEnv("PYROSCOPE_AUTH_TOKEN", ""),
		PyroscopeBasicAuthUser:     getEnv("PYROSCOPE_BASIC_AUTH_USER", ""),
		PyroscopeBasicAuthPassword: getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""),
		PyroscopeUploadRate:        pyroscopeUploadRate,
		PprofEnabled:               pprofEnabled,
		PprofAddr:                  pprofAddr,
	}, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	for _, item := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			return strings.Trim(strings.TrimSpace(parts[1]), "\"'")
		}
	}

	return ""
}

func parseBackend(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case BackendMemory, BackendCSV, BackendPostgres:
		return value, nil
	default:
		return "", fmt.Errorf("invalid DATASET_BACKEND %q: valid values are %s, %s, %s", v, BackendMemory, BackendCSV, BackendPostgres)
	}
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
