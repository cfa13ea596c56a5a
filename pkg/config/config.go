package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	GigaChat GigaChatConfig
	Storage  StorageConfig
	Pipeline PipelineConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
	RefreshExp time.Duration
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	Model              string
	InsecureSkipVerify bool
}

type StorageConfig struct {
	Bucket string
}

type PipelineConfig struct {
	// EnrichBatchSize is how many transactions go to the classifier in
	// one request. Tunable to bound payload size and latency.
	EnrichBatchSize int

	// Parallelism bounds how many documents of one event are processed
	// concurrently.
	Parallelism int

	// QueueBuffer is the in-process event queue capacity.
	QueueBuffer int

	// QueueWorkers is how many consumers pull events.
	QueueWorkers int

	// MaxAttempts caps redeliveries of a failed event.
	MaxAttempts int
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work for
	// container deployments.
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	refreshExp, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168"))
	enrichBatch, _ := strconv.Atoi(getEnv("PIPELINE_ENRICH_BATCH_SIZE", "10"))
	parallelism, _ := strconv.Atoi(getEnv("PIPELINE_PARALLELISM", "4"))
	queueBuffer, _ := strconv.Atoi(getEnv("PIPELINE_QUEUE_BUFFER", "64"))
	queueWorkers, _ := strconv.Atoi(getEnv("PIPELINE_QUEUE_WORKERS", "2"))
	maxAttempts, _ := strconv.Atoi(getEnv("PIPELINE_MAX_ATTEMPTS", "3"))
	insecureSkipVerify := getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "true") == "true"

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "finsight"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
			RefreshExp: time.Duration(refreshExp) * time.Hour,
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			Model:              getEnv("GIGACHAT_MODEL", "GigaChat"),
			InsecureSkipVerify: insecureSkipVerify,
		},
		Storage: StorageConfig{
			Bucket: getEnv("STORAGE_BUCKET", "finsight-uploads"),
		},
		Pipeline: PipelineConfig{
			EnrichBatchSize: enrichBatch,
			Parallelism:     parallelism,
			QueueBuffer:     queueBuffer,
			QueueWorkers:    queueWorkers,
			MaxAttempts:     maxAttempts,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
