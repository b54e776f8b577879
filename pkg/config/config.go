package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DocumentStoreFirestore = "firestore"
	DocumentStoreMemory    = "memory"

	StorageBackendGCS    = "gcs"
	StorageBackendMinio  = "minio"
	StorageBackendMemory = "memory"
)

type Config struct {
	ServerPort  string
	Environment string
	LogLevel    string

	FirebaseProject            string
	FirebaseServiceAccountJSON string
	FirebaseServiceAccountPath string

	DocumentStore string
	// MaxInValues is the largest value list the backend accepts in an "in"
	// filter. Firestore historically allowed 10.
	MaxInValues int

	StorageBackend string
	StorageBucket  string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	MaxUploadBytes int64

	RedisURL        string
	ProfileCacheTTL time.Duration
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		FirebaseProject:            getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		FirebaseServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),

		DocumentStore: getEnv("DOCUMENT_STORE", DocumentStoreFirestore),
		MaxInValues:   getEnvAsInt("MAX_IN_VALUES", 10),

		StorageBackend: getEnv("STORAGE_BACKEND", StorageBackendGCS),
		StorageBucket:  getEnv("STORAGE_BUCKET", ""),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioUseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_BYTES", 5*1024*1024)),

		RedisURL:        getEnv("REDIS_URL", ""),
		ProfileCacheTTL: getEnvAsDuration("PROFILE_CACHE_TTL", 5*time.Minute),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.DocumentStore {
	case DocumentStoreFirestore, DocumentStoreMemory:
	default:
		return fmt.Errorf("unknown DOCUMENT_STORE %q", c.DocumentStore)
	}
	switch c.StorageBackend {
	case StorageBackendGCS, StorageBackendMinio, StorageBackendMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.MaxInValues < 1 {
		return fmt.Errorf("MAX_IN_VALUES must be at least 1, got %d", c.MaxInValues)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}
