package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath      string
	Port        string
	GinMode     string
	CORSOrigins []string

	// Gemini configuration
	GeminiAPIKey     string
	GeminiModel      string
	GeminiTier       string
	EmbeddingsModel  string
	VectorDimensions int

	// Chunking policy for document ingestion
	MaxChunkSize int
	ChunkOverlap int

	// Retrieval
	RetrievalTopK int

	// Financial data cache freshness window, hours
	CacheFreshnessHours int

	// Redis Configuration (optional context cache)
	RedisURL      string
	RedisPassword string
	RedisDB       int
	RedisEnabled  bool
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		DBPath:      getEnv("DB_PATH", "./data/findocgpt.db"),
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTier:       getEnv("GEMINI_TIER", "free"),
		EmbeddingsModel:  getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		VectorDimensions: getEnvInt("VECTOR_DIM", 768),

		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 4000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 300),

		RetrievalTopK: getEnvInt("RETRIEVAL_TOP_K", 3),

		CacheFreshnessHours: getEnvInt("CACHE_FRESHNESS_HOURS", 24),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisEnabled:  getEnvBool("REDIS_ENABLED", false),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.ChunkOverlap >= cfg.MaxChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be smaller than MAX_CHUNK_SIZE")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
