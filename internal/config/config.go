package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	Retrieval RetrievalConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
}

type AIConfig struct {
	EmbeddingProvider string // currently "gemini" (truncatable output dims)
	LLMProvider       string // "gemini" or "ollama"
	LLMModel          string // e.g. "gemini-1.5-flash", "llama3"
	OllamaBaseURL     string
}

type RetrievalConfig struct {
	MaxContextChunks    int
	MinIntentConfidence float64
	HistoryMaxTurns     int
	CacheTTLMinutes     int
	SessionTTLHours     int
	FastDimensions      int
	BalancedDimensions  int
	FullDimensions      int
	DisableShortCircuit bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			LLMProvider:       getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:          getEnv("LLM_MODEL", "gemini-1.5-flash"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Retrieval: RetrievalConfig{
			MaxContextChunks:    getEnvAsInt("RETRIEVAL_MAX_CONTEXT_CHUNKS", 8),
			MinIntentConfidence: getEnvAsFloat("RETRIEVAL_MIN_INTENT_CONFIDENCE", 0.4),
			HistoryMaxTurns:     getEnvAsInt("RETRIEVAL_HISTORY_MAX_TURNS", 10),
			CacheTTLMinutes:     getEnvAsInt("RETRIEVAL_CACHE_TTL_MINUTES", 60),
			SessionTTLHours:     getEnvAsInt("RETRIEVAL_SESSION_TTL_HOURS", 24),
			FastDimensions:      getEnvAsInt("RETRIEVAL_FAST_DIMENSIONS", 1024),
			BalancedDimensions:  getEnvAsInt("RETRIEVAL_BALANCED_DIMENSIONS", 1536),
			FullDimensions:      getEnvAsInt("RETRIEVAL_FULL_DIMENSIONS", 3072),
			DisableShortCircuit: getEnvAsBool("RETRIEVAL_DISABLE_SHORT_CIRCUIT", false),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
