package config

import (
	"os"
	"strconv"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int
	BodyLimitMB  int

	// Gateway upstreams
	BlueprintURL string
	LightingURL  string

	// Lighting service
	DBPath        string
	RenderWorkers int
	FrameRate     int
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return LoadService("3000")
}

// LoadService - то же, что Load, но с портом по умолчанию для сервиса.
func LoadService(defaultPort string) *Config {
	return &Config{
		Port:          getEnv("PORT", defaultPort),
		Environment:   getEnv("ENV", "development"),
		ReadTimeout:   getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout:  getEnvAsInt("WRITE_TIMEOUT", 10),
		BodyLimitMB:   getEnvAsInt("BODY_LIMIT_MB", 20),
		BlueprintURL:  getEnv("BLUEPRINT_URL", "http://localhost:3001"),
		LightingURL:   getEnv("LIGHTING_URL", "http://localhost:3002"),
		DBPath:        getEnv("LIGHTING_DB_PATH", "data/db/lighting.db"),
		RenderWorkers: getEnvAsInt("RENDER_WORKERS", 4),
		FrameRate:     getEnvAsInt("FRAME_RATE", 30),
	}
}

// BodyLimit - лимит тела запроса в байтах для fiber.Config.
func (c *Config) BodyLimit() int {
	return c.BodyLimitMB * 1024 * 1024
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}
