package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	LogMode     string
	DatabaseURL string
	JWTSecret   string

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string

	VisionBaseURL string
	VisionAPIKey  string
	VisionModel   string

	MaxFilesPerRequest int
	MinFileSize        int64
	MaxFileSize        int64
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "5000"),
		LogMode:     getEnv("LOG_MODE", "dev"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "autoprovider-sources"),

		VisionBaseURL: getEnv("VISION_BASE_URL", "https://api.siliconflow.cn/v1"),
		VisionAPIKey:  getEnv("VISION_API_KEY", ""),
		VisionModel:   getEnv("VISION_MODEL", "Qwen/Qwen2.5-VL-32B-Instruct"),

		MaxFilesPerRequest: getEnvInt("MAX_FILES_PER_REQUEST", 10),
		MinFileSize:        int64(getEnvInt("MIN_FILE_SIZE", 100)),
		MaxFileSize:        int64(getEnvInt("MAX_FILE_SIZE", 30<<20)),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}
