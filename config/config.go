package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	BaseURL     string
	DatabaseDSN string

	AccessSecret string

	KafkaBroker   string
	KafkaTopic    string
	KafkaUsername string
	KafkaPassword string

	CloudinaryUrl string

	// seeded reviewer account
	AdminName     string
	AdminEmail    string
	AdminPassword string

	// lifecycle policy knobs, see DESIGN.md
	RequireApprovedSubmitter bool
	DeleteCascadeRequests    bool
	LookupCacheTTL           time.Duration
}

func LoadConfig() Config {
	if os.Getenv("ENV") != "prod" {
		if err := godotenv.Overload(); err != nil {
			log.Println("Warning: env file not found or could not be loaded:", err)
		}
	}

	return Config{
		ServerPort:  getEnv("SERVER_PORT", ":3001"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:3000"),
		DatabaseDSN: os.Getenv("DATABASE_DSN"),

		AccessSecret: os.Getenv("ACCESS_SECRET"),

		KafkaBroker:   os.Getenv("KAFKA_BROKER"),
		KafkaTopic:    os.Getenv("KAFKA_TOPIC"),
		KafkaUsername: os.Getenv("KAFKA_USERNAME"),
		KafkaPassword: os.Getenv("KAFKA_PASSWORD"),

		CloudinaryUrl: os.Getenv("CLOUDINARY_URL"),

		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		RequireApprovedSubmitter: getEnvBool("REQUIRE_APPROVED_SUBMITTER", false),
		DeleteCascadeRequests:    getEnvBool("DELETE_CASCADE_REQUESTS", true),
		LookupCacheTTL:           getEnvDuration("LOOKUP_CACHE_TTL", 5*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("invalid bool for %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid duration for %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return d
}
