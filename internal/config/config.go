package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort     string // Application port
	DBUser      string // Database user
	DBPassword  string // Database password
	DBHost      string // Database host
	DBPort      string // Database port
	DBName      string // Database name
	JWTSecret   string // JWT secret key
	RedisAddr   string // Redis server address
	RedisPass   string // Redis password
	RedisDB     int    // Redis database number
	MinioAddr   string // MinIO server address
	MinioKey    string // MinIO access key
	MinioSecret string // MinIO secret key
	MinioBucket string // MinIO bucket for avatar images
	MinioSSL    bool   // Whether to talk to MinIO over TLS
	IsProd      bool   // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:     os.Getenv("APP_PORT"),            // Application port
		DBUser:      os.Getenv("DB_USER"),             // Database user
		DBPassword:  os.Getenv("DB_PASSWORD"),         // Database password
		DBHost:      os.Getenv("DB_HOST"),             // Database host
		DBPort:      os.Getenv("DB_PORT"),             // Database port
		DBName:      os.Getenv("DB_NAME"),             // Database name
		JWTSecret:   os.Getenv("JWT_SECRET"),          // JWT secret key
		RedisAddr:   os.Getenv("REDIS_ADDR"),          // Redis server address
		RedisPass:   os.Getenv("REDIS_PASS"),          // Redis password
		RedisDB:     redisDB,                          // Redis database number
		MinioAddr:   os.Getenv("MINIO_ADDR"),          // MinIO server address
		MinioKey:    os.Getenv("MINIO_ACCESS_KEY"),    // MinIO access key
		MinioSecret: os.Getenv("MINIO_SECRET_KEY"),    // MinIO secret key
		MinioBucket: os.Getenv("MINIO_BUCKET"),        // MinIO bucket for avatars
		MinioSSL:    os.Getenv("MINIO_SSL") == "true", // MinIO TLS flag
		IsProd:      os.Getenv("IS_PROD") == "true",   // Is production environment
	}
}

// DSN builds the MySQL Data Source Name from the loaded configuration
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}
