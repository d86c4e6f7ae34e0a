package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/GovTech-CSG/govtech-csg-xcg-securefileupload/internal/upload"
)

type Config struct {
	// Server
	Port string
	Host string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Storage backend: "azure" or "local"
	StorageBackend string

	// Azure Blob Storage
	AzureStorageAccount   string
	AzureStorageKey       string
	AzureStorageContainer string
	AzureStorageEndpoint  string

	// JWT
	JWTSecret string

	// Rate Limiting
	RateLimitRPS      int
	RateLimitBurst    int
	StorageQuotaMB    int

	// Logging
	LogLevel string

	// Upload inspection pipeline, global defaults overlaid per route
	// (spec.md §4.8 Config Resolution).
	Upload upload.UploadConfig

	ClamAVSocketPath string
	YaraFileLocation string
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	config := &Config{
		// Server defaults
		Port: getEnv("PORT", "8080"),
		Host: getEnv("HOST", "0.0.0.0"),

		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "soter"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		StorageBackend: getEnv("STORAGE_BACKEND", "local"),

		// Azure Storage defaults (Azurite for local development)
		AzureStorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", "devstoreaccount1"),
		AzureStorageKey:       getEnv("AZURE_STORAGE_KEY", "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="),
		AzureStorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "files"),
		AzureStorageEndpoint:  getEnv("AZURE_STORAGE_ENDPOINT", "http://localhost:10000/devstoreaccount1"),

		// Security defaults
		JWTSecret: getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),

		// Rate limiting defaults
		RateLimitRPS:   getEnvAsInt("RATE_LIMIT_RPS", 2),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 5),
		StorageQuotaMB: getEnvAsInt("STORAGE_QUOTA_MB", 10),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ClamAVSocketPath: getEnv("CLAMAV_SOCKET_PATH", "/var/run/clamav/clamd.ctl"),
		YaraFileLocation: getEnv("YARA_FILE_LOCATION", ""),
	}

	config.Upload = loadUploadConfig(config)

	return config
}

// loadUploadConfig builds the global UploadConfig the route overlays sit
// on top of (spec.md §3 UploadConfig, §4.8 Config Resolution).
func loadUploadConfig(c *Config) upload.UploadConfig {
	global := upload.UploadConfig{
		Quicksand:            getEnvAsBool("UPLOAD_QUICKSAND_ENABLED", false),
		ClamAV:               getEnvAsBool("UPLOAD_CLAMAV_ENABLED", false),
		WhitelistName:        getEnv("UPLOAD_WHITELIST_NAME", "RESTRICTIVE"),
		Sanitization:         getEnvAsBool("UPLOAD_SANITIZATION_ENABLED", true),
		KeepOriginalFilename: getEnvAsBool("UPLOAD_KEEP_ORIGINAL_FILENAME", false),
		YaraFileLocation:     c.YaraFileLocation,
	}

	if limitKB := getEnvAsInt("UPLOAD_FILE_SIZE_LIMIT_KB", 0); limitKB > 0 {
		global.FileSizeLimitKB = &limitKB
	}
	if lenLimit := getEnvAsInt("UPLOAD_FILENAME_LENGTH_LIMIT", 0); lenLimit > 0 {
		global.FilenameLengthLimit = &lenLimit
	}

	return upload.Resolve(global, nil)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}