package config

import (
	"os"
	"strconv"
)

// BlobConfig holds object storage settings for the MinIO/S3 backend that
// keeps the photo blobs and index documents.
type BlobConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Complete reports whether the config can open a storage connection.
func (c BlobConfig) Complete() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

// AppConfig is the centralized configuration struct for the read API
// server. It is populated from environment variables and handed to the
// constructors that need it; nothing reads configuration ambiently.
type AppConfig struct {
	Port string
	Blob BlobConfig

	// CacheTTLSeconds bounds index staleness on the read side.
	CacheTTLSeconds int
	// PublicBaseURL is the CDN or public bucket base joined with blob
	// keys; when empty the API presigns URLs instead.
	PublicBaseURL string
	// PresignExpirySec is the lifetime of presigned URLs.
	PresignExpirySec int
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		Port: getEnv("PORT", "8080"), // default only for non-sensitive value
		Blob: BlobConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		CacheTTLSeconds:  getEnvInt("CACHE_TTL_SECONDS", 300),
		PublicBaseURL:    getEnv("PUBLIC_BASE_URL", ""),
		PresignExpirySec: getEnvInt("PRESIGN_EXPIRY_SEC", 3600),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
