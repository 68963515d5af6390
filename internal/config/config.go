package config

import (
	"os"
	"strconv"
	"strings"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AttachmentConfig controls which photos and recordings a record accepts.
type AttachmentConfig struct {
	MaxBytes            int64
	PhotoContentTypes   []string
	AudioContentTypes   []string
	AudioPurgeOnReplace bool

	// PhotoVariantSizes lists the "W" or "WxH" sizes served as resized photos.
	PhotoVariantSizes []string
}

// RecordConfig holds record-level settings.
type RecordConfig struct {
	FormName            string
	FormSchemaPath      string
	DefaultOrganisation string
	CacheSize           int
	CacheTTLSec         int

	// HistorySuppressionOrgs may save without history entries via X-Without-Histories.
	HistorySuppressionOrgs []string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string
	Port        string
	LogLevel    string
	TZ          string
	Database    DatabaseConfig
	MinIO       MinIOConfig
	Attachments AttachmentConfig
	Records     RecordConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		TZ:       getEnv("TZ_LOCATION", "UTC"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Attachments: AttachmentConfig{
			MaxBytes:            int64(getEnvInt("ATTACHMENT_MAX_BYTES", 10*1024*1024)),
			PhotoContentTypes:   getEnvList("PHOTO_CONTENT_TYPES", []string{"image/png", "image/jpeg", "image/jpg"}),
			AudioContentTypes:   getEnvList("AUDIO_CONTENT_TYPES", []string{"audio/mpeg", "audio/mp3", "audio/amr"}),
			AudioPurgeOnReplace: getEnvBool("AUDIO_PURGE_ON_REPLACE", false),
			PhotoVariantSizes:   getEnvList("PHOTO_VARIANT_SIZES", []string{"328", "160x160"}),
		},
		Records: RecordConfig{
			FormName:               getEnv("FORM_NAME", "basic_details"),
			FormSchemaPath:         getEnv("FORM_SCHEMA_PATH", ""),
			DefaultOrganisation:    getEnv("DEFAULT_ORGANISATION", ""),
			CacheSize:              getEnvInt("RECORD_CACHE_SIZE", 512),
			CacheTTLSec:            getEnvInt("RECORD_CACHE_TTL_SEC", 60),
			HistorySuppressionOrgs: getEnvList("HISTORY_SUPPRESSION_ORGS", nil),
		},
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

// getEnvList splits a comma separated value, dropping empty items.
func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
