package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr    string
	MaxUploadMB   int
	ArchiveBucket string
	PG            PGConfig
}

type PGConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

func (c PGConfig) Enabled() bool {
	return c.Host != ""
}

func (c PGConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", c.Host, c.Port, c.User, c.Password, c.DBName)
}

// LoadEnv reads .env into the process environment when the file exists.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("error loading .env file", "error", err)
	}
}

// GetEnv reads an environment variable or returns fallback.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(GetEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func FromEnv() Config {
	return Config{
		ServerAddr:    GetEnv("SERVER_ADDR", ":8080"),
		MaxUploadMB:   getEnvInt("MAX_UPLOAD_MB", 50),
		ArchiveBucket: GetEnv("ARCHIVE_BUCKET", ""),
		PG: PGConfig{
			Host:     GetEnv("PG_HOST", ""),
			Port:     getEnvInt("PG_PORT", 5432),
			User:     GetEnv("PG_USER", ""),
			Password: GetEnv("PG_PASS", ""),
			DBName:   GetEnv("PG_DB_NAME", ""),
		},
	}
}
