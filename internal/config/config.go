// Package config loads service configuration from the environment, with
// optional .env support for local development.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the service reads from the environment.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// ArchiveBucket is the GCS bucket for statement archiving; empty
	// disables archiving.
	ArchiveBucket string

	// JobQueueSize bounds how many analysis jobs can wait in the queue.
	JobQueueSize int

	// JobWorkers bounds concurrent analyses.
	JobWorkers int

	// LogLevel is the zerolog level name (debug, info, warn, error).
	LogLevel string
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged in first when present; real environment
// variables win over .env values.
func Load() (Config, error) {
	// godotenv.Load does not override variables already set.
	_ = godotenv.Load()

	if err := materializeCredentials(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:          envOr("PORT", "8080"),
		ArchiveBucket: os.Getenv("ARCHIVE_BUCKET"),
		JobQueueSize:  envIntOr("JOB_QUEUE_SIZE", 100),
		JobWorkers:    envIntOr("JOB_WORKERS", 2),
		LogLevel:      envOr("LOG_LEVEL", "info"),
	}
	return cfg, nil
}

// materializeCredentials supports deployments where a service-account key
// cannot be mounted as a file: GOOGLE_APPLICATION_CREDENTIALS_JSON carries
// the key base64-encoded, and it is written to a temp file that
// GOOGLE_APPLICATION_CREDENTIALS then points at.
func materializeCredentials() error {
	encoded := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")
	if encoded == "" || os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" {
		return nil
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("decode GOOGLE_APPLICATION_CREDENTIALS_JSON: %w", err)
	}

	path := filepath.Join(os.TempDir(), "service-account.json")
	if err := os.WriteFile(path, decoded, 0o600); err != nil {
		return fmt.Errorf("write credentials file: %w", err)
	}
	if err := os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path); err != nil {
		return fmt.Errorf("set GOOGLE_APPLICATION_CREDENTIALS: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
