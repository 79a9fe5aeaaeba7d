package config

import (
	"os"
	"strings"
)

// applyLocalDefaults fills what docker compose provides in local runs.
func applyLocalDefaults(cfg *Config) {
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.TestBank.Endpoint == "" && strings.TrimSpace(os.Getenv("MINIO_ROOT_USER")) != "" {
		cfg.TestBank.Endpoint = firstNonEmpty(strings.TrimSpace(os.Getenv("TESTBANK_MINIO_ENDPOINT")), "minio:9000")
		cfg.TestBank.AccessKey = firstNonEmpty(cfg.TestBank.AccessKey, os.Getenv("MINIO_ROOT_USER"))
		cfg.TestBank.SecretKey = firstNonEmpty(cfg.TestBank.SecretKey, os.Getenv("MINIO_ROOT_PASSWORD"))
		cfg.TestBank.UseSSL = false
	}
}
