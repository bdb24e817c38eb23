package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Storage drivers selected by STORAGE_DRIVER.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config reúne a configuração do serviço lida do ambiente
type Config struct {
	Port         string
	ServiceName  string
	LogLevel     string
	OTelEnabled  bool
	OTLPEndpoint string

	StorageDriver string
	TxMode        string

	DatabaseUser     string
	DatabasePassword string
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseMaxConns int32
}

func loadConfig() (Config, error) {
	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		ServiceName:  getEnv("SERVICE_NAME", "inventory-service"),
		LogLevel:     strings.ToLower(getEnv("LOG_LEVEL", "info")),
		OTelEnabled:  getEnvBool("OTEL_ENABLED", true),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres)),
		TxMode:        strings.ToLower(getEnv("PURCHASE_TX_MODE", TxModeNone)),

		DatabaseUser:     getEnv("DATABASE_USER", "root"),
		DatabasePassword: getEnv("DATABASE_PASSWORD", "pass"),
		DatabaseHost:     getEnv("DATABASE_HOST", "localhost"),
		DatabasePort:     getEnv("DATABASE_PORT", "5432"),
		DatabaseName:     getEnv("DATABASE_NAME", "inventory_db"),
		DatabaseMaxConns: int32(getEnvInt("DATABASE_MAX_CONNS", 10)),
	}

	switch cfg.StorageDriver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	switch cfg.TxMode {
	case TxModeNone:
	case TxModeSingle:
		if cfg.StorageDriver != StorageDriverPostgres {
			return Config{}, fmt.Errorf("PURCHASE_TX_MODE=%s requires STORAGE_DRIVER=%s", TxModeSingle, StorageDriverPostgres)
		}
	default:
		return Config{}, fmt.Errorf("unknown PURCHASE_TX_MODE %q", cfg.TxMode)
	}

	return cfg, nil
}

// DSN monta a string de conexão do pgx
func (c Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return b
}
