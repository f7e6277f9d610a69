package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=bank_ledger_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"
const defaultHTTPAddr = ":8080"
const defaultChannelID = "LedgerApp"
const defaultChannelKey = "LedgerKey001"
const defaultCallTimeout = 5 * time.Second

type StorageDriver string

const (
	StorageDriverPostgres StorageDriver = "postgres"
	StorageDriverMemory   StorageDriver = "memory"
)

// AccountStoreMode selects whether the coordinator talks to the account store
// in-process or through the account service HTTP API.
type AccountStoreMode string

const (
	AccountStoreModeLocal  AccountStoreMode = "local"
	AccountStoreModeRemote AccountStoreMode = "remote"
)

type Config struct {
	HTTPAddr             string
	StorageDriver        StorageDriver
	DatabaseDSN          string
	LedgerDatabaseDSN    string
	MigrationsDir        string
	ChannelID            string
	ChannelKey           string
	AccountStoreMode     AccountStoreMode
	AccountServiceURL    string
	CredentialServiceURL string
	CallTimeout          time.Duration
	AlertWebhookURL      string
	LogLevel             string
	// SeedFile is a JSON file of accounts and users loaded into the memory
	// stores at startup.
	SeedFile string
}

func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	conn := envOrDefault("DATABASE_DSN", defaultConnectionString)
	ledgerConn := envOrDefault("LEDGER_DATABASE_DSN", conn)

	callTimeout := defaultCallTimeout
	if raw := strings.TrimSpace(os.Getenv("CALL_TIMEOUT")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse CALL_TIMEOUT: %w", err)
		}
		if parsed <= 0 {
			return Config{}, fmt.Errorf("CALL_TIMEOUT must be greater than zero")
		}
		callTimeout = parsed
	}

	driver := StorageDriver(strings.ToLower(envOrDefault("STORAGE_DRIVER", string(StorageDriverPostgres))))
	if driver != StorageDriverPostgres && driver != StorageDriverMemory {
		return Config{}, fmt.Errorf("unsupported STORAGE_DRIVER %q", driver)
	}

	mode := AccountStoreMode(strings.ToLower(envOrDefault("ACCOUNT_STORE_MODE", string(AccountStoreModeLocal))))
	if mode != AccountStoreModeLocal && mode != AccountStoreModeRemote {
		return Config{}, fmt.Errorf("unsupported ACCOUNT_STORE_MODE %q", mode)
	}

	accountServiceURL := strings.TrimRight(envOrDefault("ACCOUNT_SERVICE_URL", ""), "/")
	credentialServiceURL := strings.TrimRight(envOrDefault("CREDENTIAL_SERVICE_URL", accountServiceURL), "/")
	if mode == AccountStoreModeRemote && accountServiceURL == "" {
		return Config{}, fmt.Errorf("ACCOUNT_SERVICE_URL is required when ACCOUNT_STORE_MODE is remote")
	}

	seedFile := envOrDefault("SEED_FILE", "")
	if seedFile != "" {
		if driver != StorageDriverMemory || mode != AccountStoreModeLocal {
			return Config{}, fmt.Errorf("SEED_FILE requires STORAGE_DRIVER=memory and ACCOUNT_STORE_MODE=local")
		}
		if _, err := os.Stat(seedFile); err != nil {
			return Config{}, fmt.Errorf("SEED_FILE: %w", err)
		}
	}

	return Config{
		HTTPAddr:             envOrDefault("HTTP_ADDR", defaultHTTPAddr),
		StorageDriver:        driver,
		DatabaseDSN:          normalizeConnectionString(conn),
		LedgerDatabaseDSN:    normalizeConnectionString(ledgerConn),
		MigrationsDir:        envOrDefault("MIGRATIONS_DIR", filepath.Join("src", "migrations")),
		ChannelID:            envOrDefault("CHANNEL_ID", defaultChannelID),
		ChannelKey:           envOrDefault("CHANNEL_KEY", defaultChannelKey),
		AccountStoreMode:     mode,
		AccountServiceURL:    accountServiceURL,
		CredentialServiceURL: credentialServiceURL,
		CallTimeout:          callTimeout,
		AlertWebhookURL:      envOrDefault("ALERT_WEBHOOK_URL", ""),
		LogLevel:             envOrDefault("LOG_LEVEL", "info"),
		SeedFile:             seedFile,
	}, nil
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func normalizeConnectionString(raw string) string {
	if strings.HasPrefix(raw, "postgres://") || strings.HasPrefix(raw, "postgresql://") {
		return raw
	}

	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "commandtimeout", "command timeout":
			out = append(out, "statement_timeout="+val+"s")
		case "sslmode":
			hasSSLMode = true
			out = append(out, "sslmode="+val)
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
