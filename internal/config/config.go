package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=core_ledger_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"
const defaultListenAddr = ":8080"
const defaultStoreDriver = StoreDriverPostgres
const defaultMigrationsDir = "migrations"
const defaultChannelID = "LedgerApp"
const defaultChannelKey = "LedgerKey001"
const defaultCacheTTL = 30 * time.Second

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	DatabaseDSN    string
	MigrationsDir  string
	ListenAddr     string
	StoreDriver    string
	RedisAddr      string
	CacheTTL       time.Duration
	ChannelID      string
	ChannelKeyHash string
}

func Load() (Config, error) {
	conn := strings.TrimSpace(os.Getenv("DATABASE_DSN"))
	if conn == "" {
		conn = defaultConnectionString
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = defaultListenAddr
	}

	storeDriver := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER")))
	if storeDriver == "" {
		storeDriver = defaultStoreDriver
	}
	if storeDriver != StoreDriverPostgres && storeDriver != StoreDriverMemory {
		return Config{}, fmt.Errorf("unsupported STORE_DRIVER %q", storeDriver)
	}

	migrationsDir := strings.TrimSpace(os.Getenv("MIGRATIONS_DIR"))
	if migrationsDir == "" {
		migrationsDir = defaultMigrationsDir
	}

	channelID := strings.TrimSpace(os.Getenv("CHANNEL_ID"))
	if channelID == "" {
		channelID = defaultChannelID
	}

	channelKeyHash, err := resolveChannelKeyHash()
	if err != nil {
		return Config{}, err
	}

	cacheTTL := defaultCacheTTL
	if raw := strings.TrimSpace(os.Getenv("CACHE_TTL_SECONDS")); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds < 0 {
			return Config{}, fmt.Errorf("invalid CACHE_TTL_SECONDS %q", raw)
		}
		cacheTTL = time.Duration(seconds) * time.Second
	}

	return Config{
		DatabaseDSN:    normalizeConnectionString(conn),
		MigrationsDir:  migrationsDir,
		ListenAddr:     listenAddr,
		StoreDriver:    storeDriver,
		RedisAddr:      strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		CacheTTL:       cacheTTL,
		ChannelID:      channelID,
		ChannelKeyHash: channelKeyHash,
	}, nil
}

// resolveChannelKeyHash prefers a pre-computed bcrypt hash from the
// environment; otherwise it hashes the plain channel key at load time so the
// plaintext never travels past configuration.
func resolveChannelKeyHash() (string, error) {
	if hash := strings.TrimSpace(os.Getenv("CHANNEL_KEY_HASH")); hash != "" {
		return hash, nil
	}

	key := strings.TrimSpace(os.Getenv("CHANNEL_KEY"))
	if key == "" {
		key = defaultChannelKey
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash channel key: %w", err)
	}

	return string(hashed), nil
}

func normalizeConnectionString(raw string) string {
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
