package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Storage  StorageConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Ledger   LedgerConfig
	Catalog  CatalogConfig
	Cart     CartConfig
}

type ServerConfig struct {
	AppEnv          string
	HTTPPort        string
	ShutdownTimeout int // seconds
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type StorageConfig struct {
	Driver    string // memory, postgres, redis
	Broadcast string // local, redis, kafka
	KeyPrefix string
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Table           string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

type LedgerConfig struct {
	OrderNumberDigits int
	MaxIDAttempts     int
}

type CatalogConfig struct {
	DefaultCategories []string
}

type CartConfig struct {
	IdleTTL       int // minutes
	SweepInterval int // seconds
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:          getEnv("APP_ENV", "dev"),
			HTTPPort:        getEnv("HTTP_PORT", ":8083"),
			ShutdownTimeout: getEnvInt("SHUTDOWN_TIMEOUT", 5),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Storage: StorageConfig{
			Driver:    getEnv("STORAGE_DRIVER", "memory"),
			Broadcast: getEnv("STORAGE_BROADCAST", "local"),
			KeyPrefix: getEnv("STORAGE_KEY_PREFIX", ""),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5433"),
			User:            getEnv("POSTGRES_USER", "omnipos"),
			Password:        getEnv("POSTGRES_PASSWORD", "omnipos"),
			DBName:          getEnv("POSTGRES_DB", "omnipos_menu"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			Table:           getEnv("POSTGRES_KV_TABLE", "kv_store"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Channel:  getEnv("REDIS_CHANNEL", "omnipos.menu.changes"),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC_CHANGES", "menu.storage.changes"),
			GroupID: getEnv("KAFKA_GROUP_ID", ""),
		},
		Ledger: LedgerConfig{
			OrderNumberDigits: getEnvInt("ORDER_NUMBER_DIGITS", 6),
			MaxIDAttempts:     getEnvInt("ORDER_MAX_ID_ATTEMPTS", 1000),
		},
		Catalog: CatalogConfig{
			DefaultCategories: getEnvSlice("CATALOG_DEFAULT_CATEGORIES", []string{"Cappuccinos", "Cafes", "Lanches"}),
		},
		Cart: CartConfig{
			IdleTTL:       getEnvInt("CART_IDLE_TTL", 120),
			SweepInterval: getEnvInt("CART_SWEEP_INTERVAL", 60),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return fallback
}
