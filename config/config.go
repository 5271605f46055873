package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	JWT            JWTConfig            `mapstructure:"jwt"`
	AES            AESConfig            `mapstructure:"aes"`
	Log            LogConfig            `mapstructure:"log"`
	Auth           AuthConfig           `mapstructure:"auth"`
	Chain          ChainConfig          `mapstructure:"chain"`
	Custody        CustodyConfig        `mapstructure:"custody"`
	Settlement     SettlementConfig     `mapstructure:"settlement"`
	Withdrawal     WithdrawalConfig     `mapstructure:"withdrawal"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation"`
	Watcher        WatcherConfig        `mapstructure:"watcher"`
	Kafka          KafkaConfig          `mapstructure:"kafka"`
	Metrics        MetricsConfig        `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LockTimeout     time.Duration `mapstructure:"lock_timeout"` // bounds waits on row locks
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type AESConfig struct {
	Key string `mapstructure:"key"` // 32-byte hex-encoded key sealing wallet secrets
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// AuthConfig lists the API clients allowed to request tokens.
type AuthConfig struct {
	Clients []ClientConfig `mapstructure:"clients"`
}

type ClientConfig struct {
	ID         string `mapstructure:"id"`
	SecretHash string `mapstructure:"secret_hash"` // argon2id encoded
	Role       string `mapstructure:"role"`        // service, admin
}

type ChainConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	WSURL          string        `mapstructure:"ws_url"`
	TokenContract  string        `mapstructure:"token_contract"`
	TokenDecimals  int32         `mapstructure:"token_decimals"`
	GasLimit       uint64        `mapstructure:"gas_limit"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ReadRetries    uint64        `mapstructure:"read_retries"`
}

// CustodyConfig identifies the platform's pooled wallet.
type CustodyConfig struct {
	TraderID string `mapstructure:"trader_id"`
	Currency string `mapstructure:"currency"`
}

type SettlementConfig struct {
	DefaultRewardPercent   decimal.Decimal `mapstructure:"default_reward_percent"`
	DefaultPlatformFeeRate decimal.Decimal `mapstructure:"default_platform_fee"`
	DepositCacheTTL        time.Duration   `mapstructure:"deposit_cache_ttl"`
}

type WithdrawalConfig struct {
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

type ReconciliationConfig struct {
	Enabled       bool            `mapstructure:"enabled"`
	Interval      time.Duration   `mapstructure:"interval"`
	DustThreshold decimal.Decimal `mapstructure:"dust_threshold"`
	LeaseTTL      time.Duration   `mapstructure:"lease_ttl"`
}

type WatcherConfig struct {
	Mode         string        `mapstructure:"mode"` // auto, subscribe, poll
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file and environment variables.
// A .env file in the working directory is loaded first when present.
// Environment variables override file values. Prefix: CLS_ (Custodial Ledger Service).
// Nested keys use underscore: CLS_DATABASE_HOST, CLS_CHAIN_RPC_URL, etc.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "custodial_ledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.lock_timeout", "5s")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.dial_timeout", "2s")
	v.SetDefault("redis.read_timeout", "500ms")
	v.SetDefault("redis.write_timeout", "500ms")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "1h")
	v.SetDefault("jwt.issuer", "custodial-ledger")
	v.SetDefault("aes.key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("chain.rpc_url", "http://localhost:8545")
	v.SetDefault("chain.ws_url", "")
	v.SetDefault("chain.token_contract", "")
	v.SetDefault("chain.token_decimals", 6)
	v.SetDefault("chain.gas_limit", 100000)
	v.SetDefault("chain.request_timeout", "10s")
	v.SetDefault("chain.read_retries", 3)
	v.SetDefault("custody.trader_id", "platform")
	v.SetDefault("custody.currency", "USDT")
	v.SetDefault("settlement.default_reward_percent", "0.01")
	v.SetDefault("settlement.default_platform_fee", "0.02")
	v.SetDefault("settlement.deposit_cache_ttl", "24h")
	v.SetDefault("withdrawal.lock_ttl", "60s")
	v.SetDefault("reconciliation.enabled", true)
	v.SetDefault("reconciliation.interval", "15s")
	v.SetDefault("reconciliation.dust_threshold", "0.000001")
	v.SetDefault("reconciliation.lease_ttl", "2m")
	v.SetDefault("watcher.mode", "auto")
	v.SetDefault("watcher.poll_interval", "30s")
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "ledger.events")
	v.SetDefault("kafka.write_timeout", "5s")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: CLS_DATABASE_HOST -> database.host
	v.SetEnvPrefix("CLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decimalHook())); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Chain.TokenDecimals < 0 || c.Chain.TokenDecimals > 18 {
		return fmt.Errorf("chain.token_decimals out of range: %d", c.Chain.TokenDecimals)
	}
	if c.Reconciliation.Interval <= 0 {
		return fmt.Errorf("reconciliation.interval must be positive")
	}
	switch c.Watcher.Mode {
	case "auto", "subscribe", "poll":
	default:
		return fmt.Errorf("watcher.mode must be auto, subscribe or poll, got %q", c.Watcher.Mode)
	}
	if c.Custody.TraderID == "" {
		return fmt.Errorf("custody.trader_id is required")
	}
	return nil
}
