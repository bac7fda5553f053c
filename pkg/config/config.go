package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
	DriverMongo    = "mongo"
)

// Oracle kinds.
const (
	OracleSimulated = "simulated"
	OracleCoinGecko = "coingecko"
)

// StoreConfig 文档存储配置
type StoreConfig struct {
	Driver   string
	DSN      string // sqlite 文件路径 / postgres DSN / badger 目录 / mongo URL
	Database string // mongo 数据库名
	// badger 加密密钥（32 字节，hex 或 base64），为空则不加密
	EncryptionKey string
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret      string
	TokenTTL       time.Duration
	BcryptCost     int
	LoginPerMinute int // 每个客户端 IP 每分钟允许的登录次数
}

// OracleConfig 行情源配置
type OracleConfig struct {
	Kind         string
	CoinGeckoURL string
	CacheTTL     time.Duration
}

// BotsConfig 机器人配置
type BotsConfig struct {
	SimulateProfit bool // 新建机器人时模拟一个初始收益（演示用）
	SeedOnStart    bool // 启动时为没有机器人的用户创建示例机器人
}

// MarketConfig 行情推送配置
type MarketConfig struct {
	StreamInterval time.Duration
}

// Config 应用配置
type Config struct {
	Listen   string
	Store    StoreConfig
	Auth     AuthConfig
	Oracle   OracleConfig
	Bots     BotsConfig
	Market   MarketConfig
	LogLevel string
	LogFile  string
}

// ConfigFile 配置文件结构（用于 YAML 解析）
type ConfigFile struct {
	Listen string `yaml:"listen"`
	Store  struct {
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Database      string `yaml:"database"`
		EncryptionKey string `yaml:"encryption_key"`
	} `yaml:"store"`
	Auth struct {
		JWTSecret      string `yaml:"jwt_secret"`
		TokenTTL       string `yaml:"token_ttl"`
		BcryptCost     int    `yaml:"bcrypt_cost"`
		LoginPerMinute int    `yaml:"login_per_minute"`
	} `yaml:"auth"`
	Oracle struct {
		Kind         string `yaml:"kind"`
		CoinGeckoURL string `yaml:"coingecko_url"`
		CacheTTL     string `yaml:"cache_ttl"`
	} `yaml:"oracle"`
	Bots struct {
		SimulateProfit *bool `yaml:"simulate_profit"`
		SeedOnStart    *bool `yaml:"seed_on_start"`
	} `yaml:"bots"`
	Market struct {
		StreamInterval string `yaml:"stream_interval"`
	} `yaml:"market"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// Default 默认配置（JWT 密钥必须由外部提供）
func Default() *Config {
	return &Config{
		Listen: ":8001",
		Store: StoreConfig{
			Driver:   DriverSQLite,
			DSN:      "data/tradedesk.db",
			Database: "test_database",
		},
		Auth: AuthConfig{
			TokenTTL:       7 * 24 * time.Hour,
			BcryptCost:     10,
			LoginPerMinute: 10,
		},
		Oracle: OracleConfig{
			Kind:         OracleSimulated,
			CoinGeckoURL: "https://api.coingecko.com/api/v3",
			CacheTTL:     30 * time.Second,
		},
		Bots: BotsConfig{
			SimulateProfit: true,
		},
		Market: MarketConfig{
			StreamInterval: 5 * time.Second,
		},
		LogLevel: "info",
	}
}

// Load 加载配置：默认值 < 配置文件 < 环境变量
func Load(filePath string) (*Config, error) {
	cfg := Default()

	if filePath != "" {
		cf, err := loadConfigFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("load config file %s: %w", filePath, err)
		}
		if err := cfg.applyFile(cf); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadConfigFile(filePath string) (*ConfigFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var cf ConfigFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("yaml parse failed: %w", err)
	}
	return &cf, nil
}

func (c *Config) applyFile(cf *ConfigFile) error {
	setString(&c.Listen, cf.Listen)
	setString(&c.Store.Driver, cf.Store.Driver)
	setString(&c.Store.DSN, cf.Store.DSN)
	setString(&c.Store.Database, cf.Store.Database)
	setString(&c.Store.EncryptionKey, cf.Store.EncryptionKey)
	setString(&c.Auth.JWTSecret, cf.Auth.JWTSecret)
	if cf.Auth.BcryptCost > 0 {
		c.Auth.BcryptCost = cf.Auth.BcryptCost
	}
	if cf.Auth.LoginPerMinute > 0 {
		c.Auth.LoginPerMinute = cf.Auth.LoginPerMinute
	}
	setString(&c.Oracle.Kind, cf.Oracle.Kind)
	setString(&c.Oracle.CoinGeckoURL, cf.Oracle.CoinGeckoURL)
	if cf.Bots.SimulateProfit != nil {
		c.Bots.SimulateProfit = *cf.Bots.SimulateProfit
	}
	if cf.Bots.SeedOnStart != nil {
		c.Bots.SeedOnStart = *cf.Bots.SeedOnStart
	}
	setString(&c.LogLevel, cf.LogLevel)
	setString(&c.LogFile, cf.LogFile)

	for _, d := range []struct {
		raw string
		dst *time.Duration
		key string
	}{
		{cf.Auth.TokenTTL, &c.Auth.TokenTTL, "auth.token_ttl"},
		{cf.Oracle.CacheTTL, &c.Oracle.CacheTTL, "oracle.cache_ttl"},
		{cf.Market.StreamInterval, &c.Market.StreamInterval, "market.stream_interval"},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = v
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Listen, getEnv("TRADEDESK_LISTEN", ""))
	setString(&c.Store.Driver, getEnv("TRADEDESK_STORE", ""))
	// 兼容原版的 MONGO_URL / DB_NAME
	setString(&c.Store.DSN, getEnv("TRADEDESK_STORE_DSN", getEnv("MONGO_URL", "")))
	setString(&c.Store.Database, getEnv("DB_NAME", ""))
	setString(&c.Store.EncryptionKey, getEnv("TRADEDESK_STORE_KEY", ""))
	setString(&c.Auth.JWTSecret, getEnv("JWT_SECRET", ""))
	c.Auth.BcryptCost = parseIntEnv("TRADEDESK_BCRYPT_COST", c.Auth.BcryptCost)
	c.Auth.LoginPerMinute = parseIntEnv("TRADEDESK_LOGIN_RATE", c.Auth.LoginPerMinute)
	setString(&c.Oracle.Kind, getEnv("TRADEDESK_ORACLE", ""))
	setString(&c.Oracle.CoinGeckoURL, getEnv("TRADEDESK_COINGECKO_URL", ""))
	c.Bots.SimulateProfit = parseBoolEnv("TRADEDESK_SIMULATE_PROFIT", c.Bots.SimulateProfit)
	c.Bots.SeedOnStart = parseBoolEnv("TRADEDESK_SEED_DEMO_BOTS", c.Bots.SeedOnStart)
	setString(&c.LogLevel, getEnv("LOG_LEVEL", ""))
	setString(&c.LogFile, getEnv("LOG_FILE", ""))

	var err error
	if c.Auth.TokenTTL, err = parseDurationEnv("TRADEDESK_TOKEN_TTL", c.Auth.TokenTTL); err != nil {
		return err
	}
	if c.Oracle.CacheTTL, err = parseDurationEnv("TRADEDESK_ORACLE_CACHE_TTL", c.Oracle.CacheTTL); err != nil {
		return err
	}
	if c.Market.StreamInterval, err = parseDurationEnv("TRADEDESK_STREAM_INTERVAL", c.Market.StreamInterval); err != nil {
		return err
	}
	return nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Listen) == "" {
		return fmt.Errorf("listen address is required")
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres, DriverBadger, DriverMongo:
		if strings.TrimSpace(c.Store.DSN) == "" {
			return fmt.Errorf("store dsn is required for driver %s", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver: %q", c.Store.Driver)
	}
	if c.Store.Driver == DriverMongo && strings.TrimSpace(c.Store.Database) == "" {
		return fmt.Errorf("DB_NAME is required for mongo")
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}
	// bcrypt.MinCost..bcrypt.MaxCost
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}
	if c.Auth.LoginPerMinute <= 0 {
		return fmt.Errorf("login rate must be positive")
	}
	switch c.Oracle.Kind {
	case OracleSimulated:
	case OracleCoinGecko:
		if strings.TrimSpace(c.Oracle.CoinGeckoURL) == "" {
			return fmt.Errorf("coingecko url is required")
		}
	default:
		return fmt.Errorf("unknown oracle: %q", c.Oracle.Kind)
	}
	if c.Market.StreamInterval <= 0 {
		return fmt.Errorf("stream interval must be positive")
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv 解析整数环境变量
func parseIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// parseBoolEnv 解析布尔环境变量
func parseBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
