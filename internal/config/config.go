// Package config loads the service configuration from YAML, then applies
// .env and environment overrides, struct-tag defaults and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	App         AppConfig         `yaml:"app"`
	Log         LogConfig         `yaml:"log"`
	HTTP        HTTPConfig        `yaml:"http"`
	Instruments InstrumentsConfig `yaml:"instruments"`
	Intervals   IntervalsConfig   `yaml:"intervals"`
	Collector   CollectorConfig   `yaml:"collector"`
	Providers   ProvidersConfig   `yaml:"providers"`
	Hub         HubConfig         `yaml:"hub"`
	Redis       RedisConfig       `yaml:"redis"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Telegram    TelegramConfig    `yaml:"telegram"`
	Database    DatabaseConfig    `yaml:"database"`
}

type AppConfig struct {
	Name       string `yaml:"name" default:"minees"`
	RunOnStart bool   `yaml:"run_on_start" default:"true"`
	// Timezone drives the time-of-day heuristic and market hours.
	Timezone string `yaml:"timezone" default:"UTC" validate:"timezone"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" default:"json" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stdout"`
}

type HTTPConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"3000" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	CORS            bool          `yaml:"cors" default:"true"`
}

type InstrumentsConfig struct {
	Crypto []string `yaml:"crypto" default:"[\"BTCUSDT\",\"ETHUSDT\",\"ADAUSDT\",\"DOTUSDT\",\"LINKUSDT\",\"UNIUSDT\",\"AAVEUSDT\",\"SOLUSDT\"]" validate:"dive,required,uppercase"`
	Forex  []string `yaml:"forex" default:"[\"EURUSD\",\"GBPUSD\",\"AUDCAD\",\"USDJPY\",\"USDCAD\",\"NZDUSD\",\"EURGBP\",\"AUDUSD\"]" validate:"dive,len=6,uppercase"`
	OTC    []string `yaml:"otc" default:"[\"OTC_EURUSD\",\"OTC_GBPUSD\",\"OTC_AUDCAD\",\"OTC_USDJPY\",\"OTC_USDCAD\",\"OTC_NZDUSD\",\"OTC_EURGBP\",\"OTC_AUDUSD\"]" validate:"dive,startswith=OTC_"`
}

type IntervalsConfig struct {
	Crypto time.Duration `yaml:"crypto" default:"5m" validate:"min=1s"`
	Forex  time.Duration `yaml:"forex" default:"15m" validate:"min=1s"`
	OTC    time.Duration `yaml:"otc" default:"15m" validate:"min=1s"`
}

type CollectorConfig struct {
	Mode            string        `yaml:"mode" default:"live" validate:"oneof=live mock"`
	Proxy           string        `yaml:"proxy" validate:"omitempty,url"`
	HistoryLimit    int           `yaml:"history_limit" default:"100" validate:"min=1,max=1000"`
	HistoryCacheTTL time.Duration `yaml:"history_cache_ttl" default:"2m"`
}

// ProviderConfig is shared by every upstream. RateLimit is requests per
// second; zero disables limiting.
type ProviderConfig struct {
	BaseURL   string        `yaml:"base_url" validate:"omitempty,url"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout" default:"10s" validate:"min=1s"`
	RateLimit float64       `yaml:"rate_limit" validate:"min=0"`
	Burst     int           `yaml:"burst" default:"1" validate:"min=1"`
}

type ExchangeRateConfig struct {
	ProviderConfig `yaml:",inline"`
	HistoryURL     string   `yaml:"history_url" validate:"omitempty,url"`
	Keys           []string `yaml:"keys"`
}

type ProvidersConfig struct {
	Binance      ProviderConfig     `yaml:"binance"`
	CoinGecko    ProviderConfig     `yaml:"coingecko"`
	CoinGeckoIDs map[string]string  `yaml:"coingecko_ids"`
	CoinCap      ProviderConfig     `yaml:"coincap"`
	CoinCapIDs   map[string]string  `yaml:"coincap_ids"`
	AlphaVantage ProviderConfig     `yaml:"alphavantage"`
	ExchangeRate ExchangeRateConfig `yaml:"exchangerate"`
	Yahoo        ProviderConfig     `yaml:"yahoo"`
	Fixer        ProviderConfig     `yaml:"fixer"`
}

type HubConfig struct {
	ClientBuffer int `yaml:"client_buffer" default:"64" validate:"min=1"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr" default:"localhost:6379" validate:"required_if=Enabled true"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"min=0"`
}

type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers" validate:"required_if=Enabled true"`
	Topic        string   `yaml:"topic" default:"minees.signals"`
	Compression  string   `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
	RequiredAcks int      `yaml:"required_acks" default:"1" validate:"oneof=-1 0 1"`
}

type TelegramConfig struct {
	Enabled       bool   `yaml:"enabled"`
	BotToken      string `yaml:"bot_token" validate:"required_if=Enabled true"`
	ChatID        string `yaml:"chat_id" validate:"required_if=Enabled true"`
	MinConfidence int    `yaml:"min_confidence" default:"60" validate:"min=0,max=100"`
	SendNeutral   bool   `yaml:"send_neutral"`
	MaxRetries    int    `yaml:"max_retries" default:"2" validate:"min=0"`
	Polling       bool   `yaml:"polling" default:"true"`
}

type DatabaseConfig struct {
	// SQLitePath enables the provider journal; empty disables it.
	SQLitePath string `yaml:"sqlite_path"`
}

// Load reads .env and the YAML file at path (a missing file is not an
// error), then applies environment overrides, defaults and validation.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	providerDefaults(&cfg.Providers)

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg, os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// providerDefaults sets per-provider values that differ from the shared
// ProviderConfig tags. The YAML file may still override them.
func providerDefaults(p *ProvidersConfig) {
	p.Binance.Timeout = 15 * time.Second
	p.Binance.RateLimit, p.Binance.Burst = 10, 10
	// Public CoinGecko allows roughly 30 calls a minute.
	p.CoinGecko.RateLimit, p.CoinGecko.Burst = 0.5, 5
	p.AlphaVantage.RateLimit, p.AlphaVantage.Burst = 5.0/60, 5
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = splitList(v)
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("TZ_NAME", &cfg.App.Timezone)
	boolean("RUN_ON_START", &cfg.App.RunOnStart)
	if v, ok := lookup("PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Port = port
		}
	}

	list("CRYPTO_PAIRS", &cfg.Instruments.Crypto)
	list("FOREX_PAIRS", &cfg.Instruments.Forex)
	list("OTC_PAIRS", &cfg.Instruments.OTC)

	str("COLLECTOR_MODE", &cfg.Collector.Mode)
	str("HTTPS_PROXY", &cfg.Collector.Proxy)
	str("BINANCE_API_KEY", &cfg.Providers.Binance.APIKey)
	str("ALPHA_VANTAGE_API_KEY", &cfg.Providers.AlphaVantage.APIKey)
	str("FIXER_API_KEY", &cfg.Providers.Fixer.APIKey)
	list("EXCHANGE_RATE_API_KEYS", &cfg.Providers.ExchangeRate.Keys)

	if v, ok := lookup("REDIS_ADDR"); ok && v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		cfg.Kafka.Brokers = splitList(v)
		cfg.Kafka.Enabled = true
	}
	str("KAFKA_TOPIC", &cfg.Kafka.Topic)

	if v, ok := lookup("TELEGRAM_BOT_TOKEN"); ok && v != "" {
		cfg.Telegram.BotToken = v
		cfg.Telegram.Enabled = true
	}
	str("TELEGRAM_CHAT_ID", &cfg.Telegram.ChatID)
	str("SQLITE_PATH", &cfg.Database.SQLitePath)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var validate = validator.New()

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if len(c.Instruments.Crypto)+len(c.Instruments.Forex)+len(c.Instruments.OTC) == 0 {
		return fmt.Errorf("config validation: at least one instrument is required")
	}
	return nil
}

// Location resolves App.Timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
