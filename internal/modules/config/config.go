package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatTelegramENV   = "TELEGRAM_CHAT_ID"
	databaseDSN       = "DATABASE_DSN"
	binanceKeyENV     = "BINANCE_API_KEY"
	binanceSecretENV  = "BINANCE_SECRET_KEY"
)

// Funding filter modes.
const (
	FundingFilterBoth     = "both"
	FundingFilterLongOnly = "long_only"
	FundingFilterOff      = "off"
)

// Behaviour when the open position ceiling is hit at cycle start.
const (
	CeilingTerminate = "terminate"
	CeilingPause     = "pause"
)

// Behaviour when the entry is live but a protective leg failed.
const (
	PartialBracketSkip  = "skip"
	PartialBracketTrack = "track"
)

// Journal drivers.
const (
	JournalPostgres = "postgres"
	JournalSQLite   = "sqlite"
	JournalNone     = "none"
)

// Config ...
type Config struct {
	LogLevel string `yaml:"log_level"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Binance struct {
		APIKey             string        `yaml:"api_key"`
		SecretKey          string        `yaml:"secret_key"`
		BaseURL            string        `yaml:"base_url"`
		StreamURL          string        `yaml:"stream_url"`
		HedgeMode          bool          `yaml:"hedge_mode"`
		RateLimitPerSecond float64       `yaml:"rate_limit_per_second"`
		RateBurst          int           `yaml:"rate_burst"`
		CallTimeout        time.Duration `yaml:"call_timeout"`
	} `yaml:"binance"`

	DB      string `yaml:"db_dsn"`
	Journal struct {
		Driver     string `yaml:"driver"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"journal"`

	Service struct {
		Host      string `yaml:"host"`
		AdminPort int    `yaml:"admin_port"`
	} `yaml:"service"`

	Tracing struct {
		Enabled    bool    `yaml:"enabled"`
		Host       string  `yaml:"host"`
		Port       int     `yaml:"port"`
		SampleRate float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Strategy Strategy `yaml:"strategy"`
	Trading  Trading  `yaml:"trading"`
	Scanner  Scanner  `yaml:"scanner"`

	// malformed environment overrides, reported by Validate
	envErrs []error
}

// Strategy holds indicator and entry parameters.
type Strategy struct {
	Interval           string  `yaml:"interval"`
	KlinesLimit        int     `yaml:"klines_limit"`
	BollingerPeriod    int     `yaml:"bollinger_period"`
	BollingerDeviation float64 `yaml:"bollinger_deviation"`
	RSIPeriod          int     `yaml:"rsi_period"`
	RSIOversold        float64 `yaml:"rsi_oversold"`
	RSIOverbought      float64 `yaml:"rsi_overbought"`
	EntryOffsetPct     float64 `yaml:"entry_offset_pct"` // 0.01 => entry 1% beyond the band
	StopLossPct        float64 `yaml:"stop_loss_pct"`
	TakeProfitPct      float64 `yaml:"take_profit_pct"`
	MinQuoteVolume     float64 `yaml:"min_quote_volume"`
	FundingFilter      string  `yaml:"funding_filter"`
}

// Trading holds risk, scheduling and policy switches.
type Trading struct {
	RiskFraction            float64       `yaml:"risk_fraction"`
	QuoteAsset              string        `yaml:"quote_asset"`
	ExcludedSymbols         []string      `yaml:"excluded_symbols"`
	MaxOpenPositions        int           `yaml:"max_open_positions"`
	ScanInterval            time.Duration `yaml:"scan_interval"`
	CycleTimeout            time.Duration `yaml:"cycle_timeout"`
	ResignalInterval        time.Duration `yaml:"resignal_interval"`
	ResignalOnPlacementOnly bool          `yaml:"resignal_on_placement_only"`
	CooldownAfterClose      time.Duration `yaml:"cooldown_after_close"`
	CooldownOnStopLoss      bool          `yaml:"cooldown_on_stop_loss"`
	CeilingPolicy           string        `yaml:"ceiling_policy"`
	PartialBracketPolicy    string        `yaml:"partial_bracket_policy"`
	InstrumentsRefresh      string        `yaml:"instruments_refresh"`
	UseStream               bool          `yaml:"use_stream"`
}

// Scanner configures the notify-only scanner.
type Scanner struct {
	Timeframes     []Timeframe   `yaml:"timeframes"`
	MaxConcurrent  int           `yaml:"max_concurrent"`
	MinQuoteVolume float64       `yaml:"min_quote_volume"`
	Pause          time.Duration `yaml:"pause"`
}

// Timeframe is an interval together with its re-alert wait.
type Timeframe struct {
	Interval string        `yaml:"interval"`
	Wait     time.Duration `yaml:"wait"`
}

// Default returns the reference configuration.
func Default() Config {
	var cfg Config
	cfg.LogLevel = "info"
	cfg.Binance.HedgeMode = true
	cfg.Binance.RateLimitPerSecond = 8
	cfg.Binance.RateBurst = 8
	cfg.Binance.CallTimeout = 30 * time.Second
	cfg.Binance.StreamURL = "wss://fstream.binance.com/stream"
	cfg.Journal.Driver = JournalNone
	cfg.Journal.SQLitePath = "journal.db"
	cfg.Service.AdminPort = 8080
	cfg.Tracing.Host = "localhost"
	cfg.Tracing.Port = 6831

	cfg.Strategy = Strategy{
		Interval:           "5m",
		KlinesLimit:        48,
		BollingerPeriod:    20,
		BollingerDeviation: 3.0,
		RSIPeriod:          14,
		RSIOversold:        30,
		RSIOverbought:      70,
		EntryOffsetPct:     0.01,
		StopLossPct:        0.02,
		TakeProfitPct:      0.03,
		MinQuoteVolume:     100_000_000,
		FundingFilter:      FundingFilterBoth,
	}
	cfg.Trading = Trading{
		RiskFraction:         0.01,
		QuoteAsset:           "USDT",
		ExcludedSymbols:      []string{"USDCUSDT", "BTCUSDT", "ETHUSDT", "SOLUSDT", "ANIMEUSDT", "BNBUSDT"},
		MaxOpenPositions:     10,
		ScanInterval:         60 * time.Second,
		CycleTimeout:         10 * time.Minute,
		ResignalInterval:     300 * time.Second,
		CooldownAfterClose:   900 * time.Second,
		CeilingPolicy:        CeilingTerminate,
		PartialBracketPolicy: PartialBracketSkip,
		InstrumentsRefresh:   "@every 1h",
	}
	cfg.Scanner = Scanner{
		Timeframes: []Timeframe{
			{Interval: "5m", Wait: 5 * time.Minute},
			{Interval: "15m", Wait: 15 * time.Minute},
			{Interval: "1h", Wait: time.Hour},
			{Interval: "4h", Wait: 4 * time.Hour},
		},
		MaxConcurrent:  5,
		MinQuoteVolume: 50_000_000,
		Pause:          30 * time.Second,
	}
	return cfg
}

// NewConfig reads configs/$CONFIG_FILE (values_local.yaml by default).
func NewConfig() (*Config, error) {
	configFileName := getenvDefault(configFilePathENV, "values_local.yaml")
	return Load("configs/" + configFileName)
}

// Load decodes path over the defaults, then applies environment overrides.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	config := Default()
	if err = yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}
	config.applyEnv()

	if err = config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyEnv() {
	c.Telegram.Token = getenvDefault(tokenTelegramENV, c.Telegram.Token)
	c.Telegram.ChatID = c.int64FromEnv(chatTelegramENV, c.Telegram.ChatID)
	c.DB = getenvDefault(databaseDSN, c.DB)
	c.Binance.APIKey = getenvDefault(binanceKeyENV, c.Binance.APIKey)
	c.Binance.SecretKey = getenvDefault(binanceSecretENV, c.Binance.SecretKey)
	c.LogLevel = getenvDefault("LOG_LEVEL", c.LogLevel)

	c.Trading.RiskFraction = c.floatFromEnv("RISK_FRACTION", c.Trading.RiskFraction)
	c.Trading.MaxOpenPositions = c.intFromEnv("MAX_OPEN_POSITIONS", c.Trading.MaxOpenPositions)
	c.Trading.ScanInterval = c.durationFromEnv("SCAN_INTERVAL", c.Trading.ScanInterval)
	c.Trading.CeilingPolicy = getenvDefault("CEILING_POLICY", c.Trading.CeilingPolicy)
	c.Trading.CooldownOnStopLoss = c.boolFromEnv("COOLDOWN_ON_STOP_LOSS", c.Trading.CooldownOnStopLoss)
	c.Strategy.FundingFilter = getenvDefault("FUNDING_FILTER", c.Strategy.FundingFilter)
	c.Journal.Driver = getenvDefault("JOURNAL_DRIVER", c.Journal.Driver)
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.envErrs...)
	if c.Trading.RiskFraction <= 0 || c.Trading.RiskFraction >= 1 {
		errs = append(errs, fmt.Errorf("trading.risk_fraction must be in (0,1), got %v", c.Trading.RiskFraction))
	}
	if c.Trading.MaxOpenPositions <= 0 {
		errs = append(errs, fmt.Errorf("trading.max_open_positions must be positive"))
	}
	if c.Trading.ScanInterval <= 0 {
		errs = append(errs, fmt.Errorf("trading.scan_interval must be positive"))
	}
	if c.Strategy.BollingerPeriod < 2 || c.Strategy.RSIPeriod < 2 {
		errs = append(errs, fmt.Errorf("strategy periods must be at least 2"))
	}
	if c.Strategy.KlinesLimit < c.Strategy.BollingerPeriod || c.Strategy.KlinesLimit <= c.Strategy.RSIPeriod {
		errs = append(errs, fmt.Errorf("strategy.klines_limit %d is shorter than the indicator windows", c.Strategy.KlinesLimit))
	}
	if c.Strategy.StopLossPct <= 0 || c.Strategy.TakeProfitPct <= 0 {
		errs = append(errs, fmt.Errorf("strategy stop/take-profit percentages must be positive"))
	}
	if !oneOf(c.Strategy.FundingFilter, FundingFilterBoth, FundingFilterLongOnly, FundingFilterOff) {
		errs = append(errs, fmt.Errorf("unknown strategy.funding_filter %q", c.Strategy.FundingFilter))
	}
	if !oneOf(c.Trading.CeilingPolicy, CeilingTerminate, CeilingPause) {
		errs = append(errs, fmt.Errorf("unknown trading.ceiling_policy %q", c.Trading.CeilingPolicy))
	}
	if !oneOf(c.Trading.PartialBracketPolicy, PartialBracketSkip, PartialBracketTrack) {
		errs = append(errs, fmt.Errorf("unknown trading.partial_bracket_policy %q", c.Trading.PartialBracketPolicy))
	}
	if !oneOf(c.Journal.Driver, JournalPostgres, JournalSQLite, JournalNone) {
		errs = append(errs, fmt.Errorf("unknown journal.driver %q", c.Journal.Driver))
	}
	return errors.Join(errs...)
}

// Excluded returns the denylist as a set.
func (c *Config) Excluded() map[string]struct{} {
	out := make(map[string]struct{}, len(c.Trading.ExcludedSymbols))
	for _, s := range c.Trading.ExcludedSymbols {
		out[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
	}
	return out
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

func (c *Config) intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.envErrs = append(c.envErrs, fmt.Errorf("env %s=%q: %w", key, v, err))
			return def
		}
		return n
	}
	return def
}

func (c *Config) int64FromEnv(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.envErrs = append(c.envErrs, fmt.Errorf("env %s=%q: %w", key, v, err))
			return def
		}
		return n
	}
	return def
}

func (c *Config) floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.envErrs = append(c.envErrs, fmt.Errorf("env %s=%q: %w", key, v, err))
			return def
		}
		return f
	}
	return def
}

func (c *Config) boolFromEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.envErrs = append(c.envErrs, fmt.Errorf("env %s=%q: %w", key, v, err))
			return def
		}
		return b
	}
	return def
}

func (c *Config) durationFromEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			c.envErrs = append(c.envErrs, fmt.Errorf("env %s=%q: %w", key, v, err))
			return def
		}
		return d
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
