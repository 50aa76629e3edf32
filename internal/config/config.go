package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SqueezeAlert/internal/calculate"
	"github.com/Alias1177/SqueezeAlert/internal/format"
	"github.com/Alias1177/SqueezeAlert/models"
)

// Data sources
const (
	SourceCoinbase = "coinbase"
	SourceBinance  = "binance"
)

// Send frequencies
const (
	SendFirst = "first"
	SendEach  = "each"
)

var defaultSymbols = []string{
	"BTC-USD", "ETH-USD", "SOL-USD", "AVAX-USD", "XRP-USD",
	"ADA-USD", "LTC-USD", "DOGE-USD", "LINK-USD", "MATIC-USD",
}

// Config holds all application configuration
type Config struct {
	Symbols        []string         `toml:"symbols"`
	Timeframe      models.Timeframe `toml:"timeframe"`
	MaxCandles     int              `toml:"max_candles"`
	Source         string           `toml:"data_source"`
	MinSeriesLen   int              `toml:"min_series_len"` // job-level skip threshold
	Concurrency    int              `toml:"concurrency"`
	RequestTimeout int              `toml:"request_timeout"` // seconds
	LogLevel       string           `toml:"log_level"`

	Strategy models.SqueezeParams `toml:"squeeze"`

	EntryUseBuffer bool      `toml:"entry_use_buffer"`
	EntryBufferATR float64   `toml:"entry_buffer_atr"`
	SLATRMult      float64   `toml:"sl_atr_mult"`
	TPMults        []float64 `toml:"tp_mults"`
	RoundingMode   string    `toml:"rounding_mode"`
	FixedDecimals  int       `toml:"fixed_decimals"`

	TelegramBotToken   string   `toml:"-"`
	TelegramChatIDs    []string `toml:"telegram_chat_ids"`
	TelegramThrottleMS int      `toml:"telegram_throttle_ms"`

	TimeZone      string `toml:"tz"`
	SendFrequency string `toml:"send_frequency"`
	SkipIfNoFresh bool   `toml:"skip_if_no_fresh"`

	DBHost     string `toml:"-"`
	DBPort     string `toml:"-"`
	DBUser     string `toml:"-"`
	DBPassword string `toml:"-"`
	DBName     string `toml:"-"`
	DBSSLMode  string `toml:"-"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Symbols:            append([]string(nil), defaultSymbols...),
		Timeframe:          models.M15,
		MaxCandles:         400,
		Source:             SourceCoinbase,
		MinSeriesLen:       100,
		Concurrency:        4,
		RequestTimeout:     20,
		LogLevel:           "info",
		Strategy:           models.DefaultSqueezeParams(),
		EntryUseBuffer:     true,
		EntryBufferATR:     0.10,
		SLATRMult:          1.5,
		TPMults:            []float64{1, 2, 3},
		RoundingMode:       format.RoundingAuto,
		FixedDecimals:      2,
		TelegramThrottleMS: 1100,
		TimeZone:           "Europe/Riga",
		SendFrequency:      SendFirst,
		SkipIfNoFresh:      true,
		DBPort:             "5432",
		DBSSLMode:          "disable",
	}
}

// Load initializes configuration from the defaults, an optional TOML file
// named by CONFIG_FILE and then environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.loadEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() {
	c.Symbols = getEnvListWithDefault("SYMBOLS", c.Symbols)
	c.Timeframe = models.Timeframe(strings.ToUpper(getEnvWithDefault("TIMEFRAME", string(c.Timeframe))))
	c.MaxCandles = getEnvIntWithDefault("MAX_CANDLES", c.MaxCandles)
	c.Source = strings.ToLower(getEnvWithDefault("DATA_SOURCE", c.Source))
	c.MinSeriesLen = getEnvIntWithDefault("MIN_SERIES_LEN", c.MinSeriesLen)
	c.Concurrency = getEnvIntWithDefault("CONCURRENCY", c.Concurrency)
	c.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", c.RequestTimeout)
	c.LogLevel = getEnvWithDefault("LOG_LEVEL", c.LogLevel)

	s := &c.Strategy
	s.BBPeriod = getEnvIntWithDefault("BB_PERIOD", s.BBPeriod)
	s.BBStdDev = getEnvFloatWithDefault("BB_STD", s.BBStdDev)
	s.ATRPeriod = getEnvIntWithDefault("ATR_PERIOD", s.ATRPeriod)
	s.KeltnerATRMult = getEnvFloatWithDefault("KELTNER_ATR_MULT", s.KeltnerATRMult)
	s.VolSMAWindow = getEnvIntWithDefault("VOL_SMA_WIN", s.VolSMAWindow)
	s.VolMinMult = getEnvFloatWithDefault("VOL_MIN_MULT", s.VolMinMult)
	s.UseMAFilter = getEnvBoolWithDefault("USE_MA_FILTER", s.UseMAFilter)
	s.MAFast = getEnvIntWithDefault("MA_FAST", s.MAFast)
	s.MASlow = getEnvIntWithDefault("MA_SLOW", s.MASlow)
	s.UseRSIFilter = getEnvBoolWithDefault("USE_RSI_FILTER", s.UseRSIFilter)
	s.RSIPeriod = getEnvIntWithDefault("RSI_PERIOD", s.RSIPeriod)
	s.RSILongMin = getEnvFloatWithDefault("RSI_LONG_MIN", s.RSILongMin)
	s.RSIShortMax = getEnvFloatWithDefault("RSI_SHORT_MAX", s.RSIShortMax)
	s.UseADXFilter = getEnvBoolWithDefault("USE_ADX_FILTER", s.UseADXFilter)
	s.ADXPeriod = getEnvIntWithDefault("ADX_PERIOD", s.ADXPeriod)
	s.ADXMin = getEnvFloatWithDefault("ADX_MIN", s.ADXMin)
	s.MinBars = getEnvIntWithDefault("MIN_BARS", s.MinBars)

	c.EntryUseBuffer = getEnvBoolWithDefault("ENTRY_USE_BUFFER", c.EntryUseBuffer)
	c.EntryBufferATR = getEnvFloatWithDefault("ENTRY_BUFFER_ATR", c.EntryBufferATR)
	c.SLATRMult = getEnvFloatWithDefault("SL_ATR_MULT", c.SLATRMult)
	c.TPMults = getEnvFloatListWithDefault("TP_MULTS", c.TPMults)
	c.RoundingMode = strings.ToLower(getEnvWithDefault("ROUNDING_MODE", c.RoundingMode))
	c.FixedDecimals = getEnvIntWithDefault("FIXED_DECIMALS", c.FixedDecimals)

	c.TelegramBotToken = getEnvWithDefault("TELEGRAM_BOT_TOKEN", c.TelegramBotToken)
	c.TelegramChatIDs = getEnvListWithDefault("TELEGRAM_CHAT_ID", c.TelegramChatIDs)
	c.TelegramThrottleMS = getEnvIntWithDefault("TELEGRAM_THROTTLE_MS", c.TelegramThrottleMS)

	c.TimeZone = getEnvWithDefault("TZ", c.TimeZone)
	c.SendFrequency = strings.ToLower(getEnvWithDefault("SEND_FREQUENCY", c.SendFrequency))
	c.SkipIfNoFresh = getEnvBoolWithDefault("SKIP_IF_NO_FRESH", c.SkipIfNoFresh)

	c.DBHost = getEnvWithDefault("DB_HOST", c.DBHost)
	c.DBPort = getEnvWithDefault("DB_PORT", c.DBPort)
	c.DBUser = getEnvWithDefault("DB_USER", c.DBUser)
	c.DBPassword = getEnvWithDefault("DB_PASSWORD", c.DBPassword)
	c.DBName = getEnvWithDefault("DB_NAME", c.DBName)
	c.DBSSLMode = getEnvWithDefault("DB_SSLMODE", c.DBSSLMode)
}

// Validate reports every configuration problem at once
func (c *Config) Validate() error {
	var errs []error

	if len(c.Symbols) == 0 {
		errs = append(errs, errors.New("no symbols configured"))
	}
	if _, err := models.ParseTimeframe(string(c.Timeframe)); err != nil {
		errs = append(errs, err)
	}
	if c.Source != SourceCoinbase && c.Source != SourceBinance {
		errs = append(errs, fmt.Errorf("unknown data source %q", c.Source))
	}
	if c.MaxCandles <= 0 {
		errs = append(errs, fmt.Errorf("MAX_CANDLES must be positive, got %d", c.MaxCandles))
	}
	if c.MinSeriesLen < 0 {
		errs = append(errs, fmt.Errorf("MIN_SERIES_LEN cannot be negative, got %d", c.MinSeriesLen))
	}
	if c.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("CONCURRENCY must be positive, got %d", c.Concurrency))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %d", c.RequestTimeout))
	}
	if err := calculate.ValidateParams(c.Strategy); err != nil {
		errs = append(errs, err)
	}
	if c.SLATRMult <= 0 {
		errs = append(errs, fmt.Errorf("SL_ATR_MULT must be positive, got %v", c.SLATRMult))
	}
	if c.RoundingMode != format.RoundingAuto && c.RoundingMode != format.RoundingFixed {
		errs = append(errs, fmt.Errorf("unknown rounding mode %q", c.RoundingMode))
	}
	if c.FixedDecimals < 0 {
		errs = append(errs, fmt.Errorf("FIXED_DECIMALS cannot be negative, got %d", c.FixedDecimals))
	}
	if c.SendFrequency != SendFirst && c.SendFrequency != SendEach {
		errs = append(errs, fmt.Errorf("unknown send frequency %q", c.SendFrequency))
	}
	if c.TelegramThrottleMS < 0 {
		errs = append(errs, fmt.Errorf("TELEGRAM_THROTTLE_MS cannot be negative, got %d", c.TelegramThrottleMS))
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("loading time zone %q: %w", c.TimeZone, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Squeeze returns the strategy parameters as an immutable value
func (c *Config) Squeeze() models.SqueezeParams {
	return c.Strategy
}

// Levels returns the message rendering options
func (c *Config) Levels() format.Options {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		loc = time.UTC
	}
	return format.Options{
		EntryUseBuffer: c.EntryUseBuffer,
		EntryBufferATR: c.EntryBufferATR,
		SLATRMult:      c.SLATRMult,
		TPMults:        append([]float64(nil), c.TPMults...),
		RoundingMode:   c.RoundingMode,
		FixedDecimals:  c.FixedDecimals,
		Location:       loc,
	}
}

// JournalEnabled reports whether a Postgres alert journal is configured
func (c *Config) JournalEnabled() bool {
	return c.DBHost != ""
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid number, using default")
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes":
			return true
		default:
			return false
		}
	}
	return defaultValue
}

// getEnvListWithDefault splits a comma-separated list, dropping blanks
func getEnvListWithDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvFloatListWithDefault(key string, defaultValue []float64) []float64 {
	items := getEnvListWithDefault(key, nil)
	if items == nil {
		return defaultValue
	}
	out := make([]float64, 0, len(items))
	for _, item := range items {
		f, err := strconv.ParseFloat(item, 64)
		if err != nil {
			log.Warn().Str("key", key).Str("value", item).Msg("Invalid number in list, using default")
			return defaultValue
		}
		out = append(out, f)
	}
	return out
}
