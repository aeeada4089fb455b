// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server settings,
// logging, persistence, Solana ledger access, coupon economics, the Telegram
// integration, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings for the
// non-action routes. Action endpoints always use the protocol headers.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// SolanaConfig defines ledger access and coupon economics.
type SolanaConfig struct {
	RPCEndpoint        string // SOLANA_RPC
	RecipientAddress   string // RECIPIENT_ADDRESS (receives payments and fees)
	PaymentLamports    uint64 // PAYMENT_LAMPORTS (coupon price)
	AnalyzeFeeLamports uint64 // ANALYZE_FEE_LAMPORTS
}

// TelegramConfig defines the Bot API integration for coupon redemption.
type TelegramConfig struct {
	BotToken      string // TELEGRAM_BOT_TOKEN (empty disables sending)
	RewardURL     string // REWARD_URL delivered on successful redemption
	CollectWallet bool   // COLLECT_WALLET enables the wallet step
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool

	// App
	DBPath       string        // SQLite path
	ExpiryWindow time.Duration // coupon lifetime from issuance
	MaxAttempts  int           // issuance retry budget

	Solana   SolanaConfig
	Telegram TelegramConfig

	// Rate limiting
	RateRPS   float64
	RateBurst int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// App
		DBPath:       getenv("DB_PATH", "app.db"),
		ExpiryWindow: getdur("COUPON_EXPIRY_WINDOW", 24*time.Hour),
		MaxAttempts:  getint("COUPON_MAX_ATTEMPTS", 10),

		Solana: SolanaConfig{
			RPCEndpoint:        getenv("SOLANA_RPC", "https://api.mainnet-beta.solana.com"),
			RecipientAddress:   getenv("RECIPIENT_ADDRESS", "2KsTX7z6AFR5cMjNuiWmrBSPHPk3F3tb7K5Fw14iek3t"),
			PaymentLamports:    getuint("PAYMENT_LAMPORTS", 5_800_000),
			AnalyzeFeeLamports: getuint("ANALYZE_FEE_LAMPORTS", 1_000_000),
		},

		Telegram: TelegramConfig{
			BotToken:      getenv("TELEGRAM_BOT_TOKEN", ""),
			RewardURL:     getenv("REWARD_URL", "https://www.helius.dev/"),
			CollectWallet: getbool("COLLECT_WALLET", true),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "actions-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.ExpiryWindow <= 0 {
		return cfg, errors.New("COUPON_EXPIRY_WINDOW must be > 0")
	}
	if cfg.MaxAttempts < 1 {
		return cfg, errors.New("COUPON_MAX_ATTEMPTS must be >= 1")
	}
	if strings.TrimSpace(cfg.Solana.RPCEndpoint) == "" {
		return cfg, errors.New("SOLANA_RPC must not be empty")
	}
	if strings.TrimSpace(cfg.Solana.RecipientAddress) == "" {
		return cfg, errors.New("RECIPIENT_ADDRESS must not be empty")
	}
	if cfg.Solana.PaymentLamports == 0 {
		return cfg, errors.New("PAYMENT_LAMPORTS must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getuint(k string, def uint64) uint64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if u, err := strconv.ParseUint(v, 10, 64); err == nil {
			return u
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
