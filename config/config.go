package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Betting pool configuration
	MinOdds            float64         // Lowest decimal odds a pool may quote
	MaxOdds            float64         // Highest decimal odds a pool may quote
	DefaultInitialOdds float64         // Odds assigned to an outcome with no stake and no supplied odds
	DefaultHouseEdge   float64         // Fraction of the pool retained at settlement
	MaxBetPerUser      decimal.Decimal // Per-user stake cap per outcome
	MaxPoolSize        decimal.Decimal // Total stake cap per pool

	// Reward distribution configuration
	MaxRewardPoolSize decimal.Decimal
	StreakThreshold   int     // Streak length at which the streak bonus applies
	StreakMultiplier  float64 // Multiplier for the streak bonus
	ReferralRate      float64 // Fraction of a referee's allocation credited to the referrer

	// VRF configuration
	VRFPrivateKeyHex string        // secp256k1 signing key; generated at startup when empty
	VRFResultTTL     time.Duration // Retention for cached randomness results
	EntropyRPCURL    string        // Solana-style JSON-RPC endpoint for slot/blockhash entropy
	EntropyTimeout   time.Duration // Per-call entropy lookup timeout

	// Settlement execution configuration
	SettlementServiceURL string
	SettlementCurrency   string
	SettlementTimeout    time.Duration

	// Anti-manipulation monitor configuration
	HistoryWindow          time.Duration // Rolling bet history retained per user
	AlertCooldown          time.Duration // Suppression window for repeated alerts of the same key
	RapidBetThreshold      int           // Bets within RapidBetWindow that trigger an alert
	RapidBetWindow         time.Duration
	CoordinationMinWallets int     // Distinct wallets required before coordination scoring
	CoordinationWindow     time.Duration
	CoordinationThreshold  float64
	WashTradeThreshold     float64
	InsiderThreshold       float64
	InsiderEventWindow     time.Duration // Pre-event window considered suspicious
	FarmingMinAccountAge   time.Duration // Accounts younger than this are farming candidates
	FarmingMinSimilar      int           // Similar young accounts required for an alert
	FarmingThreshold       float64
	BotCVThreshold         float64 // Coefficient-of-variation floor for human-like timing
	BotScoreThreshold      float64

	// Persistence configuration
	StoreBackend string // "postgres", "badger" or "memory"
	DatabaseURL  string
	DatabaseName string
	BadgerDir    string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated)

	// OpenTelemetry configuration
	OTelEnabled      bool
	OTelServiceName  string
	OTelExporterType string // "otlp" or "console"
	OTelEndpoint     string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			// In test environment, use a default test config instead of panicking
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Betting pool defaults
		MinOdds:            getEnvFloat("MIN_ODDS", 1.01),
		MaxOdds:            getEnvFloat("MAX_ODDS", 50.0),
		DefaultInitialOdds: getEnvFloat("DEFAULT_INITIAL_ODDS", 2.0),
		DefaultHouseEdge:   getEnvFloat("DEFAULT_HOUSE_EDGE", 0.05),
		MaxBetPerUser:      getEnvDecimal("MAX_BET_PER_USER", "10000"),
		MaxPoolSize:        getEnvDecimal("MAX_POOL_SIZE", "1000000"),

		// Reward defaults
		MaxRewardPoolSize: getEnvDecimal("MAX_REWARD_POOL_SIZE", "5000000"),
		StreakThreshold:   getEnvInt("STREAK_THRESHOLD", 3),
		StreakMultiplier:  getEnvFloat("STREAK_MULTIPLIER", 1.25),
		ReferralRate:      getEnvFloat("REFERRAL_RATE", 0.05),

		// VRF
		VRFPrivateKeyHex: os.Getenv("VRF_PRIVATE_KEY"),
		VRFResultTTL:     getEnvDuration("VRF_RESULT_TTL", time.Hour),
		EntropyRPCURL:    getEnvWithDefault("ENTROPY_RPC_URL", "https://api.mainnet-beta.solana.com"),
		EntropyTimeout:   getEnvDuration("ENTROPY_TIMEOUT", 5*time.Second),

		// Settlement execution
		SettlementServiceURL: getEnvWithDefault("SETTLEMENT_SERVICE_URL", "http://settlement:8090"),
		SettlementCurrency:   getEnvWithDefault("SETTLEMENT_CURRENCY", "USDC"),
		SettlementTimeout:    getEnvDuration("SETTLEMENT_TIMEOUT", 10*time.Second),

		// Monitor
		HistoryWindow:          getEnvDuration("MONITOR_HISTORY_WINDOW", 24*time.Hour),
		AlertCooldown:          getEnvDuration("ALERT_COOLDOWN", 5*time.Minute),
		RapidBetThreshold:      getEnvInt("RAPID_BET_THRESHOLD", 10),
		RapidBetWindow:         getEnvDuration("RAPID_BET_WINDOW", 60*time.Second),
		CoordinationMinWallets: getEnvInt("COORDINATION_MIN_WALLETS", 3),
		CoordinationWindow:     getEnvDuration("COORDINATION_WINDOW", 5*time.Minute),
		CoordinationThreshold:  getEnvFloat("COORDINATION_THRESHOLD", 0.7),
		WashTradeThreshold:     getEnvFloat("WASH_TRADE_THRESHOLD", 0.8),
		InsiderThreshold:       getEnvFloat("INSIDER_THRESHOLD", 0.75),
		InsiderEventWindow:     getEnvDuration("INSIDER_EVENT_WINDOW", 2*time.Minute),
		FarmingMinAccountAge:   getEnvDuration("FARMING_MIN_ACCOUNT_AGE", 24*time.Hour),
		FarmingMinSimilar:      getEnvInt("FARMING_MIN_SIMILAR", 3),
		FarmingThreshold:       getEnvFloat("FARMING_THRESHOLD", 0.8),
		BotCVThreshold:         getEnvFloat("BOT_CV_THRESHOLD", 0.1),
		BotScoreThreshold:      getEnvFloat("BOT_SCORE_THRESHOLD", 0.7),

		// Persistence
		StoreBackend: getEnvWithDefault("STORE_BACKEND", "postgres"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),
		BadgerDir:    getEnvWithDefault("BADGER_DIR", "data/badger"),

		// NATS
		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),

		// OpenTelemetry
		OTelEnabled:      os.Getenv("OTEL_ENABLED") == "true",
		OTelServiceName:  getEnvWithDefault("OTEL_SERVICE_NAME", "fairbook"),
		OTelExporterType: getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelEndpoint:     getEnvWithDefault("OTEL_ENDPOINT", "localhost:4317"),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.StoreBackend == "postgres" && config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
		if config.MinOdds <= 1.0 {
			return nil, fmt.Errorf("MIN_ODDS must be greater than 1.0")
		}
		if config.MaxOdds <= config.MinOdds {
			return nil, fmt.Errorf("MAX_ODDS must be greater than MIN_ODDS")
		}
		if config.DefaultHouseEdge < 0 || config.DefaultHouseEdge >= 1 {
			return nil, fmt.Errorf("DEFAULT_HOUSE_EDGE must be in [0, 1)")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDecimal(key, defaultValue string) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if parsed, err := decimal.NewFromString(value); err == nil {
			return parsed
		}
	}
	d, _ := decimal.NewFromString(defaultValue)
	return d
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:        "test",
		MinOdds:            1.01,
		MaxOdds:            50.0,
		DefaultInitialOdds: 2.0,
		DefaultHouseEdge:   0.05,
		MaxBetPerUser:      decimal.NewFromInt(10000),
		MaxPoolSize:        decimal.NewFromInt(1000000),
		MaxRewardPoolSize:  decimal.NewFromInt(5000000),
		StreakThreshold:    3,
		StreakMultiplier:   1.25,
		ReferralRate:       0.05,
		VRFResultTTL:       time.Hour,
		EntropyTimeout:     time.Second,
		SettlementCurrency: "USDC",
		SettlementTimeout:  time.Second,

		HistoryWindow:          24 * time.Hour,
		AlertCooldown:          5 * time.Minute,
		RapidBetThreshold:      10,
		RapidBetWindow:         60 * time.Second,
		CoordinationMinWallets: 3,
		CoordinationWindow:     5 * time.Minute,
		CoordinationThreshold:  0.7,
		WashTradeThreshold:     0.8,
		InsiderThreshold:       0.75,
		InsiderEventWindow:     2 * time.Minute,
		FarmingMinAccountAge:   24 * time.Hour,
		FarmingMinSimilar:      3,
		FarmingThreshold:       0.8,
		BotCVThreshold:         0.1,
		BotScoreThreshold:      0.7,

		StoreBackend: "memory",
	}
}
