// Package config loads process configuration from the environment, in
// the style of web3guy0-polybot's internal/config/config.go: a single
// Load() that populates a struct via small getEnv* helpers with
// defaults, rather than a flags/viper layer.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/saiputravu/predictex/internal/xdecimal"
)

// Config is the full set of process-wide settings, per spec §9's
// ambient configuration surface.
type Config struct {
	// Storage and messaging backends.
	DatabaseURL string
	BrokerURL   string

	// HTTP/WebSocket listener.
	Port int

	// LMSR market-making parameter applied to newly-created markets
	// that don't specify their own liquidity parameter.
	PlatformInitialLiquidityPerOutcome xdecimal.Decimal

	// Fan-out heartbeat cadence (spec §5).
	HeartbeatInterval time.Duration

	// Whether C8's agent scheduler runs at all.
	AgentTradingEnabled bool

	// Bound on concurrent agent policy calls (spec §5, default 5).
	AgentSchedulerConcurrency int

	// Listen address for the framed-TCP submission transport
	// (internal/wire). Empty disables it; this is an internal
	// operational surface, not one of spec §6's named knobs.
	WireListenAddr string
}

// Load reads Config from the environment, applying the defaults named
// in spec §9.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:                        getEnv("DATABASE_URL", "postgres://localhost:5432/predictex?sslmode=disable"),
		BrokerURL:                          getEnv("BROKER_URL", "redis://localhost:6379/0"),
		Port:                               getEnvInt("PORT", 3000),
		PlatformInitialLiquidityPerOutcome: getEnvDecimal("PLATFORM_INITIAL_LIQUIDITY_PER_OUTCOME", xdecimal.MustParse("100")),
		HeartbeatInterval:                  getEnvDuration("HEARTBEAT_INTERVAL_MS", 30*time.Second),
		AgentTradingEnabled:                getEnvBool("AGENT_TRADING_ENABLED", false),
		AgentSchedulerConcurrency:          getEnvInt("AGENT_SCHEDULER_CONCURRENCY", 5),
		WireListenAddr:                     getEnv("WIRE_LISTEN_ADDR", ""),
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT: %d", cfg.Port)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvDuration parses key as a millisecond count, matching the
// *_MS naming spec §9 uses for its duration-valued env vars.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue xdecimal.Decimal) xdecimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := xdecimal.Parse(value); err == nil {
			return d
		}
	}
	return defaultValue
}
