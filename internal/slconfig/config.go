// Package slconfig loads seedlinkd/slcat configuration from environment
// variables, following the teacher pack's env-var-with-logged-fallback
// convention rather than a config-file parser.
package slconfig

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chronologos/seedlink/internal/reconnect"
	"github.com/chronologos/seedlink/internal/slclient"
	"github.com/chronologos/seedlink/internal/sllog"
)

// ParseString reads a string from an environment variable, logging
// whether the value came from the environment or the default.
func ParseString(key, defaultValue string) string {
	logger := sllog.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok {
		if v == "" {
			logger.Debug().Str("key", key).Str("default", defaultValue).Msg("using default value (environment variable is empty)")
			return defaultValue
		}
		logger.Debug().Str("key", key).Str("value", v).Msg("using environment variable")
		return v
	}
	logger.Debug().Str("key", key).Str("default", defaultValue).Msg("using default value")
	return defaultValue
}

// ParseInt reads an integer from an environment variable, falling back to
// defaultValue on parse errors or when unset.
func ParseInt(key string, defaultValue int) int {
	logger := sllog.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().Str("key", key).Int("default", defaultValue).Msg("using default value")
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Int("default", defaultValue).Msg("invalid integer, using default")
		return defaultValue
	}
	logger.Debug().Str("key", key).Int("value", i).Msg("using environment variable")
	return i
}

// ParseDuration reads a Go-syntax duration ("5s", "1m30s") from an
// environment variable, falling back to defaultValue on parse errors or
// when unset.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := sllog.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().Str("key", key).Dur("default", defaultValue).Msg("using default value")
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Dur("default", defaultValue).Msg("invalid duration, using default")
		return defaultValue
	}
	logger.Debug().Str("key", key).Dur("value", d).Msg("using environment variable")
	return d
}

// ParseBool reads a boolean from an environment variable, accepting
// true/false/1/0/yes/no case-insensitively.
func ParseBool(key string, defaultValue bool) bool {
	logger := sllog.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().Str("key", key).Bool("default", defaultValue).Msg("using default value")
		return defaultValue
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		logger.Warn().Str("key", key).Str("value", v).Bool("default", defaultValue).Msg("invalid boolean, using default")
		return defaultValue
	}
}

// ServerConfig configures the seedlinkd binary.
type ServerConfig struct {
	Addr         string
	Software     string
	Organization string
	RingCapacity int
	LogLevel     string
}

// ServerConfigFromEnv loads ServerConfig from SEEDLINKD_* environment
// variables (the log level from SEEDLINK_LOG_LEVEL), falling back to
// sensible defaults.
func ServerConfigFromEnv() ServerConfig {
	return ServerConfig{
		Addr:         ParseString("SEEDLINKD_ADDR", ":18000"),
		Software:     ParseString("SEEDLINKD_SOFTWARE", "SeedLink"),
		Organization: ParseString("SEEDLINKD_ORGANIZATION", "Unspecified"),
		RingCapacity: ParseInt("SEEDLINKD_RING_CAPACITY", 1<<16),
		LogLevel:     ParseString("SEEDLINK_LOG_LEVEL", "info"),
	}
}

// ClientConfig configures the slcat binary.
type ClientConfig struct {
	Client    slclient.Config
	Reconnect reconnect.Config
}

// ClientConfigFromEnv loads ClientConfig from SLCAT_* environment
// variables, falling back to slclient.DefaultConfig/reconnect.DefaultConfig.
func ClientConfigFromEnv() ClientConfig {
	base := slclient.DefaultConfig()
	rc := reconnect.DefaultConfig()

	base.ConnectTimeout = ParseDuration("SLCAT_CONNECT_TIMEOUT", base.ConnectTimeout)
	base.ReadTimeout = ParseDuration("SLCAT_READ_TIMEOUT", base.ReadTimeout)
	base.PreferV4 = ParseBool("SLCAT_PREFER_V4", base.PreferV4)

	rc.InitialBackoff = ParseDuration("SLCAT_RECONNECT_INITIAL_BACKOFF", rc.InitialBackoff)
	rc.MaxBackoff = ParseDuration("SLCAT_RECONNECT_MAX_BACKOFF", rc.MaxBackoff)
	rc.MaxAttempts = uint32(ParseInt("SLCAT_RECONNECT_MAX_ATTEMPTS", int(rc.MaxAttempts)))

	return ClientConfig{Client: base, Reconnect: rc}
}
