// Package config loads gateway settings from the environment, with an
// optional TOML file overriding the reward parameter defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"boopstake/native/rewards"
	"boopstake/observability/otel"
)

// Config represents runtime configuration for the stake gateway service.
type Config struct {
	Port           string
	DatabaseURL    string
	Environment    string
	LeaderboardTTL time.Duration
	ParamsFile     string
	Auth           AuthConfig
	Telemetry      otel.Config
}

// AuthConfig captures bearer-token verification settings.
type AuthConfig struct {
	Secret         string
	Issuer         string
	Audience       []string
	MaxSkewSeconds int
}

// FromEnv loads configuration from the environment variables required by the
// service.
func FromEnv() (*Config, error) {
	dbURL := os.Getenv("STAKEGW_DB_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("STAKEGW_DB_URL is required")
	}
	secret := strings.TrimSpace(os.Getenv("STAKEGW_JWT_SECRET"))
	if secret == "" {
		return nil, fmt.Errorf("STAKEGW_JWT_SECRET is required")
	}

	cfg := &Config{
		Port:           normalizePort(getEnvDefault("STAKEGW_PORT", "8080")),
		DatabaseURL:    dbURL,
		Environment:    os.Getenv("STAKEGW_ENV"),
		LeaderboardTTL: time.Duration(parseIntEnv("STAKEGW_LEADERBOARD_TTL_SECONDS", 45)) * time.Second,
		ParamsFile:     os.Getenv("STAKEGW_PARAMS_FILE"),
		Auth: AuthConfig{
			Secret:         secret,
			Issuer:         os.Getenv("STAKEGW_JWT_ISSUER"),
			Audience:       parseCSVEnv("STAKEGW_JWT_AUDIENCE"),
			MaxSkewSeconds: parseIntEnv("STAKEGW_JWT_MAX_SKEW_SECONDS", 30),
		},
		Telemetry: otel.Config{
			ServiceName: "stake-gateway",
			Environment: os.Getenv("STAKEGW_ENV"),
			Endpoint:    os.Getenv("STAKEGW_OTLP_ENDPOINT"),
			Insecure:    parseBoolEnv("STAKEGW_OTLP_INSECURE", true),
			Headers:     otel.ParseHeaders(os.Getenv("STAKEGW_OTLP_HEADERS")),
			Traces:      parseBoolEnv("STAKEGW_OTLP_TRACES", false),
			Metrics:     parseBoolEnv("STAKEGW_OTLP_METRICS", false),
		},
	}
	return cfg, nil
}

// paramsFile mirrors rewards.Params with every field optional so a file may
// override only what it names.
type paramsFile struct {
	MinStake        *float64 `toml:"MinStake"`
	StakeCap        *float64 `toml:"StakeCap"`
	BaseMax         *float64 `toml:"BaseMax"`
	LevelMax        *float64 `toml:"LevelMax"`
	StreakMax       *float64 `toml:"StreakMax"`
	NftMax          *float64 `toml:"NftMax"`
	BoostMax        *float64 `toml:"BoostMax"`
	TotalMax        *float64 `toml:"TotalMax"`
	NftMinStake     *float64 `toml:"NftMinStake"`
	ClaimFeeRate    *float64 `toml:"ClaimFeeRate"`
	WithdrawFeeRate *float64 `toml:"WithdrawFeeRate"`
	ClaimCooldown   *string  `toml:"ClaimCooldown"`
	StreakWindow    *string  `toml:"StreakWindow"`
	UnlockPeriod    *string  `toml:"UnlockPeriod"`
	ClaimXP         *int64   `toml:"ClaimXP"`
	MaxLevel        *int     `toml:"MaxLevel"`
	LevelCapXP      *int64   `toml:"LevelCapXP"`
}

// LoadParams returns the reward parameters, starting from the defaults and
// applying any overrides from the configured TOML file.
func (c *Config) LoadParams() (rewards.Params, error) {
	params := rewards.DefaultParams()
	if c.ParamsFile == "" {
		return params, params.Validate()
	}

	var file paramsFile
	if _, err := toml.DecodeFile(c.ParamsFile, &file); err != nil {
		return rewards.Params{}, fmt.Errorf("decode params file %s: %w", c.ParamsFile, err)
	}
	applyFloat := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	applyFloat(&params.MinStake, file.MinStake)
	applyFloat(&params.StakeCap, file.StakeCap)
	applyFloat(&params.BaseMax, file.BaseMax)
	applyFloat(&params.LevelMax, file.LevelMax)
	applyFloat(&params.StreakMax, file.StreakMax)
	applyFloat(&params.NftMax, file.NftMax)
	applyFloat(&params.BoostMax, file.BoostMax)
	applyFloat(&params.TotalMax, file.TotalMax)
	applyFloat(&params.NftMinStake, file.NftMinStake)
	applyFloat(&params.ClaimFeeRate, file.ClaimFeeRate)
	applyFloat(&params.WithdrawFeeRate, file.WithdrawFeeRate)
	if err := applyDuration(&params.ClaimCooldown, file.ClaimCooldown); err != nil {
		return rewards.Params{}, err
	}
	if err := applyDuration(&params.StreakWindow, file.StreakWindow); err != nil {
		return rewards.Params{}, err
	}
	if err := applyDuration(&params.UnlockPeriod, file.UnlockPeriod); err != nil {
		return rewards.Params{}, err
	}
	if file.ClaimXP != nil {
		params.ClaimXP = *file.ClaimXP
	}
	if file.MaxLevel != nil {
		params.MaxLevel = *file.MaxLevel
	}
	if file.LevelCapXP != nil {
		params.LevelCapXP = *file.LevelCapXP
	}
	return params, params.Validate()
}

func applyDuration(dst *time.Duration, src *string) error {
	if src == nil {
		return nil
	}
	parsed, err := time.ParseDuration(*src)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", *src, err)
	}
	*dst = parsed
	return nil
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func normalizePort(port string) string {
	if port == "" {
		return "8080"
	}
	if _, err := strconv.Atoi(port); err == nil {
		return port
	}
	// Allow values like ":8080".
	if port[0] == ':' {
		if _, err := strconv.Atoi(port[1:]); err == nil {
			return port[1:]
		}
	}
	return "8080"
}

func parseIntEnv(key string, def int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return def
}

func parseBoolEnv(key string, def bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return def
}

func parseCSVEnv(key string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';' || r == ' '
	})
}
