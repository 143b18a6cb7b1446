package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	Env  string `validate:"required,oneof=development staging production test"`
	Port string `validate:"required,numeric"`

	Store     string `validate:"required,oneof=redis memory"`
	RedisURL  string `validate:"required_if=Store redis"`
	RedisPass string
	RedisDB   int `validate:"gte=0,lte=15"`

	// DatabaseURL enables the Postgres settlement audit log when set.
	DatabaseURL string

	JWTSecret string        `validate:"required,min=16"`
	JWTTTL    time.Duration `validate:"gt=0"`

	CasinoID string        `validate:"required,max=64"`
	GameTTL  time.Duration `validate:"gt=0,lte=1h"`

	RateLimitGames  int           `validate:"gte=0"`
	RateLimitWindow time.Duration `validate:"gt=0"`

	// SeedBalance is credited to a new player wallet in memory mode.
	SeedBalance uint64
}

// Load reads the environment, after an optional .env file, and validates it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:             getEnv("ENV", "development"),
		Port:            getEnv("PORT", "8080"),
		Store:           strings.ToLower(getEnv("STORE", StoreRedis)),
		RedisURL:        getEnv("REDIS_URL", "localhost:6379"),
		RedisPass:       getEnv("REDIS_PASS", ""),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		CasinoID:        getEnv("CASINO_ID", "main"),
		RateLimitWindow: time.Minute,
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.JWTTTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.GameTTL, err = getDuration("GAME_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateLimitGames, err = getInt("RATE_LIMIT_GAMES", 30); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = getDuration("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	seed, err := getInt("SEED_BALANCE", 0)
	if err != nil {
		return nil, err
	}
	if seed < 0 {
		return nil, fmt.Errorf("invalid SEED_BALANCE: %d", seed)
	}
	cfg.SeedBalance = uint64(seed)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return d, nil
}
