package internal

import (
	"chat-presence/storage"
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

type Config struct {
	Host      string `env:"HOST,default=0.0.0.0"`
	Port      int    `env:"PORT,default=5000"`
	GrpcPort  int    `env:"GRPC_PORT,default=0"`
	DebugPort int    `env:"DEBUG_PORT,default=0"`
	LogLevel  string `env:"LOG_LEVEL,default=INFO"`

	StoreDriver    string        `env:"STORE_DRIVER,default=badger"`
	BadgerFilepath string        `env:"BADGER_FILEPATH,default=./data"`
	BadgerInMemory bool          `env:"BADGER_IN_MEMORY,default=false"`
	PostgresURL    string        `env:"POSTGRES_URL"`
	StoreTimeout   time.Duration `env:"STORE_TIMEOUT,default=5s"`

	SweepInterval   time.Duration `env:"SWEEP_INTERVAL,default=15s"`
	StaleThreshold  time.Duration `env:"STALE_THRESHOLD,default=10s"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	StatsInterval   time.Duration `env:"STATS_INTERVAL,default=30s"`
	HealthInterval  time.Duration `env:"HEALTH_INTERVAL,default=5s"`

	CensoredWords   string `env:"CENSORED_WORDS"`
	CensorCharacter string `env:"CENSOR_CHARACTER,default=*"`
	SearchIndexPath string `env:"SEARCH_INDEX_PATH"`
	AllowedOrigins  string `env:"ALLOWED_ORIGINS,default=*"`
}

// LoadConfig reads an optional .env file, then the environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) Validate() error {
	durations := map[string]time.Duration{
		"STORE_TIMEOUT":    c.StoreTimeout,
		"SWEEP_INTERVAL":   c.SweepInterval,
		"STALE_THRESHOLD":  c.StaleThreshold,
		"RESTART_INTERVAL": c.RestartInterval,
		"STATS_INTERVAL":   c.StatsInterval,
		"HEALTH_INTERVAL":  c.HealthInterval,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	switch c.StoreDriver {
	case storage.DriverBadger:
	case storage.DriverPostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required with STORE_DRIVER=%s", storage.DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if _, err := CharacterRune(c.CensorCharacter); err != nil {
		return err
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) StoreOptions() storage.Options {
	return storage.Options{
		Driver:         c.StoreDriver,
		BadgerPath:     c.BadgerFilepath,
		BadgerInMemory: c.BadgerInMemory,
		PostgresURL:    c.PostgresURL,
	}
}

// Words returns the censored words list, empty when censoring is off.
func (c Config) Words() []string {
	return splitList(c.CensoredWords)
}

func (c Config) Origins() []string {
	return splitList(c.AllowedOrigins)
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CENSOR_CHARACTER must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}

func splitList(value string) []string {
	return lo.FilterMap(strings.Split(value, ","), func(item string, _ int) (string, bool) {
		item = strings.TrimSpace(item)
		return item, item != ""
	})
}
