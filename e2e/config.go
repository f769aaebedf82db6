package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// CHAT_ADDR is the base URL of a running server, e.g. http://localhost:5000
	ChatAddr string `envconfig:"CHAT_ADDR"`
	// GRPC_ADDR is the health endpoint of the same server, optional
	GrpcAddr string `envconfig:"GRPC_ADDR"`
	// E2E_DEBUG_JSON dumps request and response bodies
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// STALE_THRESHOLD and SWEEP_INTERVAL of the server under test
	StaleThreshold string `envconfig:"STALE_THRESHOLD" default:"10s"`
	SweepInterval  string `envconfig:"SWEEP_INTERVAL" default:"15s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
