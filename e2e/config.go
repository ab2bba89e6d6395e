package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

// Config points the scenarios at a live classifier sidecar. Scenarios are
// skipped when CLASSIFIER_URL is unset.
type Config struct {
	ClassifierURL string `envconfig:"CLASSIFIER_URL"`
	// E2E_TIMEOUT_MS bounds each classifier call
	TimeoutMs int `envconfig:"E2E_TIMEOUT_MS" default:"5000"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
