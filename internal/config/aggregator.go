package config

import (
	"errors"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
)

type AggregatorConfig struct {
	// BaseURL is the root of the external liquidity aggregator API
	// (quote and swap-instructions endpoints hang off it).
	BaseURL string

	// Timeout bounds each aggregator round-trip. The pipeline never
	// retries upstream calls; retry policy belongs to the caller.
	Timeout time.Duration
}

func (c *AggregatorConfig) Key() string {
	return AGGREGATOR_CONFIG_KEY
}

func (c *AggregatorConfig) Load() error {
	c.BaseURL = common.GetEnvOrDefault("AGGREGATOR_BASE_URL", "https://quote-api.jup.ag/v6")
	c.Timeout = time.Duration(common.GetEnvOrDefaultInt("AGGREGATOR_TIMEOUT_MS", 8000)) * time.Millisecond
	return nil
}

func (c *AggregatorConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("invalid aggregator config")
	}
	return nil
}
