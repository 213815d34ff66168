package config

import (
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
)

type LUTConfig struct {
	// CacheTTL controls how long a resolved Address Lookup Table state is
	// reused before being re-fetched from RPC. Table contents change
	// rarely, so minutes is safe.
	CacheTTL time.Duration
}

func (c *LUTConfig) Key() string {
	return LUT_CONFIG_KEY
}

func (c *LUTConfig) Load() error {
	c.CacheTTL = time.Duration(common.GetEnvOrDefaultInt("LUT_CACHE_TTL_SECONDS", 300)) * time.Second
	return nil
}

func (c *LUTConfig) Validate() error {
	return nil
}
