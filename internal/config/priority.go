package config

import (
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
)

type PriorityFeeConfig struct {
	// ProviderURL is an optional specialized estimation endpoint
	// (getPriorityFeeEstimate). Empty means RPC sampling only.
	ProviderURL string

	// MinMicroLamports / MaxMicroLamports clamp the per-CU price.
	MinMicroLamports uint64
	MaxMicroLamports uint64

	// MaxTotalLamports caps the absolute priority spend per transaction,
	// applied against the compute-unit limit after clamping.
	MaxTotalLamports uint64

	// CacheTTL is how long an estimate is reused. Congestion is volatile,
	// so this stays in the seconds range.
	CacheTTL time.Duration
}

func (c *PriorityFeeConfig) Key() string {
	return PRIORITY_CONFIG_KEY
}

func (c *PriorityFeeConfig) Load() error {
	c.ProviderURL = common.GetEnvOrDefault("PRIORITY_FEE_PROVIDER_URL", "")
	c.MinMicroLamports = uint64(common.GetEnvOrDefaultInt("PRIORITY_FEE_MIN_MICROLAMPORTS", 1000))
	c.MaxMicroLamports = uint64(common.GetEnvOrDefaultInt("PRIORITY_FEE_MAX_MICROLAMPORTS", 2_000_000))
	c.MaxTotalLamports = uint64(common.GetEnvOrDefaultInt("PRIORITY_FEE_MAX_TOTAL_LAMPORTS", 1_000_000))
	c.CacheTTL = time.Duration(common.GetEnvOrDefaultInt("PRIORITY_FEE_CACHE_TTL_SECONDS", 10)) * time.Second
	return nil
}

func (c *PriorityFeeConfig) Validate() error {
	return nil
}
