package config

import (
	"errors"
	"os"
	"strconv"
)

type FeeConfig struct {
	// Rate is the protocol fee as a decimal fraction, e.g. 0.01 for 1%.
	// Clamped to [0, 0.2] before conversion to basis points so a bad
	// deploy can never charge more than 20%.
	Rate float64
}

func (c *FeeConfig) Key() string {
	return FEE_CONFIG_KEY
}

func (c *FeeConfig) Load() error {
	c.Rate = 0.01
	if raw := os.Getenv("PROTOCOL_FEE_RATE"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return errors.New("PROTOCOL_FEE_RATE is not a number")
		}
		c.Rate = rate
	}
	return nil
}

func (c *FeeConfig) Validate() error {
	if c.Rate < 0 {
		return errors.New("PROTOCOL_FEE_RATE must not be negative")
	}
	return nil
}
