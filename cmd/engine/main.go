package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"
	"github.com/thehyperflames/yellowstone"

	"github.com/lumenfi/swap-engine/internal/adapters/blockchain"
	"github.com/lumenfi/swap-engine/internal/config"
	"github.com/lumenfi/swap-engine/internal/http"
	"github.com/lumenfi/swap-engine/internal/services/builder"
)

// @title LumenFi Swap Engine API
// @version 1.0
// @description Sponsored swap transaction pipeline for Solana. Builds unsigned
// @description v0 swap transactions where a service-controlled sponsor pays all
// @description network fees and rent, so end users need no native gas balance.
// @description
// @description ## - Features
// @description - **Gasless swaps**: sponsor pays transaction fees and account rent
// @description - **Aggregator routing**: quotes and route instructions from an external aggregator
// @description - **Protocol fee**: basis-point fee carved from the input amount, dropped under size pressure
// @description - **Priority fees**: congestion-based pricing with provider and RPC fallback paths
// @description
// @description ## - Usage Tips
// @description - Use smallest token units, a decimal string, or useFullBalance
// @description - Default slippage is 50 bps (0.5%)
// @description - Transactions expire after ~60 seconds (based on lastValidHeight)
// @BasePath /
// @schemes https http
// @tag.name swap
// @tag.description Build unsigned sponsored swap transactions ready for signing and execution

func main() {
	// load env
	err := godotenv.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load env")
		return
	}

	// di container config
	conf := container.NewConf(
		&config.GeneralConfig{},
		&config.RPCConfig{},
		&yellowstone.Config{},
		&config.AggregatorConfig{},
		&config.FeeConfig{},
		&config.PriorityFeeConfig{},
		&config.LUTConfig{},
	)

	// di container
	dic, err := container.New(
		// config
		conf,

		// services
		&yellowstone.Service{},
		&blockchain.BlockhashCacheService{},
		&builder.BuilderService{},

		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// Run() blocks until SIGINT/SIGTERM
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
