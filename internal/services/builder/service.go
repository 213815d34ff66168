package builder

import (
	"context"
	"encoding/base64"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/lumenfi/swap-engine/internal/adapters/blockchain"
	"github.com/lumenfi/swap-engine/internal/common"
	"github.com/lumenfi/swap-engine/internal/config"
	"github.com/lumenfi/swap-engine/internal/domain"
	"github.com/lumenfi/swap-engine/internal/metrics"
	"github.com/lumenfi/swap-engine/internal/services/fee"
	"github.com/lumenfi/swap-engine/internal/services/lut"
	"github.com/lumenfi/swap-engine/internal/services/priority"
	"github.com/lumenfi/swap-engine/internal/services/quote"
	"github.com/lumenfi/swap-engine/internal/services/token"
)

const BUILDER_SERVICE_NAME = "BuilderService"

// BuilderService runs the sponsored swap pipeline: resolve assets, split
// the fee, fetch a route, and compile a size-guarded v0 transaction with
// the sponsor as fee payer.
type BuilderService struct {
	container.BaseDIInstance

	rpcClient      *rpc.Client
	tokenResolver  *token.Resolver
	quoteClient    *quote.Client
	feeCalc        *fee.Calculator
	priorityEst    *priority.Estimator
	lutResolver    *lut.Resolver
	blockhashCache *blockchain.BlockhashCacheService

	sponsor  solana.PrivateKey
	treasury solana.PublicKey
}

func (svc *BuilderService) ID() string {
	return BUILDER_SERVICE_NAME
}

func (svc *BuilderService) Configure(c container.IContainer) error {
	rpcConfig := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
	svc.rpcClient = rpc.New(rpcConfig.RPCUrl)
	svc.sponsor = rpcConfig.Sponsor()
	svc.treasury = rpcConfig.TreasuryKey()

	svc.tokenResolver = token.NewResolver(svc.rpcClient)

	aggConfig := c.GetConfig(config.AGGREGATOR_CONFIG_KEY).(*config.AggregatorConfig)
	svc.quoteClient = quote.NewClient(aggConfig.BaseURL, aggConfig.Timeout)

	feeConfig := c.GetConfig(config.FEE_CONFIG_KEY).(*config.FeeConfig)
	svc.feeCalc = fee.NewCalculator(feeConfig.Rate)

	priorityConfig := c.GetConfig(config.PRIORITY_CONFIG_KEY).(*config.PriorityFeeConfig)
	svc.priorityEst = priority.NewEstimator(svc.rpcClient, priorityConfig)

	lutConfig := c.GetConfig(config.LUT_CONFIG_KEY).(*config.LUTConfig)
	svc.lutResolver = lut.NewResolver(svc.rpcClient, lutConfig.CacheTTL)

	svc.blockhashCache = c.Instance(blockchain.BLOCKHASH_CACHE_SERVICE).(*blockchain.BlockhashCacheService)
	return nil
}

func (svc *BuilderService) Start() error {
	return nil
}

// FeeBasisPoints exposes the configured protocol fee rate.
func (svc *BuilderService) FeeBasisPoints() uint16 {
	return svc.feeCalc.BasisPoints()
}

// BuildSponsoredSwap executes the full pipeline for one request.
func (svc *BuilderService) BuildSponsoredSwap(ctx context.Context, p *domain.BuildParams) (*domain.BuildResult, error) {
	start := time.Now()
	res, err := svc.build(ctx, p)
	metrics.BuildDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		perr := common.AsPipelineError(err, "build")
		metrics.BuildRequests.WithLabelValues("error", string(perr.Code)).Inc()
		log.Warn().
			Str("code", string(perr.Code)).
			Str("stage", perr.Stage).
			Str("correlation", perr.Correlation).
			Err(err).
			Msg("swap build failed")
		return nil, perr
	}
	metrics.BuildRequests.WithLabelValues("ok", "").Inc()
	return res, nil
}

func (svc *BuilderService) build(ctx context.Context, p *domain.BuildParams) (*domain.BuildResult, error) {
	if p.Owner.IsZero() {
		return nil, common.ErrInvalidPayload("owner address is required").WithStage("validate")
	}
	if p.InputAsset.Equals(p.OutputAsset) {
		return nil, common.ErrSameAsset().WithStage("validate")
	}

	inputInfo, err := svc.tokenResolver.Resolve(ctx, p.InputAsset)
	if err != nil {
		return nil, common.AsPipelineError(err, "resolve")
	}
	outputInfo, err := svc.tokenResolver.Resolve(ctx, p.OutputAsset)
	if err != nil {
		return nil, common.AsPipelineError(err, "resolve")
	}

	gross, err := svc.resolveAmount(ctx, p, inputInfo)
	if err != nil {
		return nil, common.AsPipelineError(err, "amount")
	}

	breakdown, err := svc.feeCalc.Split(gross)
	if err != nil {
		return nil, common.AsPipelineError(err, "fee")
	}

	// The aggregator round trip, the blockhash fetch and the priority fee
	// estimate are independent, so they run concurrently. The quote is for
	// the net amount: the protocol fee is carved out before routing.
	type routeOut struct {
		quote *quote.QuoteResponse
		route *quote.RouteInstructions
		err   error
	}
	type blockhashOut struct {
		hash   solana.Hash
		height uint64
		err    error
	}

	routeCh := make(chan routeOut, 1)
	blockhashCh := make(chan blockhashOut, 1)
	priorityCh := make(chan uint64, 1)

	go func() {
		q, err := svc.quoteClient.GetQuote(ctx, quote.QuoteParams{
			InputMint:   p.InputAsset,
			OutputMint:  p.OutputAsset,
			AmountUnits: breakdown.NetUnits,
			SlippageBps: p.SlippageBps,
		})
		if err != nil {
			routeCh <- routeOut{err: common.AsPipelineError(err, "quote")}
			return
		}
		r, err := svc.quoteClient.GetRouteInstructions(ctx, q, p.Owner)
		if err != nil {
			routeCh <- routeOut{err: common.AsPipelineError(err, "route")}
			return
		}
		routeCh <- routeOut{quote: q, route: r}
	}()

	go func() {
		hash, height, err := svc.blockhashCache.GetBlockhash(ctx)
		blockhashCh <- blockhashOut{hash: hash, height: height, err: err}
	}()

	go func() {
		accounts := solana.PublicKeySlice{p.InputAsset, p.OutputAsset, p.Owner}
		priorityCh <- svc.priorityEst.Estimate(ctx, accounts)
	}()

	routed := <-routeCh
	blockhash := <-blockhashCh
	feePerCU := <-priorityCh

	if routed.err != nil {
		return nil, routed.err
	}
	if blockhash.err != nil {
		return nil, common.AsPipelineError(blockhash.err, "blockhash")
	}

	plan, err := Assemble(AssembleParams{
		Owner:      p.Owner,
		Sponsor:    svc.sponsor.PublicKey(),
		Treasury:   svc.treasury,
		InputMint:  p.InputAsset,
		OutputMint: p.OutputAsset,
		InputInfo:  inputInfo,
		OutputInfo: outputInfo,
		Fee:        breakdown,
		Route:      routed.route,
	})
	if err != nil {
		return nil, common.AsPipelineError(err, "assemble")
	}

	feePerCU = svc.priorityEst.CapForBudget(feePerCU, plan.ComputeUnitLimit)

	tables := svc.lutResolver.Resolve(ctx, routed.route.LookupTables)

	compiled, err := CompileWithSizeGuard(plan, feePerCU, blockhash.hash, svc.sponsor.PublicKey(), tables)
	if err != nil {
		return nil, common.AsPipelineError(err, "compile")
	}

	// The sponsor co-signs server side; the owner's signature slot stays
	// empty for the caller to fill.
	if _, err := compiled.Tx.PartialSign(svc.signerFor); err != nil {
		return nil, common.AsPipelineError(err, "sign")
	}
	txBytes, err := compiled.Tx.MarshalBinary()
	if err != nil {
		return nil, common.AsPipelineError(err, "sign")
	}

	result := &domain.BuildResult{
		TransactionBase64:                   base64.StdEncoding.EncodeToString(txBytes),
		Blockhash:                           blockhash.hash.String(),
		LastValidHeight:                     blockhash.height,
		FeeUnits:                            breakdown.FeeUnits,
		FeeBasisPoints:                      breakdown.BasisPoints,
		FeeAsset:                            p.InputAsset.String(),
		FeeDecimals:                         inputInfo.Decimals,
		GrossUnits:                          breakdown.GrossUnits,
		NetUnits:                            breakdown.NetUnits,
		PriorityFeeMicroUnitsPerComputeUnit: feePerCU,
		ComputeUnitLimit:                    plan.ComputeUnitLimit,
		InputAsset:                          p.InputAsset.String(),
		OutputAsset:                         p.OutputAsset.String(),
		FeeDropped:                          compiled.FeeDropped,
	}
	if compiled.FeeDropped {
		result.FeeUnits = 0
	}

	log.Info().
		Str("owner", p.Owner.String()).
		Str("input", p.InputAsset.String()).
		Str("output", p.OutputAsset.String()).
		Uint64("gross", breakdown.GrossUnits).
		Uint64("fee", result.FeeUnits).
		Int("size", compiled.Size).
		Bool("feeDropped", compiled.FeeDropped).
		Msg("swap transaction built")

	return result, nil
}

func (svc *BuilderService) signerFor(key solana.PublicKey) *solana.PrivateKey {
	if key.Equals(svc.sponsor.PublicKey()) {
		return &svc.sponsor
	}
	return nil
}

// resolveAmount turns whichever amount form the request carries into base
// units of the input asset.
func (svc *BuilderService) resolveAmount(ctx context.Context, p *domain.BuildParams, info domain.TokenProgramInfo) (uint64, error) {
	if p.UseFullBalance {
		return svc.fullBalance(ctx, p.Owner, p.InputAsset, info)
	}
	if p.AmountDecimal != "" {
		return parseDecimalAmount(p.AmountDecimal, info.Decimals)
	}
	if p.AmountUnits == 0 {
		return 0, common.ErrInvalidAmount("amount must be greater than zero")
	}
	return p.AmountUnits, nil
}

func (svc *BuilderService) fullBalance(ctx context.Context, owner, mint solana.PublicKey, info domain.TokenProgramInfo) (uint64, error) {
	ata, err := token.ATAAddress(owner, mint, info.Program)
	if err != nil {
		return 0, err
	}
	out, err := svc.rpcClient.GetTokenAccountBalance(ctx, ata, rpc.CommitmentConfirmed)
	if err != nil || out == nil || out.Value == nil {
		return 0, common.ErrInsufficientBalance("no balance found for the input asset")
	}
	balance, err := strconv.ParseUint(out.Value.Amount, 10, 64)
	if err != nil {
		return 0, common.ErrInsufficientBalance("no balance found for the input asset")
	}
	if balance == 0 {
		return 0, common.ErrInsufficientBalance("input asset balance is zero")
	}
	return balance, nil
}
