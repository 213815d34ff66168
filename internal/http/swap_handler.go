package http

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/lumenfi/swap-engine/internal/domain"
	"github.com/lumenfi/swap-engine/internal/http/httputil"
	"github.com/lumenfi/swap-engine/internal/services/builder"
)

type SwapHandler struct {
	builderSvc *builder.BuilderService
}

func NewSwapHandler(builderSvc *builder.BuilderService) *SwapHandler {
	return &SwapHandler{builderSvc: builderSvc}
}

func (h *SwapHandler) Root() string {
	return "/swap"
}

func (h *SwapHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("/build", h.build)
}

// BuildSwapRequest represents the parameters for building a sponsored swap
// transaction.
type BuildSwapRequest struct {
	// Wallet address of the end user. This wallet signs the returned
	// transaction but pays no network fee; the sponsor does.
	OwnerAddress string `json:"ownerAddress" binding:"required" example:"9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"`

	// Input token mint address (Solana base58 public key)
	InputAsset string `json:"inputAsset" binding:"required" example:"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"`

	// Output token mint address (Solana base58 public key)
	OutputAsset string `json:"outputAsset" binding:"required" example:"So11111111111111111111111111111111111111112"`

	// Amount in smallest units of the input asset. Exactly one of
	// amountUnits, amountDecimalString or useFullBalance must be given.
	AmountUnits uint64 `json:"amountUnits" example:"1000000"`

	// Human-readable decimal amount, e.g. "100.50"
	AmountDecimalString string `json:"amountDecimalString" example:"100.50"`

	// Swap the wallet's entire balance of the input asset
	UseFullBalance bool `json:"useFullBalance" example:"false"`

	// Slippage tolerance in basis points (1 bps = 0.01%)
	// Default: 50 bps (0.5%) if not specified
	SlippageBps uint16 `json:"slippageBps" example:"50"`
}

// @Summary Build sponsored swap transaction
// @Description Build an unsigned swap transaction with the sponsor as fee payer.
// @Description The protocol fee is carved out of the input amount and the
// @Description remainder is routed through the external aggregator. The caller
// @Description signs the returned transaction and submits it; the sponsor
// @Description signature is already attached.
// @Tags swap
// @Accept json
// @Produce json
// @Param request body BuildSwapRequest true "Swap build request"
// @Success 200 {object} httputil.Response{data=domain.BuildResult} "Unsigned transaction ready to sign"
// @Failure 400 {object} httputil.Response "Invalid request parameters"
// @Failure 404 {object} httputil.Response "Unknown asset"
// @Failure 422 {object} httputil.Response "Transaction exceeds the wire-size ceiling"
// @Failure 502 {object} httputil.Response "Aggregator quote or route failed"
// @Router /api/v1/swap/build [post]
func (h *SwapHandler) build(c *gin.Context) {
	var req BuildSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	owner, err := solana.PublicKeyFromBase58(req.OwnerAddress)
	if err != nil {
		httputil.BadRequest(c, "invalid ownerAddress")
		return
	}
	inputAsset, err := solana.PublicKeyFromBase58(req.InputAsset)
	if err != nil {
		httputil.BadRequest(c, "invalid inputAsset address")
		return
	}
	outputAsset, err := solana.PublicKeyFromBase58(req.OutputAsset)
	if err != nil {
		httputil.BadRequest(c, "invalid outputAsset address")
		return
	}

	if !exactlyOneAmount(req) {
		httputil.BadRequest(c, "exactly one of amountUnits, amountDecimalString or useFullBalance must be set")
		return
	}

	slippageBps := req.SlippageBps
	if slippageBps == 0 {
		slippageBps = 50
	}

	result, err := h.builderSvc.BuildSponsoredSwap(c.Request.Context(), &domain.BuildParams{
		Owner:          owner,
		InputAsset:     inputAsset,
		OutputAsset:    outputAsset,
		AmountUnits:    req.AmountUnits,
		AmountDecimal:  req.AmountDecimalString,
		UseFullBalance: req.UseFullBalance,
		SlippageBps:    slippageBps,
	})
	if err != nil {
		httputil.Failure(c, "build", err)
		return
	}

	httputil.Success(c, result)
}

func exactlyOneAmount(req BuildSwapRequest) bool {
	n := 0
	if req.AmountUnits > 0 {
		n++
	}
	if req.AmountDecimalString != "" {
		n++
	}
	if req.UseFullBalance {
		n++
	}
	return n == 1
}
