package domain

import (
	"github.com/gagliardetto/solana-go"
)

// SwapRequest is a validated, fully resolved intent to exchange one asset
// for another. Amount resolution (decimal strings, full-balance) happens
// before this struct is populated; AmountUnits is always a positive integer
// in the input asset's smallest unit.
type SwapRequest struct {
	Owner solana.PublicKey

	InputAsset solana.PublicKey

	OutputAsset solana.PublicKey

	AmountUnits uint64

	SlippageBps uint16
}

// BuildParams is a build request after address validation but before
// amount resolution. At most one of AmountDecimal or UseFullBalance is
// set; when neither is, AmountUnits carries an explicit base-unit amount.
type BuildParams struct {
	Owner solana.PublicKey

	InputAsset solana.PublicKey

	OutputAsset solana.PublicKey

	AmountUnits uint64

	AmountDecimal string

	UseFullBalance bool

	SlippageBps uint16
}

// BuildResult is the outcome of the sponsored build pipeline: an unsigned
// base64 transaction with the sponsor as fee payer, plus everything the
// caller needs to display and track the swap.
type BuildResult struct {
	TransactionBase64 string `json:"transactionBase64"`

	Blockhash string `json:"blockhash"`

	LastValidHeight uint64 `json:"lastValidHeight"`

	FeeUnits uint64 `json:"feeUnits"`

	FeeBasisPoints uint16 `json:"feeBasisPoints"`

	FeeAsset string `json:"feeAsset"`

	FeeDecimals uint8 `json:"feeDecimals"`

	GrossUnits uint64 `json:"grossUnits"`

	NetUnits uint64 `json:"netUnits"`

	PriorityFeeMicroUnitsPerComputeUnit uint64 `json:"priorityFeeMicroUnitsPerComputeUnit"`

	ComputeUnitLimit uint32 `json:"computeUnitLimit"`

	InputAsset string `json:"inputAsset"`

	OutputAsset string `json:"outputAsset"`

	// FeeDropped marks the size-guard degradation: the transaction was
	// recompiled without the fee instruction to fit the wire ceiling.
	FeeDropped bool `json:"feeDropped,omitempty"`
}

// TokenProgramInfo pairs an asset with its owning token program and decimal
// precision. Both are fixed at mint creation, so entries never expire.
type TokenProgramInfo struct {
	Program  solana.PublicKey
	Decimals uint8
}
