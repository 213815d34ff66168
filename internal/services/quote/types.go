package quote

import (
	"encoding/json"

	"github.com/gagliardetto/solana-go"
)

// QuoteParams is the pricing request sent to the aggregator. AmountUnits is
// the post-fee net amount; the skimmed fee must never be part of the route.
type QuoteParams struct {
	InputMint   solana.PublicKey
	OutputMint  solana.PublicKey
	AmountUnits uint64
	SlippageBps uint16
}

// QuoteResponse is the aggregator's priced route. Raw holds the untouched
// upstream payload because the instructions endpoint wants the exact quote
// echoed back.
type QuoteResponse struct {
	InputMint            string          `json:"inputMint"`
	InAmount             string          `json:"inAmount"`
	OutputMint           string          `json:"outputMint"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	SwapMode             string          `json:"swapMode"`
	SlippageBps          int32           `json:"slippageBps"`
	PriceImpactPct       string          `json:"priceImpactPct"`
	RoutePlan            []RoutePlanStep `json:"routePlan"`

	Raw json.RawMessage `json:"-"`
}

type RoutePlanStep struct {
	SwapInfo SwapInfo `json:"swapInfo"`
	Percent  int32    `json:"percent"`
}

type SwapInfo struct {
	AmmKey     string `json:"ammKey"`
	Label      string `json:"label"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
	FeeAmount  string `json:"feeAmount"`
	FeeMint    string `json:"feeMint"`
}

// RouteInstructions is the decoded instruction set implementing a quote for
// one specific user, plus the lookup tables and compute estimate that came
// with it.
type RouteInstructions struct {
	Setup   []solana.Instruction
	Swap    solana.Instruction
	Cleanup []solana.Instruction

	LookupTables        []solana.PublicKey
	ComputeUnitEstimate uint32
}

// RawInstruction is the strict boundary representation of an aggregator
// instruction, validated field by field before entering the assembler.
type RawInstruction struct {
	Program solana.PublicKey
	Metas   []*solana.AccountMeta
	Bytes   []byte
}

func (i *RawInstruction) ProgramID() solana.PublicKey {
	return i.Program
}

func (i *RawInstruction) Accounts() []*solana.AccountMeta {
	return i.Metas
}

func (i *RawInstruction) Data() ([]byte, error) {
	return i.Bytes, nil
}
