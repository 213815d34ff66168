package builder

import (
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/lumenfi/swap-engine/internal/common"
	"github.com/lumenfi/swap-engine/internal/domain"
	"github.com/lumenfi/swap-engine/internal/services/priority"
	"github.com/lumenfi/swap-engine/internal/services/quote"
	"github.com/lumenfi/swap-engine/internal/services/token"
)

var errMalformedCreate = errors.New("associated token create instruction has too few accounts")

const (
	// defaultComputeUnits is used when the aggregator sends no estimate.
	defaultComputeUnits = 200_000

	// computeUnitsPerExtraInstruction is the fixed allowance added for
	// every instruction the pipeline injects beyond the aggregator's own
	// (account creations, fee transfer).
	computeUnitsPerExtraInstruction = 30_000
)

// AssembleParams carries everything the assembler needs to produce the
// final ordered instruction list for one sponsored swap.
type AssembleParams struct {
	Owner    solana.PublicKey
	Sponsor  solana.PublicKey
	Treasury solana.PublicKey

	InputMint  solana.PublicKey
	OutputMint solana.PublicKey

	InputInfo  domain.TokenProgramInfo
	OutputInfo domain.TokenProgramInfo

	Fee domain.FeeBreakdown

	Route *quote.RouteInstructions
}

// Plan is an assembled instruction set before compute-budget pricing. Core
// holds the ordered body; FeeInstruction is kept separate so the size guard
// can compile with and without it.
type Plan struct {
	// setup (sponsor-paid creates) in order, then body (swap + cleanup)
	setup []solana.Instruction
	body  []solana.Instruction

	feeInstruction solana.Instruction

	ComputeUnitLimit uint32
}

// HasFee reports whether a fee transfer is part of the plan.
func (p *Plan) HasFee() bool {
	return p.feeInstruction != nil
}

// Instructions returns the full ordered list for the given per-CU price:
// compute budget, setup, fee transfer (when includeFee), swap, cleanup.
func (p *Plan) Instructions(feePerCU uint64, includeFee bool) []solana.Instruction {
	out := make([]solana.Instruction, 0, len(p.setup)+len(p.body)+4)
	out = append(out,
		priority.NewSetComputeUnitLimitInstruction(p.ComputeUnitLimit),
		priority.NewSetComputeUnitPriceInstruction(feePerCU),
	)
	out = append(out, p.setup...)
	if includeFee && p.feeInstruction != nil {
		out = append(out, p.feeInstruction)
	}
	out = append(out, p.body...)
	return out
}

type ataIdentity struct {
	Account solana.PublicKey
	Mint    solana.PublicKey
}

// Assemble merges the aggregator's route with sponsor-paid account
// creations and the protocol fee transfer, in the fixed pipeline ordering.
func Assemble(p AssembleParams) (*Plan, error) {
	plan := &Plan{}
	seen := make(map[ataIdentity]struct{})

	// Aggregator setup instructions: rewrite token-account creations so
	// the sponsor pays rent, de-duplicated by (account, mint) since a
	// routed trade may request the same creation from multiple legs.
	for _, ix := range p.Route.Setup {
		if isWrapArtifact(ix) {
			continue
		}
		if ix.ProgramID().Equals(common.ATAProgramID) {
			rewritten, id, err := rewriteCreatePayer(ix, p.Sponsor)
			if err != nil {
				return nil, err
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			plan.setup = append(plan.setup, rewritten)
			continue
		}
		plan.setup = append(plan.setup, ix)
	}

	// Guarantee the three accounts every sponsored swap touches. Creates
	// are idempotent, so double-adding on chain is harmless, but skipping
	// known ones keeps the transaction small.
	required := []struct {
		owner solana.PublicKey
		mint  solana.PublicKey
		info  domain.TokenProgramInfo
	}{
		{p.Owner, p.InputMint, p.InputInfo},
		{p.Owner, p.OutputMint, p.OutputInfo},
		{p.Treasury, p.InputMint, p.InputInfo},
	}
	for _, r := range required {
		ata, err := token.ATAAddress(r.owner, r.mint, r.info.Program)
		if err != nil {
			return nil, err
		}
		id := ataIdentity{Account: ata, Mint: r.mint}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ix, err := token.NewCreateATAInstruction(p.Sponsor, r.owner, r.mint, r.info.Program)
		if err != nil {
			return nil, err
		}
		plan.setup = append(plan.setup, ix)
	}

	// Fee transfer: user-signed, sponsor pays the network fee. Moves the
	// protocol's cut from the user's input account to the treasury.
	if p.Fee.FeeUnits > 0 {
		source, err := token.ATAAddress(p.Owner, p.InputMint, p.InputInfo.Program)
		if err != nil {
			return nil, err
		}
		dest, err := token.ATAAddress(p.Treasury, p.InputMint, p.InputInfo.Program)
		if err != nil {
			return nil, err
		}
		plan.feeInstruction = token.NewTransferCheckedInstruction(
			p.InputInfo.Program, source, p.InputMint, dest, p.Owner,
			p.Fee.FeeUnits, p.InputInfo.Decimals,
		)
	}

	plan.body = append(plan.body, p.Route.Swap)
	for _, ix := range p.Route.Cleanup {
		if isWrapArtifact(ix) {
			continue
		}
		plan.body = append(plan.body, ix)
	}

	plan.ComputeUnitLimit = computeUnitLimit(p.Route, len(plan.setup), plan.feeInstruction != nil)

	return plan, nil
}

// computeUnitLimit derives the CU ceiling from the aggregator's estimate
// plus a fixed allowance per injected instruction.
func computeUnitLimit(route *quote.RouteInstructions, setupCount int, hasFee bool) uint32 {
	limit := route.ComputeUnitEstimate
	if limit == 0 {
		limit = defaultComputeUnits
	}

	extra := setupCount - len(route.Setup)
	if extra < 0 {
		extra = 0
	}
	if hasFee {
		extra++
	}
	limit += uint32(extra) * computeUnitsPerExtraInstruction

	if limit > common.MaxComputeUnits {
		limit = common.MaxComputeUnits
	}
	return limit
}

// rewriteCreatePayer returns an ATA-create instruction with the payer meta
// replaced by sponsor, plus the (account, mint) identity used for
// de-duplication.
func rewriteCreatePayer(ix solana.Instruction, sponsor solana.PublicKey) (solana.Instruction, ataIdentity, error) {
	metas := ix.Accounts()
	if len(metas) < 6 {
		return nil, ataIdentity{}, errMalformedCreate
	}

	data, err := ix.Data()
	if err != nil {
		return nil, ataIdentity{}, err
	}

	rewritten := make([]*solana.AccountMeta, len(metas))
	for i, m := range metas {
		copied := *m
		rewritten[i] = &copied
	}
	rewritten[0].PublicKey = sponsor

	id := ataIdentity{
		Account: metas[1].PublicKey,
		Mint:    metas[3].PublicKey,
	}

	return &quote.RawInstruction{
		Program: ix.ProgramID(),
		Metas:   rewritten,
		Bytes:   data,
	}, id, nil
}

// isWrapArtifact detects the native-coin wrap/unwrap side effects the
// pipeline must never carry: lamport transfers funding a wrap account,
// SyncNative, and the CloseAccount unwrap.
func isWrapArtifact(ix solana.Instruction) bool {
	program := ix.ProgramID()
	if program.Equals(common.SystemProgramID) {
		return true
	}
	if program.Equals(common.TokenProgramID) || program.Equals(common.Token2022ID) {
		data, err := ix.Data()
		if err != nil || len(data) == 0 {
			return false
		}
		// 17 = SyncNative, 9 = CloseAccount
		return data[0] == 17 || data[0] == 9
	}
	return false
}
