package builder

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/lumenfi/swap-engine/internal/common"
	"github.com/lumenfi/swap-engine/internal/domain"
	"github.com/lumenfi/swap-engine/internal/services/quote"
	"github.com/lumenfi/swap-engine/internal/services/token"
)

type assembleFixture struct {
	owner    solana.PublicKey
	sponsor  solana.PublicKey
	treasury solana.PublicKey
	input    solana.PublicKey
	output   solana.PublicKey
}

func newAssembleFixture() assembleFixture {
	return assembleFixture{
		owner:    solana.NewWallet().PublicKey(),
		sponsor:  solana.NewWallet().PublicKey(),
		treasury: solana.NewWallet().PublicKey(),
		input:    solana.NewWallet().PublicKey(),
		output:   solana.NewWallet().PublicKey(),
	}
}

func (f assembleFixture) params(route *quote.RouteInstructions, feeUnits uint64) AssembleParams {
	return AssembleParams{
		Owner:      f.owner,
		Sponsor:    f.sponsor,
		Treasury:   f.treasury,
		InputMint:  f.input,
		OutputMint: f.output,
		InputInfo:  domain.TokenProgramInfo{Program: common.TokenProgramID, Decimals: 6},
		OutputInfo: domain.TokenProgramInfo{Program: common.TokenProgramID, Decimals: 9},
		Fee: domain.FeeBreakdown{
			GrossUnits:  100_000_000,
			BasisPoints: 100,
			FeeUnits:    feeUnits,
			NetUnits:    100_000_000 - feeUnits,
		},
		Route: route,
	}
}

func createIx(t *testing.T, payer, owner, mint solana.PublicKey) solana.Instruction {
	t.Helper()
	ata, err := token.ATAAddress(owner, mint, common.TokenProgramID)
	require.NoError(t, err)
	return &quote.RawInstruction{
		Program: common.ATAProgramID,
		Metas: []*solana.AccountMeta{
			{PublicKey: payer, IsSigner: true, IsWritable: true},
			{PublicKey: ata, IsWritable: true},
			{PublicKey: owner},
			{PublicKey: mint},
			{PublicKey: common.SystemProgramID},
			{PublicKey: common.TokenProgramID},
		},
		Bytes: []byte{1},
	}
}

func opaqueIx(program solana.PublicKey, data []byte) solana.Instruction {
	return &quote.RawInstruction{
		Program: program,
		Metas: []*solana.AccountMeta{
			{PublicKey: solana.NewWallet().PublicKey(), IsWritable: true},
		},
		Bytes: data,
	}
}

func TestAssembleRewritesCreatePayerToSponsor(t *testing.T) {
	f := newAssembleFixture()
	route := &quote.RouteInstructions{
		Setup: []solana.Instruction{createIx(t, f.owner, f.owner, f.output)},
		Swap:  opaqueIx(solana.NewWallet().PublicKey(), []byte{0xaa}),
	}

	plan, err := Assemble(f.params(route, 1_000_000))
	require.NoError(t, err)

	for _, ix := range plan.setup {
		require.Equal(t, common.ATAProgramID, ix.ProgramID())
		require.Equal(t, f.sponsor, ix.Accounts()[0].PublicKey, "every creation must be sponsor-paid")
		require.True(t, ix.Accounts()[0].IsSigner)
	}
}

func TestAssembleDeduplicatesCreates(t *testing.T) {
	f := newAssembleFixture()
	// the aggregator asks for the user's output account twice, and the
	// guaranteed-creates step would add it a third time
	route := &quote.RouteInstructions{
		Setup: []solana.Instruction{
			createIx(t, f.owner, f.owner, f.output),
			createIx(t, f.owner, f.owner, f.output),
		},
		Swap: opaqueIx(solana.NewWallet().PublicKey(), []byte{0xaa}),
	}

	plan, err := Assemble(f.params(route, 1_000_000))
	require.NoError(t, err)

	// one deduped aggregator create plus user-input and treasury-input
	require.Len(t, plan.setup, 3)

	seen := make(map[string]bool)
	for _, ix := range plan.setup {
		ata := ix.Accounts()[1].PublicKey.String()
		require.False(t, seen[ata], "account %s created twice", ata)
		seen[ata] = true
	}
}

func TestAssembleGuaranteesRequiredAccounts(t *testing.T) {
	f := newAssembleFixture()
	route := &quote.RouteInstructions{
		Swap: opaqueIx(solana.NewWallet().PublicKey(), []byte{0xaa}),
	}

	plan, err := Assemble(f.params(route, 1_000_000))
	require.NoError(t, err)
	require.Len(t, plan.setup, 3)

	userInput, err := token.ATAAddress(f.owner, f.input, common.TokenProgramID)
	require.NoError(t, err)
	userOutput, err := token.ATAAddress(f.owner, f.output, common.TokenProgramID)
	require.NoError(t, err)
	treasuryInput, err := token.ATAAddress(f.treasury, f.input, common.TokenProgramID)
	require.NoError(t, err)

	created := map[string]bool{}
	for _, ix := range plan.setup {
		created[ix.Accounts()[1].PublicKey.String()] = true
	}
	require.True(t, created[userInput.String()])
	require.True(t, created[userOutput.String()])
	require.True(t, created[treasuryInput.String()])
}

func TestAssembleFiltersWrapArtifacts(t *testing.T) {
	f := newAssembleFixture()
	route := &quote.RouteInstructions{
		Setup: []solana.Instruction{
			opaqueIx(common.SystemProgramID, []byte{2, 0, 0, 0}), // lamport transfer
			opaqueIx(common.TokenProgramID, []byte{17}),          // SyncNative
		},
		Swap: opaqueIx(solana.NewWallet().PublicKey(), []byte{0xaa}),
		Cleanup: []solana.Instruction{
			opaqueIx(common.TokenProgramID, []byte{9}), // CloseAccount unwrap
		},
	}

	plan, err := Assemble(f.params(route, 1_000_000))
	require.NoError(t, err)

	// only the three guaranteed creates survive setup
	require.Len(t, plan.setup, 3)
	// the unwrap is dropped from the body, leaving just the swap
	require.Len(t, plan.body, 1)
}

func TestAssembleFeeTransfer(t *testing.T) {
	f := newAssembleFixture()
	route := &quote.RouteInstructions{
		Swap: opaqueIx(solana.NewWallet().PublicKey(), []byte{0xaa}),
	}

	plan, err := Assemble(f.params(route, 1_000_000))
	require.NoError(t, err)
	require.True(t, plan.HasFee())

	fee := plan.feeInstruction
	require.Equal(t, common.TokenProgramID, fee.ProgramID())

	userInput, err := token.ATAAddress(f.owner, f.input, common.TokenProgramID)
	require.NoError(t, err)
	treasuryInput, err := token.ATAAddress(f.treasury, f.input, common.TokenProgramID)
	require.NoError(t, err)

	metas := fee.Accounts()
	require.Equal(t, userInput, metas[0].PublicKey)
	require.Equal(t, f.input, metas[1].PublicKey)
	require.Equal(t, treasuryInput, metas[2].PublicKey)
	require.Equal(t, f.owner, metas[3].PublicKey)
	require.True(t, metas[3].IsSigner, "the owner signs the fee transfer")
}

func TestAssembleNoFeeInstructionAtZeroFee(t *testing.T) {
	f := newAssembleFixture()
	route := &quote.RouteInstructions{
		Swap: opaqueIx(solana.NewWallet().PublicKey(), []byte{0xaa}),
	}

	plan, err := Assemble(f.params(route, 0))
	require.NoError(t, err)
	require.False(t, plan.HasFee())

	withFee := plan.Instructions(1000, true)
	withoutFee := plan.Instructions(1000, false)
	require.Equal(t, len(withFee), len(withoutFee))
}

func TestAssembleInstructionOrdering(t *testing.T) {
	f := newAssembleFixture()
	route := &quote.RouteInstructions{
		Swap:                opaqueIx(solana.NewWallet().PublicKey(), []byte{0xaa}),
		ComputeUnitEstimate: 300_000,
	}

	plan, err := Assemble(f.params(route, 1_000_000))
	require.NoError(t, err)

	ixs := plan.Instructions(5000, true)
	// budget limit, budget price, 3 creates, fee, swap
	require.Len(t, ixs, 7)

	for i := 0; i < 2; i++ {
		require.Equal(t, "ComputeBudget111111111111111111111111111111", ixs[i].ProgramID().String())
	}
	limitData, err := ixs[0].Data()
	require.NoError(t, err)
	require.Equal(t, byte(2), limitData[0])
	priceData, err := ixs[1].Data()
	require.NoError(t, err)
	require.Equal(t, byte(3), priceData[0])

	require.Equal(t, plan.feeInstruction, ixs[5])
	require.Equal(t, route.Swap, ixs[6])
}

func TestComputeUnitLimit(t *testing.T) {
	f := newAssembleFixture()

	route := &quote.RouteInstructions{
		Swap:                opaqueIx(solana.NewWallet().PublicKey(), []byte{0xaa}),
		ComputeUnitEstimate: 300_000,
	}
	plan, err := Assemble(f.params(route, 1_000_000))
	require.NoError(t, err)
	// three injected creates plus the fee transfer
	require.Equal(t, uint32(300_000+4*computeUnitsPerExtraInstruction), plan.ComputeUnitLimit)

	// no estimate falls back to the default
	route = &quote.RouteInstructions{Swap: opaqueIx(solana.NewWallet().PublicKey(), []byte{0xaa})}
	plan, err = Assemble(f.params(route, 0))
	require.NoError(t, err)
	require.Equal(t, uint32(defaultComputeUnits+3*computeUnitsPerExtraInstruction), plan.ComputeUnitLimit)

	// the ceiling holds
	route = &quote.RouteInstructions{
		Swap:                opaqueIx(solana.NewWallet().PublicKey(), []byte{0xaa}),
		ComputeUnitEstimate: common.MaxComputeUnits,
	}
	plan, err = Assemble(f.params(route, 1_000_000))
	require.NoError(t, err)
	require.Equal(t, uint32(common.MaxComputeUnits), plan.ComputeUnitLimit)
}
