package builder

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/lumenfi/swap-engine/internal/common"
	"github.com/lumenfi/swap-engine/internal/domain"
	"github.com/lumenfi/swap-engine/internal/services/quote"
)

func compiledPlan(t *testing.T, fillerBytes int) (*Plan, assembleFixture) {
	t.Helper()
	f := newAssembleFixture()
	route := &quote.RouteInstructions{
		Swap: opaqueIx(solana.NewWallet().PublicKey(), make([]byte, fillerBytes)),
	}
	plan, err := Assemble(f.params(route, 1_000_000))
	require.NoError(t, err)
	return plan, f
}

func TestCompileSponsorIsFeePayer(t *testing.T) {
	plan, f := compiledPlan(t, 8)

	compiled, err := CompileWithSizeGuard(plan, 5000, solana.Hash{}, f.sponsor, nil)
	require.NoError(t, err)
	require.False(t, compiled.FeeDropped)
	require.Equal(t, f.sponsor, compiled.Tx.Message.AccountKeys[0],
		"the sponsor, never the user, pays the network fee")
	require.LessOrEqual(t, compiled.Size, common.MaxTransactionBytes)
}

func TestCompileWireSizeMatchesSignedForm(t *testing.T) {
	plan, f := compiledPlan(t, 8)

	compiled, err := CompileWithSizeGuard(plan, 5000, solana.Hash{}, f.sponsor, nil)
	require.NoError(t, err)

	// fill signature slots the way signing would, then compare sizes
	numSigners := int(compiled.Tx.Message.Header.NumRequiredSignatures)
	compiled.Tx.Signatures = make([]solana.Signature, numSigners)
	raw, err := compiled.Tx.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, compiled.Size, len(raw))
}

// findDegradationFiller locates a swap-instruction payload size where the
// fee-bearing transaction is over the wire ceiling but the fee-less one
// fits, exercising the degradation path deterministically.
func findDegradationFiller(t *testing.T) int {
	t.Helper()
	for filler := 800; filler < 1400; filler++ {
		plan, f := compiledPlan(t, filler)

		withFee, err := compile(plan.Instructions(5000, true), solana.Hash{}, f.sponsor, nil)
		require.NoError(t, err)
		sizeWith, err := wireSize(withFee)
		require.NoError(t, err)

		withoutFee, err := compile(plan.Instructions(5000, false), solana.Hash{}, f.sponsor, nil)
		require.NoError(t, err)
		sizeWithout, err := wireSize(withoutFee)
		require.NoError(t, err)

		if sizeWith > common.MaxTransactionBytes && sizeWithout <= common.MaxTransactionBytes {
			return filler
		}
	}
	t.Fatal("no filler size produces the degradation window")
	return 0
}

func TestCompileDropsFeeWhenOversized(t *testing.T) {
	filler := findDegradationFiller(t)
	plan, f := compiledPlan(t, filler)

	compiled, err := CompileWithSizeGuard(plan, 5000, solana.Hash{}, f.sponsor, nil)
	require.NoError(t, err)
	require.True(t, compiled.FeeDropped, "the fee must be dropped before giving up")
	require.LessOrEqual(t, compiled.Size, common.MaxTransactionBytes)
	require.Equal(t, f.sponsor, compiled.Tx.Message.AccountKeys[0])
}

func TestCompileRejectsHopelesslyLarge(t *testing.T) {
	plan, f := compiledPlan(t, 2000)

	_, err := CompileWithSizeGuard(plan, 5000, solana.Hash{}, f.sponsor, nil)
	var perr *common.PipelineError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, common.CodeTransactionTooLarge, perr.Code)
}

func TestCompileNoFeeGoesStraightToRejection(t *testing.T) {
	f := newAssembleFixture()
	route := &quote.RouteInstructions{
		Swap: opaqueIx(solana.NewWallet().PublicKey(), make([]byte, 2000)),
	}
	params := f.params(route, 0)
	params.Fee = domain.FeeBreakdown{GrossUnits: 100, NetUnits: 100}
	plan, err := Assemble(params)
	require.NoError(t, err)
	require.False(t, plan.HasFee())

	_, err = CompileWithSizeGuard(plan, 5000, solana.Hash{}, f.sponsor, nil)
	var perr *common.PipelineError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, common.CodeTransactionTooLarge, perr.Code)
}
