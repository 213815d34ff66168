package fee

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumenfi/swap-engine/internal/common"
)

func TestNewCalculatorClampsRate(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want uint16
	}{
		{"one percent", 0.01, 100},
		{"zero", 0, 0},
		{"negative clamps to zero", -0.5, 0},
		{"twenty percent ceiling", 0.2, 2000},
		{"over ceiling clamps", 0.9, 2000},
		{"rounds to whole bps", 0.01234, 123},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, NewCalculator(tt.rate).BasisPoints())
		})
	}
}

func TestSplitOnePercent(t *testing.T) {
	// 100.00 of a 6-decimal asset at 1%
	b, err := NewCalculator(0.01).Split(100_000_000)
	require.NoError(t, err)
	require.Equal(t, uint64(100_000_000), b.GrossUnits)
	require.Equal(t, uint64(1_000_000), b.FeeUnits)
	require.Equal(t, uint64(99_000_000), b.NetUnits)
	require.Equal(t, uint16(100), b.BasisPoints)
}

func TestSplitCeilingRounding(t *testing.T) {
	// 101 units at 100 bps: exact fee is 1.01, ceiling makes it 2
	b, err := NewCalculator(0.01).Split(101)
	require.NoError(t, err)
	require.Equal(t, uint64(2), b.FeeUnits)
	require.Equal(t, uint64(99), b.NetUnits)
}

func TestSplitZeroRate(t *testing.T) {
	b, err := NewCalculator(0).Split(12345)
	require.NoError(t, err)
	require.Equal(t, uint64(0), b.FeeUnits)
	require.Equal(t, uint64(12345), b.NetUnits)
}

func TestSplitRejectsZeroGross(t *testing.T) {
	_, err := NewCalculator(0.01).Split(0)
	var perr *common.PipelineError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, common.CodeInvalidAmount, perr.Code)
}

func TestSplitFeeConsumesEverything(t *testing.T) {
	// 1 unit at 1%: fee = ceil(0.01) = 1, net = 0
	_, err := NewCalculator(0.01).Split(1)
	var perr *common.PipelineError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, common.CodeAmountTooSmallForFee, perr.Code)
}

func TestSplitInvariants(t *testing.T) {
	grosses := []uint64{1, 2, 99, 100, 101, 9_999, 10_000, 10_001,
		1_000_000_000, 18_446_744_073_709_551_615}
	rates := []float64{0.0001, 0.005, 0.01, 0.05, 0.2}

	for _, rate := range rates {
		c := NewCalculator(rate)
		bps := uint64(c.BasisPoints())
		for _, gross := range grosses {
			b, err := c.Split(gross)
			if err != nil {
				var perr *common.PipelineError
				require.True(t, errors.As(err, &perr))
				require.Equal(t, common.CodeAmountTooSmallForFee, perr.Code)
				continue
			}
			require.LessOrEqual(t, b.FeeUnits, gross, "fee exceeds gross at rate %v gross %d", rate, gross)
			require.Equal(t, gross, b.FeeUnits+b.NetUnits)

			// fee = ceil(gross*bps/10000): fee*10000 covers gross*bps but
			// (fee-1)*10000 does not. Checked without overflow via the
			// quotient form.
			if bps > 0 {
				require.Equal(t, ceilBps(gross, c.BasisPoints()), b.FeeUnits)
			}
		}
	}
}
