// Package fee computes the protocol's cut of a trade.
package fee

import (
	"math"

	"github.com/holiman/uint256"

	"github.com/lumenfi/swap-engine/internal/common"
	"github.com/lumenfi/swap-engine/internal/domain"
)

const (
	bpsDenominator = 10000

	// MaxBasisPoints caps the applied rate at 20%. A misconfigured
	// deploy clamps here instead of skimming more.
	MaxBasisPoints = 2000
)

// Calculator converts a configured decimal rate into whole basis points
// once, then splits gross amounts.
type Calculator struct {
	basisPoints uint16
}

// NewCalculator clamps rate to [0, 0.2] and rounds to whole basis points.
func NewCalculator(rate float64) *Calculator {
	if rate < 0 {
		rate = 0
	}
	if rate > 0.2 {
		rate = 0.2
	}
	bps := uint16(math.Round(rate * bpsDenominator))
	if bps > MaxBasisPoints {
		bps = MaxBasisPoints
	}
	return &Calculator{basisPoints: bps}
}

// BasisPoints returns the applied whole-bps rate.
func (c *Calculator) BasisPoints() uint16 {
	return c.basisPoints
}

// Split computes the fee breakdown for gross. The fee is ceiling-rounded so
// the protocol never under-collects through truncation. A non-zero fee that
// leaves nothing to swap is rejected.
func (c *Calculator) Split(gross uint64) (domain.FeeBreakdown, error) {
	if gross == 0 {
		return domain.FeeBreakdown{}, common.ErrInvalidAmount("amount must be positive")
	}

	feeUnits := ceilBps(gross, c.basisPoints)
	if feeUnits > gross {
		// bps <= 2000 makes this unreachable, but the invariant fee <= gross
		// is cheap to keep explicit.
		feeUnits = gross
	}
	net := gross - feeUnits

	if feeUnits > 0 && net == 0 {
		return domain.FeeBreakdown{}, common.ErrAmountTooSmallForFee()
	}

	return domain.FeeBreakdown{
		GrossUnits:  gross,
		BasisPoints: c.basisPoints,
		FeeUnits:    feeUnits,
		NetUnits:    net,
	}, nil
}

// ceilBps returns ceil(gross * bps / 10000) without u64 overflow.
func ceilBps(gross uint64, bps uint16) uint64 {
	if bps == 0 {
		return 0
	}
	n := new(uint256.Int).Mul(uint256.NewInt(gross), uint256.NewInt(uint64(bps)))
	n.Add(n, uint256.NewInt(bpsDenominator-1))
	n.Div(n, uint256.NewInt(bpsDenominator))
	return n.Uint64()
}
