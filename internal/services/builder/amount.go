package builder

import (
	"math/big"
	"strings"

	"github.com/lumenfi/swap-engine/internal/common"
)

// parseDecimalAmount converts a human-readable decimal amount into base
// units for an asset with the given number of decimals. The string must be
// plain digits with at most one dot, carry no more fractional digits than
// the asset supports, and scale to a positive value that fits in 64 bits.
func parseDecimalAmount(s string, decimals uint8) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, common.ErrInvalidAmount("amount is empty")
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
		if strings.IndexByte(frac, '.') >= 0 {
			return 0, common.ErrInvalidAmount("amount has multiple decimal points")
		}
	}
	if whole == "" && frac == "" {
		return 0, common.ErrInvalidAmount("amount has no digits")
	}
	if !isDigits(whole) || !isDigits(frac) {
		return 0, common.ErrInvalidAmount("amount must contain only digits and an optional decimal point")
	}
	if len(frac) > int(decimals) {
		return 0, common.ErrInvalidAmount("amount has more fractional digits than the asset supports")
	}

	// Pad the fraction out to the asset's full precision, then treat the
	// concatenation as an integer in base units.
	padded := frac + strings.Repeat("0", int(decimals)-len(frac))
	units := new(big.Int)
	if _, ok := units.SetString(whole+padded, 10); !ok {
		return 0, common.ErrInvalidAmount("amount is not a valid number")
	}
	if !units.IsUint64() {
		return 0, common.ErrInvalidAmount("amount is too large")
	}
	v := units.Uint64()
	if v == 0 {
		return 0, common.ErrInvalidAmount("amount must be greater than zero")
	}
	return v, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
