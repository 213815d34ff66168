package builder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumenfi/swap-engine/internal/common"
)

func TestParseDecimalAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		decimals uint8
		want     uint64
	}{
		{"whole number", "100", 6, 100_000_000},
		{"two decimal places", "100.00", 6, 100_000_000},
		{"fraction only", "0.5", 6, 500_000},
		{"leading dot", ".5", 6, 500_000},
		{"smallest unit", "0.000001", 6, 1},
		{"full precision", "1.234567", 6, 1_234_567},
		{"zero decimals asset", "42", 0, 42},
		{"nine decimals", "1.5", 9, 1_500_000_000},
		{"surrounding whitespace", " 3.25 ", 6, 3_250_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDecimalAmount(tt.input, tt.decimals)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseDecimalAmountRejects(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		decimals uint8
	}{
		{"empty", "", 6},
		{"only dot", ".", 6},
		{"two dots", "1.2.3", 6},
		{"letters", "12a", 6},
		{"negative", "-5", 6},
		{"too many fraction digits", "0.0000001", 6},
		{"fraction on zero-decimal asset", "1.5", 0},
		{"zero", "0", 6},
		{"zero with fraction", "0.000000", 6},
		{"exceeds uint64", "99999999999999999999", 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseDecimalAmount(tt.input, tt.decimals)
			var perr *common.PipelineError
			require.True(t, errors.As(err, &perr))
			require.Equal(t, common.CodeInvalidAmount, perr.Code)
		})
	}
}
