package domain

// FeeBreakdown splits a gross trade amount into the protocol's cut and the
// net amount that actually gets routed through the aggregator.
type FeeBreakdown struct {
	GrossUnits uint64

	// BasisPoints is the applied rate after clamping to [0, 2000].
	BasisPoints uint16

	// FeeUnits is ceil(gross * bps / 10000), so the protocol never
	// under-collects through truncation. Always <= GrossUnits.
	FeeUnits uint64

	// NetUnits = GrossUnits - FeeUnits.
	NetUnits uint64
}
