package domain

import "github.com/gagliardetto/solana-go"

// ItemStatus is the lifecycle of one bundle leg. Transitions run strictly
// forward: pending -> building -> signing -> sending -> confirming ->
// confirmed, with failed reachable from any state after building.
type ItemStatus string

const (
	ItemPending    ItemStatus = "pending"
	ItemBuilding   ItemStatus = "building"
	ItemSigning    ItemStatus = "signing"
	ItemSending    ItemStatus = "sending"
	ItemConfirming ItemStatus = "confirming"
	ItemConfirmed  ItemStatus = "confirmed"
	ItemFailed     ItemStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s ItemStatus) Terminal() bool {
	return s == ItemConfirmed || s == ItemFailed
}

// BundlePhase is the global lifecycle of a bundle run.
type BundlePhase string

const (
	PhaseIdle      BundlePhase = "idle"
	PhaseExecuting BundlePhase = "executing"
	PhaseComplete  BundlePhase = "complete"
)

// BundleItem is one leg of a multi-asset purchase: a single independent
// swap into the target asset.
type BundleItem struct {
	TargetAsset solana.PublicKey
	AmountUnits uint64

	Status    ItemStatus
	ErrorMsg  string
	FeeUnits  uint64
	Signature solana.Signature
}

// BundleSnapshot is an immutable view of bundle state, safe to hand to a
// presentation layer while execution continues.
type BundleSnapshot struct {
	Phase         BundlePhase
	Items         []BundleItem
	CurrentIndex  int
	TotalFeeUnits uint64
	Cancelled     bool
}

// CompletedCount returns the number of confirmed items.
func (s BundleSnapshot) CompletedCount() int {
	n := 0
	for _, it := range s.Items {
		if it.Status == ItemConfirmed {
			n++
		}
	}
	return n
}
