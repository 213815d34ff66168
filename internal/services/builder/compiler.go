package builder

import (
	"github.com/gagliardetto/solana-go"

	"github.com/lumenfi/swap-engine/internal/common"
	"github.com/lumenfi/swap-engine/internal/metrics"
)

// CompiledTransaction is the output of the size guard: a v0 transaction
// that fits the wire limit, plus whether the protocol fee had to be
// dropped to get there.
type CompiledTransaction struct {
	Tx         *solana.Transaction
	Size       int
	FeeDropped bool
}

// compile builds a v0 transaction with the sponsor as fee payer. An empty
// table map still yields a valid v0 message.
func compile(
	instructions []solana.Instruction,
	blockhash solana.Hash,
	sponsor solana.PublicKey,
	tables map[solana.PublicKey]solana.PublicKeySlice,
) (*solana.Transaction, error) {
	return solana.NewTransaction(
		instructions,
		blockhash,
		solana.TransactionPayer(sponsor),
		solana.TransactionAddressTables(tables),
	)
}

// wireSize reports the serialized size of the transaction once fully
// signed. The message is built but unsigned at this point, so signature
// space is added explicitly: one byte for the compact array length plus 64
// bytes per required signer.
func wireSize(tx *solana.Transaction) (int, error) {
	msgBytes, err := tx.Message.MarshalBinary()
	if err != nil {
		return 0, err
	}
	return 1 + 64*int(tx.Message.Header.NumRequiredSignatures) + len(msgBytes), nil
}

// CompileWithSizeGuard enforces the packet ceiling. The fee-bearing form
// is tried first; when it does not fit, the fee transfer is dropped and
// the transaction rebuilt. A transaction too large even without the fee is
// rejected outright.
func CompileWithSizeGuard(
	plan *Plan,
	feePerCU uint64,
	blockhash solana.Hash,
	sponsor solana.PublicKey,
	tables map[solana.PublicKey]solana.PublicKeySlice,
) (*CompiledTransaction, error) {
	tx, err := compile(plan.Instructions(feePerCU, true), blockhash, sponsor, tables)
	if err != nil {
		return nil, err
	}
	size, err := wireSize(tx)
	if err != nil {
		return nil, err
	}
	if size <= common.MaxTransactionBytes {
		metrics.TransactionSize.Observe(float64(size))
		return &CompiledTransaction{Tx: tx, Size: size}, nil
	}

	if !plan.HasFee() {
		return nil, common.ErrTransactionTooLarge(size)
	}

	tx, err = compile(plan.Instructions(feePerCU, false), blockhash, sponsor, tables)
	if err != nil {
		return nil, err
	}
	size, err = wireSize(tx)
	if err != nil {
		return nil, err
	}
	if size > common.MaxTransactionBytes {
		return nil, common.ErrTransactionTooLarge(size)
	}

	metrics.FeeDegradations.Inc()
	metrics.TransactionSize.Observe(float64(size))
	return &CompiledTransaction{Tx: tx, Size: size, FeeDropped: true}, nil
}
