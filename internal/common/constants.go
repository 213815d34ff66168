// Package common contains common constants and variables used across services
package common

import "github.com/gagliardetto/solana-go"

var (
	TokenProgramID  = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	Token2022ID     = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	ATAProgramID    = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	SystemProgramID = solana.SystemProgramID

	// NativeMint is the wrapped-SOL mint. The pipeline only ever moves
	// token-program balances; wrap/unwrap side effects around this mint
	// are filtered out during assembly.
	NativeMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
)

const (
	// MaxTransactionBytes is the hard wire-size ceiling for a serialized
	// Solana transaction (IPv6 MTU minus network headers).
	MaxTransactionBytes = 1232

	// MaxComputeUnits is the per-transaction compute ceiling enforced by
	// the runtime.
	MaxComputeUnits = 1_400_000
)
