package token

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/lumenfi/swap-engine/internal/common"
)

func TestATAAddressMatchesStandardDerivation(t *testing.T) {
	wallet := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	got, err := ATAAddress(wallet, mint, common.TokenProgramID)
	require.NoError(t, err)

	want, _, err := solana.FindAssociatedTokenAddress(wallet, mint)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestATAAddressVariesByTokenProgram(t *testing.T) {
	wallet := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	legacy, err := ATAAddress(wallet, mint, common.TokenProgramID)
	require.NoError(t, err)
	t2022, err := ATAAddress(wallet, mint, common.Token2022ID)
	require.NoError(t, err)
	require.NotEqual(t, legacy, t2022)
}

func TestCreateATAInstruction(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	ix, err := NewCreateATAInstruction(payer, owner, mint, common.TokenProgramID)
	require.NoError(t, err)
	require.Equal(t, common.ATAProgramID, ix.ProgramID())

	data, err := ix.Data()
	require.NoError(t, err)
	require.Equal(t, []byte{1}, data, "must use the idempotent create discriminator")

	metas := ix.Accounts()
	require.Len(t, metas, 6)
	require.Equal(t, payer, metas[0].PublicKey)
	require.True(t, metas[0].IsSigner)
	require.True(t, metas[0].IsWritable)

	ata, err := ATAAddress(owner, mint, common.TokenProgramID)
	require.NoError(t, err)
	require.Equal(t, ata, metas[1].PublicKey)
	require.Equal(t, owner, metas[2].PublicKey)
	require.Equal(t, mint, metas[3].PublicKey)
	require.Equal(t, common.SystemProgramID, metas[4].PublicKey)
	require.Equal(t, common.TokenProgramID, metas[5].PublicKey)
}

func TestTransferCheckedInstruction(t *testing.T) {
	source := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	dest := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	ix := NewTransferCheckedInstruction(common.Token2022ID, source, mint, dest, owner, 1_000_000, 6)
	require.Equal(t, common.Token2022ID, ix.ProgramID())

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 10)
	require.Equal(t, byte(12), data[0])
	require.Equal(t, uint64(1_000_000), binary.LittleEndian.Uint64(data[1:9]))
	require.Equal(t, byte(6), data[9])

	metas := ix.Accounts()
	require.Len(t, metas, 4)
	require.True(t, metas[0].IsWritable)
	require.True(t, metas[2].IsWritable)
	require.True(t, metas[3].IsSigner)
	require.Equal(t, owner, metas[3].PublicKey)
}
