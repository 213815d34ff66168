package token

import (
	"encoding/binary"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/lumenfi/swap-engine/internal/common"
)

type ataKey struct {
	Wallet       solana.PublicKey
	Mint         solana.PublicKey
	TokenProgram solana.PublicKey
}

var (
	ataCache   = make(map[ataKey]solana.PublicKey)
	ataCacheMu sync.RWMutex
)

// ATAAddress derives the associated token account for wallet/mint under the
// given token program. Derivation is deterministic, so results are cached
// for the process lifetime.
func ATAAddress(wallet, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	key := ataKey{Wallet: wallet, Mint: mint, TokenProgram: tokenProgram}

	ataCacheMu.RLock()
	if cached, ok := ataCache[key]; ok {
		ataCacheMu.RUnlock()
		return cached, nil
	}
	ataCacheMu.RUnlock()

	ata, _, err := solana.FindProgramAddress(
		[][]byte{
			wallet[:],
			tokenProgram[:],
			mint[:],
		},
		common.ATAProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, err
	}

	ataCacheMu.Lock()
	ataCache[key] = ata
	ataCacheMu.Unlock()

	return ata, nil
}

// NewCreateATAInstruction builds an idempotent ATA creation instruction
// with payer covering the rent. Works for both the legacy token program
// and token-2022.
func NewCreateATAInstruction(payer, owner, mint, tokenProgram solana.PublicKey) (solana.Instruction, error) {
	ata, err := ATAAddress(owner, mint, tokenProgram)
	if err != nil {
		return nil, err
	}
	return &createATAInstruction{
		payer:        payer,
		ata:          ata,
		owner:        owner,
		mint:         mint,
		tokenProgram: tokenProgram,
	}, nil
}

type createATAInstruction struct {
	payer        solana.PublicKey
	ata          solana.PublicKey
	owner        solana.PublicKey
	mint         solana.PublicKey
	tokenProgram solana.PublicKey
}

func (i *createATAInstruction) ProgramID() solana.PublicKey {
	return common.ATAProgramID
}

func (i *createATAInstruction) Accounts() []*solana.AccountMeta {
	return []*solana.AccountMeta{
		{PublicKey: i.payer, IsSigner: true, IsWritable: true},
		{PublicKey: i.ata, IsSigner: false, IsWritable: true},
		{PublicKey: i.owner, IsSigner: false, IsWritable: false},
		{PublicKey: i.mint, IsSigner: false, IsWritable: false},
		{PublicKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: i.tokenProgram, IsSigner: false, IsWritable: false},
	}
}

func (i *createATAInstruction) Data() ([]byte, error) {
	// CreateIdempotent discriminator
	return []byte{1}, nil
}

// NewTransferCheckedInstruction builds a TransferChecked moving amount from
// source to dest, signed by owner. Program-generic so token-2022 assets use
// their own program id.
func NewTransferCheckedInstruction(tokenProgram, source, mint, dest, owner solana.PublicKey, amount uint64, decimals uint8) solana.Instruction {
	return &transferCheckedInstruction{
		tokenProgram: tokenProgram,
		source:       source,
		mint:         mint,
		dest:         dest,
		owner:        owner,
		amount:       amount,
		decimals:     decimals,
	}
}

type transferCheckedInstruction struct {
	tokenProgram solana.PublicKey
	source       solana.PublicKey
	mint         solana.PublicKey
	dest         solana.PublicKey
	owner        solana.PublicKey
	amount       uint64
	decimals     uint8
}

func (i *transferCheckedInstruction) ProgramID() solana.PublicKey {
	return i.tokenProgram
}

func (i *transferCheckedInstruction) Accounts() []*solana.AccountMeta {
	return []*solana.AccountMeta{
		{PublicKey: i.source, IsSigner: false, IsWritable: true},
		{PublicKey: i.mint, IsSigner: false, IsWritable: false},
		{PublicKey: i.dest, IsSigner: false, IsWritable: true},
		{PublicKey: i.owner, IsSigner: true, IsWritable: false},
	}
}

func (i *transferCheckedInstruction) Data() ([]byte, error) {
	data := make([]byte, 10)
	data[0] = 12 // TransferChecked discriminator
	binary.LittleEndian.PutUint64(data[1:9], i.amount)
	data[9] = i.decimals
	return data, nil
}
