// Package token resolves mint metadata and derives associated token
// accounts for the sponsored swap pipeline.
package token

import (
	"context"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	splToken "github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/lumenfi/swap-engine/internal/common"
	"github.com/lumenfi/swap-engine/internal/domain"
	"github.com/lumenfi/swap-engine/internal/metrics"
)

const (
	metadataCacheMaxSize = 10000

	// A mint account must at least span the decimals field
	// (mint authority option 4 + authority 32 + supply 8 + decimals 1).
	mintAccountMinLen = 45
)

// AccountReader is the subset of the RPC client the resolver needs; tests
// substitute a deterministic fake.
type AccountReader interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
}

// Resolver answers which token program owns a mint and how many decimals it
// carries. A mint's program and decimals never change after creation, so
// results are cached for the process lifetime.
type Resolver struct {
	reader AccountReader
	cache  *boundedLRU[solana.PublicKey, domain.TokenProgramInfo]
}

func NewResolver(reader AccountReader) *Resolver {
	return &Resolver{
		reader: reader,
		cache:  newBoundedLRU[solana.PublicKey, domain.TokenProgramInfo](metadataCacheMaxSize),
	}
}

// Resolve returns the owning token program and decimal precision for mint.
// Missing or truncated accounts surface as AssetNotFound.
func (r *Resolver) Resolve(ctx context.Context, mint solana.PublicKey) (domain.TokenProgramInfo, error) {
	if cached, ok := r.cache.Get(mint); ok {
		return cached, nil
	}

	info, err := r.reader.GetAccountInfo(ctx, mint)
	if err != nil {
		return domain.TokenProgramInfo{}, err
	}
	if info == nil || info.Value == nil {
		return domain.TokenProgramInfo{}, common.ErrAssetNotFound(mint.String())
	}

	data := info.Value.Data.GetBinary()
	if len(data) < mintAccountMinLen {
		return domain.TokenProgramInfo{}, common.ErrAssetNotFound(mint.String())
	}

	var mintState splToken.Mint
	if err := bin.NewBinDecoder(data).Decode(&mintState); err != nil {
		return domain.TokenProgramInfo{}, common.ErrAssetNotFound(mint.String())
	}

	program := common.TokenProgramID
	if info.Value.Owner.Equals(common.Token2022ID) {
		program = common.Token2022ID
	}

	resolved := domain.TokenProgramInfo{Program: program, Decimals: mintState.Decimals}
	r.cache.Set(mint, resolved)
	metrics.TokenCacheSize.Set(float64(r.cache.Size()))
	return resolved, nil
}
