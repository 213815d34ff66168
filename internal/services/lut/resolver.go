// Package lut resolves and caches Address Lookup Table states so compiled
// transactions can reference many accounts compactly.
package lut

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	addresslookuptable "github.com/gagliardetto/solana-go/programs/address-lookup-table"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"

	"github.com/lumenfi/swap-engine/internal/metrics"
)

type cachedTable struct {
	addresses solana.PublicKeySlice
	fetchedAt time.Time
}

// Resolver fetches lookup-table states on demand, keyed by table address.
// Entries are shared across users; table contents change rarely, so a TTL
// in the minutes range is safe.
type Resolver struct {
	rpcClient *rpc.Client
	ttl       time.Duration

	mu     sync.RWMutex
	tables map[solana.PublicKey]cachedTable
}

func NewResolver(rpcClient *rpc.Client, ttl time.Duration) *Resolver {
	return &Resolver{
		rpcClient: rpcClient,
		ttl:       ttl,
		tables:    make(map[solana.PublicKey]cachedTable),
	}
}

// Resolve returns the address lists for the requested tables, in the shape
// solana.TransactionAddressTables expects. Deactivated tables are skipped;
// a fetch failure for one table skips it rather than failing the build,
// since the compiler falls back to full account references.
func (r *Resolver) Resolve(ctx context.Context, addrs []solana.PublicKey) map[solana.PublicKey]solana.PublicKeySlice {
	out := make(map[solana.PublicKey]solana.PublicKeySlice, len(addrs))

	for _, addr := range addrs {
		r.mu.RLock()
		cached, ok := r.tables[addr]
		r.mu.RUnlock()

		if ok && time.Since(cached.fetchedAt) < r.ttl {
			if len(cached.addresses) > 0 {
				out[addr] = cached.addresses
			}
			continue
		}

		state, err := addresslookuptable.GetAddressLookupTable(ctx, r.rpcClient, addr)
		if err != nil {
			log.Warn().Err(err).Str("lut", addr.String()).Msg("[LUTResolver] failed to fetch table")
			if ok && len(cached.addresses) > 0 {
				// stale beats absent
				out[addr] = cached.addresses
			}
			continue
		}
		if !state.IsActive() {
			log.Warn().Str("lut", addr.String()).Msg("[LUTResolver] table deactivated, skipping")
			r.store(addr, nil)
			continue
		}

		r.store(addr, state.Addresses)
		out[addr] = state.Addresses
	}

	return out
}

func (r *Resolver) store(addr solana.PublicKey, addresses solana.PublicKeySlice) {
	r.mu.Lock()
	r.tables[addr] = cachedTable{addresses: addresses, fetchedAt: time.Now()}
	size := len(r.tables)
	r.mu.Unlock()
	metrics.LUTCacheSize.Set(float64(size))
}
