package blockchain

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"

	pb "github.com/andrew-solarstorm/yellowstone-grpc-client-go/proto"
	container "github.com/thehyperflames/dicontainer-go"
	"github.com/thehyperflames/yellowstone"

	"github.com/lumenfi/swap-engine/internal/config"
)

const BLOCKHASH_CACHE_SERVICE = "cache-blockhash-svc"

// freshWindow is how long a streamed blockhash is trusted before the cache
// re-checks via RPC.
const freshWindow = 2 * time.Second

type CachedBlockhash struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
	Slot                 uint64
	UpdatedAt            time.Time
}

// BlockhashCacheService keeps a recent blockhash hot so the build pipeline
// never blocks on a GetLatestBlockhash round-trip in the common case. A
// block-meta stream feeds it; cold or stale reads fall back to RPC.
type BlockhashCacheService struct {
	container.BaseDIInstance

	mu        sync.RWMutex
	current   *CachedBlockhash
	ySvc      *yellowstone.Service
	rpcClient *rpc.Client
	subID     string
}

func (svc *BlockhashCacheService) ID() string {
	return BLOCKHASH_CACHE_SERVICE
}

func (svc *BlockhashCacheService) Configure(c container.IContainer) error {
	svc.ySvc = c.Instance(yellowstone.YELLOWSTONE_SERVICE).(*yellowstone.Service)
	rpcConfig := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
	svc.rpcClient = rpc.New(rpcConfig.RPCUrl)
	return nil
}

func (svc *BlockhashCacheService) Start() error {
	ctx := context.Background()
	if err := svc.fetchInitialBlockhash(ctx); err != nil {
		log.Warn().Err(err).Msg("[BlockhashCache] initial fetch failed, will retry on first request")
	}

	subID, err := svc.ySvc.SubscribeBlockMeta(svc.handleBlockMeta)
	if err != nil {
		log.Error().Err(err).Msg("[BlockhashCache] failed to subscribe to block meta")
		return err
	}
	svc.subID = subID
	log.Info().Str("subID", subID).Msg("[BlockhashCache] subscribed to block meta")

	return nil
}

func (svc *BlockhashCacheService) Stop() error {
	if svc.subID != "" {
		return svc.ySvc.Unsubscribe(svc.subID)
	}
	return nil
}

func (svc *BlockhashCacheService) fetchInitialBlockhash(ctx context.Context) error {
	res, err := svc.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return err
	}

	svc.set(&CachedBlockhash{
		Blockhash:            res.Value.Blockhash,
		LastValidBlockHeight: res.Value.LastValidBlockHeight,
		Slot:                 res.Context.Slot,
		UpdatedAt:            time.Now(),
	})
	return nil
}

func (svc *BlockhashCacheService) handleBlockMeta(update *pb.SubscribeUpdate) error {
	blockMeta := update.GetBlockMeta()
	if blockMeta == nil {
		return nil
	}

	blockhash, err := solana.HashFromBase58(blockMeta.GetBlockhash())
	if err != nil {
		return nil
	}

	blockHeight := uint64(0)
	if bh := blockMeta.GetBlockHeight(); bh != nil {
		blockHeight = bh.GetBlockHeight()
	}

	svc.set(&CachedBlockhash{
		Blockhash:            blockhash,
		LastValidBlockHeight: blockHeight + 150,
		Slot:                 blockMeta.GetSlot(),
		UpdatedAt:            time.Now(),
	})
	return nil
}

func (svc *BlockhashCacheService) set(c *CachedBlockhash) {
	svc.mu.Lock()
	svc.current = c
	svc.mu.Unlock()
}

// GetBlockhash returns a fresh blockhash plus its expiry height. A stale
// cached value is served when RPC is unavailable rather than failing the
// build.
func (svc *BlockhashCacheService) GetBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	svc.mu.RLock()
	cached := svc.current
	svc.mu.RUnlock()

	if cached != nil && time.Since(cached.UpdatedAt) < freshWindow {
		return cached.Blockhash, cached.LastValidBlockHeight, nil
	}

	res, err := svc.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		if cached != nil {
			return cached.Blockhash, cached.LastValidBlockHeight, nil
		}
		return solana.Hash{}, 0, err
	}

	svc.set(&CachedBlockhash{
		Blockhash:            res.Value.Blockhash,
		LastValidBlockHeight: res.Value.LastValidBlockHeight,
		Slot:                 res.Context.Slot,
		UpdatedAt:            time.Now(),
	})

	return res.Value.Blockhash, res.Value.LastValidBlockHeight, nil
}
