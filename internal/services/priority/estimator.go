// Package priority estimates a competitive per-compute-unit price from
// network congestion, with a provider-specific path and a generic RPC
// sampling fallback.
package priority

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"

	"github.com/lumenfi/swap-engine/internal/config"
	"github.com/lumenfi/swap-engine/internal/metrics"
)

// feePercentile is the sampling percentile used by the RPC fallback.
// p75 tracks "normal swap" urgency.
const feePercentile = 75

// RecentFeeSampler is the RPC surface the fallback path needs.
type RecentFeeSampler interface {
	GetRecentPrioritizationFees(ctx context.Context, accounts solana.PublicKeySlice) ([]rpc.PriorizationFeeResult, error)
}

type cachedEstimate struct {
	feePerCU  uint64
	updatedAt time.Time
}

// Estimator produces clamped per-CU prices, cached for a short window since
// congestion is volatile.
type Estimator struct {
	sampler    RecentFeeSampler
	httpClient *http.Client
	cfg        *config.PriorityFeeConfig

	mu      sync.RWMutex
	current *cachedEstimate
}

func NewEstimator(sampler RecentFeeSampler, cfg *config.PriorityFeeConfig) *Estimator {
	return &Estimator{
		sampler:    sampler,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		cfg:        cfg,
	}
}

// Estimate returns a per-CU price in microlamports, clamped to the
// configured range. Estimation never fails the build: if both the provider
// and the RPC fallback are unavailable, the clamp floor is returned.
func (e *Estimator) Estimate(ctx context.Context, accounts []solana.PublicKey) uint64 {
	e.mu.RLock()
	cached := e.current
	e.mu.RUnlock()

	if cached != nil && time.Since(cached.updatedAt) < e.cfg.CacheTTL {
		return cached.feePerCU
	}

	feePerCU, err := e.fromProvider(ctx, accounts)
	if err != nil {
		metrics.PriorityFeeFallbacks.Inc()
		feePerCU, err = e.fromRecentFees(ctx, accounts)
		if err != nil {
			log.Warn().Err(err).Msg("[PriorityEstimator] all estimation paths failed, using clamp floor")
			feePerCU = e.cfg.MinMicroLamports
		}
	}

	feePerCU = e.clamp(feePerCU)
	metrics.PriorityFeeMicroLamports.Set(float64(feePerCU))

	e.mu.Lock()
	e.current = &cachedEstimate{feePerCU: feePerCU, updatedAt: time.Now()}
	e.mu.Unlock()

	return feePerCU
}

// CapForBudget lowers feePerCU so the total priority spend for cuLimit
// compute units never exceeds the configured lamport ceiling.
func (e *Estimator) CapForBudget(feePerCU uint64, cuLimit uint32) uint64 {
	if cuLimit == 0 || e.cfg.MaxTotalLamports == 0 {
		return feePerCU
	}
	maxPerCU := e.cfg.MaxTotalLamports * 1_000_000 / uint64(cuLimit)
	if feePerCU > maxPerCU {
		return maxPerCU
	}
	return feePerCU
}

func (e *Estimator) clamp(feePerCU uint64) uint64 {
	if feePerCU < e.cfg.MinMicroLamports {
		return e.cfg.MinMicroLamports
	}
	if e.cfg.MaxMicroLamports > 0 && feePerCU > e.cfg.MaxMicroLamports {
		return e.cfg.MaxMicroLamports
	}
	return feePerCU
}

type providerRequest struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      int              `json:"id"`
	Method  string           `json:"method"`
	Params  []providerParams `json:"params"`
}

type providerParams struct {
	AccountKeys []string        `json:"accountKeys,omitempty"`
	Options     providerOptions `json:"options"`
}

type providerOptions struct {
	Recommended bool `json:"recommended"`
}

type providerResponse struct {
	Result *struct {
		PriorityFeeEstimate float64 `json:"priorityFeeEstimate"`
	} `json:"result"`
}

// fromProvider calls the specialized estimation endpoint keyed by the
// accounts the transaction touches.
func (e *Estimator) fromProvider(ctx context.Context, accounts []solana.PublicKey) (uint64, error) {
	if e.cfg.ProviderURL == "" {
		return 0, errors.New("no provider configured")
	}

	keys := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		keys = append(keys, acc.String())
	}

	payload, err := sonic.Marshal(providerRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getPriorityFeeEstimate",
		Params:  []providerParams{{AccountKeys: keys, Options: providerOptions{Recommended: true}}},
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.ProviderURL, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, errors.New("provider returned non-200 status")
	}

	var decoded providerResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return 0, err
	}
	if decoded.Result == nil || decoded.Result.PriorityFeeEstimate <= 0 {
		return 0, errors.New("provider returned no estimate")
	}

	return uint64(decoded.Result.PriorityFeeEstimate), nil
}

// fromRecentFees samples recent prioritization fees over the involved
// accounts and takes a percentile.
func (e *Estimator) fromRecentFees(ctx context.Context, accounts []solana.PublicKey) (uint64, error) {
	recent, err := e.sampler.GetRecentPrioritizationFees(ctx, accounts)
	if err != nil {
		return 0, err
	}

	fees := make([]uint64, 0, len(recent))
	for _, f := range recent {
		if f.PrioritizationFee > 0 {
			fees = append(fees, f.PrioritizationFee)
		}
	}
	if len(fees) == 0 {
		return 0, errors.New("no recent prioritization fees")
	}

	sort.Slice(fees, func(i, j int) bool { return fees[i] < fees[j] })
	return percentile(fees, feePercentile), nil
}

// percentile returns the linearly interpolated value at p over sorted.
func percentile(sorted []uint64, p int) uint64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	k := float64(p) / 100.0 * float64(len(sorted)-1)
	f := int(k)
	c := f + 1
	if c >= len(sorted) {
		c = len(sorted) - 1
	}

	d := k - float64(f)
	return uint64(float64(sorted[f])*(1-d) + float64(sorted[c])*d)
}
