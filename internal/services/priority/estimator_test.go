package priority

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/require"

	"github.com/lumenfi/swap-engine/internal/config"
)

type fakeSampler struct {
	fees  []uint64
	err   error
	calls int
}

func (f *fakeSampler) GetRecentPrioritizationFees(ctx context.Context, accounts solana.PublicKeySlice) ([]rpc.PriorizationFeeResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]rpc.PriorizationFeeResult, len(f.fees))
	for i, fee := range f.fees {
		out[i] = rpc.PriorizationFeeResult{Slot: uint64(i), PrioritizationFee: fee}
	}
	return out, nil
}

func testConfig() *config.PriorityFeeConfig {
	return &config.PriorityFeeConfig{
		MinMicroLamports: 1000,
		MaxMicroLamports: 2_000_000,
		MaxTotalLamports: 1_000_000,
		CacheTTL:         10 * time.Second,
	}
}

func TestEstimateFallsBackToRecentFees(t *testing.T) {
	// no provider configured, so the RPC sampling path is used
	sampler := &fakeSampler{fees: []uint64{1000, 2000, 3000, 4000, 5000}}
	est := NewEstimator(sampler, testConfig())

	got := est.Estimate(context.Background(), nil)
	// p75 over five sorted samples interpolates to the fourth value
	require.Equal(t, uint64(4000), got)
	require.Equal(t, 1, sampler.calls)
}

func TestEstimateCachesWithinTTL(t *testing.T) {
	sampler := &fakeSampler{fees: []uint64{5000}}
	est := NewEstimator(sampler, testConfig())

	first := est.Estimate(context.Background(), nil)
	second := est.Estimate(context.Background(), nil)
	require.Equal(t, first, second)
	require.Equal(t, 1, sampler.calls)
}

func TestEstimateClampFloorWhenAllPathsFail(t *testing.T) {
	sampler := &fakeSampler{err: errors.New("rpc down")}
	est := NewEstimator(sampler, testConfig())

	require.Equal(t, uint64(1000), est.Estimate(context.Background(), nil))
}

func TestEstimateClampsToRange(t *testing.T) {
	sampler := &fakeSampler{fees: []uint64{50_000_000}}
	est := NewEstimator(sampler, testConfig())

	require.Equal(t, uint64(2_000_000), est.Estimate(context.Background(), nil))
}

func TestEstimateUsesProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"priorityFeeEstimate":12345.0}}`))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.ProviderURL = server.URL
	sampler := &fakeSampler{fees: []uint64{99}}
	est := NewEstimator(sampler, cfg)

	require.Equal(t, uint64(12345), est.Estimate(context.Background(), nil))
	require.Equal(t, 0, sampler.calls, "provider success must not hit the RPC fallback")
}

func TestEstimateProviderFailureFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.ProviderURL = server.URL
	sampler := &fakeSampler{fees: []uint64{7000}}
	est := NewEstimator(sampler, cfg)

	require.Equal(t, uint64(7000), est.Estimate(context.Background(), nil))
	require.Equal(t, 1, sampler.calls)
}

func TestCapForBudget(t *testing.T) {
	est := NewEstimator(&fakeSampler{}, testConfig())

	// 1_000_000 lamports over 200_000 CU allows 5_000_000 micro per CU
	require.Equal(t, uint64(3000), est.CapForBudget(3000, 200_000))
	require.Equal(t, uint64(5_000_000), est.CapForBudget(9_000_000, 200_000))
	// zero CU limit leaves the price untouched
	require.Equal(t, uint64(9_000_000), est.CapForBudget(9_000_000, 0))
}

func TestPercentile(t *testing.T) {
	sorted := []uint64{10, 20, 30, 40}
	require.Equal(t, uint64(10), percentile(sorted, 0))
	require.Equal(t, uint64(40), percentile(sorted, 100))
	require.Equal(t, uint64(25), percentile(sorted, 50))
	require.Equal(t, uint64(100), percentile([]uint64{100}, 75))
}
