// Package quote talks to the external liquidity aggregator: one call prices
// the route, a second returns the raw instructions implementing it. The
// client never retries; retry policy belongs to the caller.
package quote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"

	"github.com/lumenfi/swap-engine/internal/common"
	"github.com/lumenfi/swap-engine/internal/metrics"
)

const maxErrorBodyBytes = 512

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetQuote prices a route for the net (post-fee) amount.
func (c *Client) GetQuote(ctx context.Context, p QuoteParams) (*QuoteResponse, error) {
	start := time.Now()
	defer func() {
		metrics.QuoteDuration.Observe(time.Since(start).Seconds())
	}()

	q := url.Values{}
	q.Set("inputMint", p.InputMint.String())
	q.Set("outputMint", p.OutputMint.String())
	q.Set("amount", strconv.FormatUint(p.AmountUnits, 10))
	q.Set("slippageBps", strconv.FormatUint(uint64(p.SlippageBps), 10))
	q.Set("swapMode", "ExactIn")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, common.ErrQuoteFailed(0, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.ErrQuoteFailed(resp.StatusCode, err.Error())
	}

	if resp.StatusCode != http.StatusOK {
		metrics.QuoteFailures.WithLabelValues("quote", strconv.Itoa(resp.StatusCode)).Inc()
		return nil, common.ErrQuoteFailed(resp.StatusCode, truncate(body))
	}

	var quote QuoteResponse
	if err := sonic.Unmarshal(body, &quote); err != nil {
		return nil, common.ErrQuoteFailed(resp.StatusCode, "malformed quote payload: "+err.Error())
	}
	if quote.OutAmount == "" || len(quote.RoutePlan) == 0 {
		return nil, common.ErrQuoteFailed(resp.StatusCode, "quote payload missing route")
	}
	quote.Raw = json.RawMessage(body)

	return &quote, nil
}

type instructionsRequest struct {
	UserPublicKey     string          `json:"userPublicKey"`
	WrapAndUnwrapSol  bool            `json:"wrapAndUnwrapSol"`
	UseSharedAccounts bool            `json:"useSharedAccounts"`
	QuoteResponse     json.RawMessage `json:"quoteResponse"`
}

type accountJSON struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

type instructionJSON struct {
	ProgramID string        `json:"programId"`
	Accounts  []accountJSON `json:"accounts"`
	Data      string        `json:"data"`
}

type instructionsResponse struct {
	SetupInstructions           []instructionJSON `json:"setupInstructions"`
	SwapInstruction             *instructionJSON  `json:"swapInstruction"`
	CleanupInstruction          *instructionJSON  `json:"cleanupInstruction"`
	AddressLookupTableAddresses []string          `json:"addressLookupTableAddresses"`
	ComputeUnitLimit            uint32            `json:"computeUnitLimit"`
}

// GetRouteInstructions exchanges a quote for the raw instruction set that
// implements it for owner. Native-coin wrapping is always disabled; the
// pipeline only manipulates token-program balances.
func (c *Client) GetRouteInstructions(ctx context.Context, q *QuoteResponse, owner solana.PublicKey) (*RouteInstructions, error) {
	payload, err := sonic.Marshal(instructionsRequest{
		UserPublicKey:     owner.String(),
		WrapAndUnwrapSol:  false,
		UseSharedAccounts: true,
		QuoteResponse:     q.Raw,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/swap-instructions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, common.ErrRouteBuildFailed(0, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.ErrRouteBuildFailed(resp.StatusCode, err.Error())
	}

	if resp.StatusCode != http.StatusOK {
		metrics.QuoteFailures.WithLabelValues("swap-instructions", strconv.Itoa(resp.StatusCode)).Inc()
		return nil, common.ErrRouteBuildFailed(resp.StatusCode, truncate(body))
	}

	var decoded instructionsResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return nil, common.ErrRouteBuildFailed(resp.StatusCode, "malformed instructions payload: "+err.Error())
	}
	if decoded.SwapInstruction == nil {
		return nil, common.ErrNoRouteInstruction()
	}

	out := &RouteInstructions{
		ComputeUnitEstimate: decoded.ComputeUnitLimit,
	}

	for i := range decoded.SetupInstructions {
		ix, err := convertInstruction(&decoded.SetupInstructions[i])
		if err != nil {
			return nil, common.ErrRouteBuildFailed(resp.StatusCode, err.Error())
		}
		out.Setup = append(out.Setup, ix)
	}

	out.Swap, err = convertInstruction(decoded.SwapInstruction)
	if err != nil {
		return nil, common.ErrRouteBuildFailed(resp.StatusCode, err.Error())
	}

	if decoded.CleanupInstruction != nil {
		ix, err := convertInstruction(decoded.CleanupInstruction)
		if err != nil {
			return nil, common.ErrRouteBuildFailed(resp.StatusCode, err.Error())
		}
		out.Cleanup = append(out.Cleanup, ix)
	}

	for _, raw := range decoded.AddressLookupTableAddresses {
		table, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			return nil, common.ErrRouteBuildFailed(resp.StatusCode, fmt.Sprintf("invalid lookup table address %q", raw))
		}
		out.LookupTables = append(out.LookupTables, table)
	}

	return out, nil
}

// convertInstruction validates one untrusted instruction into the strict
// boundary representation.
func convertInstruction(in *instructionJSON) (*RawInstruction, error) {
	program, err := solana.PublicKeyFromBase58(in.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid program id %q", in.ProgramID)
	}

	metas := make([]*solana.AccountMeta, 0, len(in.Accounts))
	for _, acc := range in.Accounts {
		pk, err := solana.PublicKeyFromBase58(acc.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("invalid account %q", acc.Pubkey)
		}
		metas = append(metas, &solana.AccountMeta{
			PublicKey:  pk,
			IsSigner:   acc.IsSigner,
			IsWritable: acc.IsWritable,
		})
	}

	data, err := base64.StdEncoding.DecodeString(in.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid instruction data: %v", err)
	}

	return &RawInstruction{Program: program, Metas: metas, Bytes: data}, nil
}

func truncate(body []byte) string {
	if len(body) > maxErrorBodyBytes {
		body = body[:maxErrorBodyBytes]
	}
	return string(body)
}
