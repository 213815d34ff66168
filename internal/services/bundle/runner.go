package bundle

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/lumenfi/swap-engine/internal/domain"
	"github.com/lumenfi/swap-engine/internal/services/builder"
)

const (
	confirmPollInterval   = 500 * time.Millisecond
	defaultConfirmTimeout = 60 * time.Second
)

// Signer adds the owner's signature to a built transaction. The sponsor's
// signature is already present when this runs.
type Signer func(tx *solana.Transaction) error

// PipelineRunner executes one bundle item against the build pipeline:
// build the sponsored transaction, collect the owner signature, submit it
// and poll for confirmation.
type PipelineRunner struct {
	Builder *builder.BuilderService
	RPC     *rpc.Client

	Owner        solana.PublicKey
	PaymentAsset solana.PublicKey
	SlippageBps  uint16
	Sign         Signer

	// ConfirmTimeout bounds the confirmation poll; zero means the
	// default.
	ConfirmTimeout time.Duration
}

func (r *PipelineRunner) Run(ctx context.Context, item domain.BundleItem, advance func(domain.ItemStatus)) (ItemResult, error) {
	built, err := r.Builder.BuildSponsoredSwap(ctx, &domain.BuildParams{
		Owner:       r.Owner,
		InputAsset:  r.PaymentAsset,
		OutputAsset: item.TargetAsset,
		AmountUnits: item.AmountUnits,
		SlippageBps: r.SlippageBps,
	})
	if err != nil {
		return ItemResult{}, err
	}

	raw, err := base64.StdEncoding.DecodeString(built.TransactionBase64)
	if err != nil {
		return ItemResult{}, fmt.Errorf("decode built transaction: %w", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return ItemResult{}, fmt.Errorf("parse built transaction: %w", err)
	}

	advance(domain.ItemSigning)
	if err := r.Sign(tx); err != nil {
		return ItemResult{}, fmt.Errorf("sign transaction: %w", err)
	}

	advance(domain.ItemSending)
	sig, err := r.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return ItemResult{}, fmt.Errorf("submit transaction: %w", err)
	}

	advance(domain.ItemConfirming)
	if err := r.awaitConfirmation(ctx, sig); err != nil {
		return ItemResult{}, err
	}

	return ItemResult{Signature: sig, FeeUnits: built.FeeUnits}, nil
}

func (r *PipelineRunner) awaitConfirmation(ctx context.Context, sig solana.Signature) error {
	timeout := r.ConfirmTimeout
	if timeout == 0 {
		timeout = defaultConfirmTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("confirmation timed out for %s: %w", sig, ctx.Err())
		case <-ticker.C:
		}

		out, err := r.RPC.GetSignatureStatuses(ctx, false, sig)
		if err != nil || out == nil || len(out.Value) == 0 {
			continue
		}
		status := out.Value[0]
		if status == nil {
			continue
		}
		if status.Err != nil {
			return errors.New("transaction failed on chain")
		}
		switch status.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			return nil
		}
	}
}
