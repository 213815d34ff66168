package config

import (
	"errors"
	"os"

	"github.com/gagliardetto/solana-go"
)

type RPCConfig struct {
	RPCUrl string

	// SponsorKey is the base58-encoded private key of the identity that
	// pays rent and network fees on every compiled transaction.
	SponsorKey string

	// Treasury is the wallet that receives protocol fees. Fee transfers
	// land in its token account for the traded input asset.
	Treasury string
}

func (r *RPCConfig) Key() string {
	return RPC_CONFIG_KEY
}

func (r *RPCConfig) Load() error {
	r.RPCUrl = os.Getenv("RPC_URL")
	r.SponsorKey = os.Getenv("SPONSOR_KEY")
	r.Treasury = os.Getenv("TREASURY_ADDRESS")
	return nil
}

func (r *RPCConfig) Validate() error {
	if r.RPCUrl == "" || r.SponsorKey == "" || r.Treasury == "" {
		return errors.New("invalid rpc config")
	}
	if _, err := solana.PrivateKeyFromBase58(r.SponsorKey); err != nil {
		return errors.New("SPONSOR_KEY is not a valid base58 private key")
	}
	if _, err := solana.PublicKeyFromBase58(r.Treasury); err != nil {
		return errors.New("TREASURY_ADDRESS is not a valid base58 public key")
	}
	return nil
}

// Sponsor returns the parsed sponsor keypair. Validate must have passed.
func (r *RPCConfig) Sponsor() solana.PrivateKey {
	key, _ := solana.PrivateKeyFromBase58(r.SponsorKey)
	return key
}

// TreasuryKey returns the parsed treasury public key. Validate must have passed.
func (r *RPCConfig) TreasuryKey() solana.PublicKey {
	pk, _ := solana.PublicKeyFromBase58(r.Treasury)
	return pk
}
