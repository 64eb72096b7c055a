package allowlist

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"runtime"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/sync/errgroup"
)

// Signed is a claim together with its signature, as handed to buyers.
type Signed struct {
	Claim
	Signature hexutil.Bytes `json:"signature"`
}

// Sign produces the 65-byte personal_sign signature (V in 27/28) over c.
func Sign(key *ecdsa.PrivateKey, c Claim, d *Domain) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(Message(c, d)), key)
	if err != nil {
		return nil, fmt.Errorf("signing claim for %s: %w", c.Address.Hex(), err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// SignBatch signs every claim, preserving input order. limit bounds the
// number of concurrent signers; zero means GOMAXPROCS.
func SignBatch(ctx context.Context, key *ecdsa.PrivateKey, claims []Claim, d *Domain, limit int) ([]Signed, error) {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	out := make([]Signed, len(claims))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, c := range claims {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sig, err := Sign(key, c, d)
			if err != nil {
				return err
			}
			out[i] = Signed{Claim: c, Signature: sig}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
