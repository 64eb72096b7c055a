package allowlist

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of recovered signers kept by a Verifier.
const DefaultCacheSize = 4096

var (
	ErrMalformedSignature = errors.New("allowlist: malformed signature")
	ErrSignerMismatch     = errors.New("allowlist: signature is not from the configured signer")
	ErrNoSigner           = errors.New("allowlist: no signer configured")
)

// Verifier recovers and checks claim signatures. Recovery results are
// cached because the same signature is typically presented once per
// whitelist call until the holder's quota is used up.
type Verifier struct {
	domain *Domain
	cache  *lru.Cache[string, common.Address]
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithDomain makes the verifier expect domain-bound messages.
func WithDomain(d *Domain) Option {
	return func(v *Verifier) { v.domain = d }
}

// WithCacheSize sets the recovery cache size. Zero disables caching.
func WithCacheSize(n int) Option {
	return func(v *Verifier) {
		v.cache = nil
		if n > 0 {
			v.cache, _ = lru.New[string, common.Address](n)
		}
	}
}

// NewVerifier creates a Verifier for the legacy message format.
func NewVerifier(opts ...Option) *Verifier {
	v := &Verifier{}
	v.cache, _ = lru.New[string, common.Address](DefaultCacheSize)
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Domain returns the domain binding, or nil for the legacy format.
func (v *Verifier) Domain() *Domain { return v.domain }

// Recover returns the address that signed c.
func (v *Verifier) Recover(c Claim, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: expected %d bytes, got %d",
			ErrMalformedSignature, crypto.SignatureLength, len(sig))
	}

	hash := accounts.TextHash(Message(c, v.domain))
	key := string(hash) + string(sig)
	if v.cache != nil {
		if addr, ok := v.cache.Get(key); ok {
			return addr, nil
		}
	}

	// Accept both the 27/28 and 0/1 recovery id conventions.
	rsv := make([]byte, len(sig))
	copy(rsv, sig)
	if rsv[crypto.RecoveryIDOffset] >= 27 {
		rsv[crypto.RecoveryIDOffset] -= 27
	}
	if rsv[crypto.RecoveryIDOffset] > 1 {
		return common.Address{}, fmt.Errorf("%w: invalid recovery id %d", ErrMalformedSignature, sig[crypto.RecoveryIDOffset])
	}

	// Only the low-s form is valid, matching ECDSA.recover on chain.
	r, sv := new(big.Int).SetBytes(rsv[:32]), new(big.Int).SetBytes(rsv[32:64])
	if !crypto.ValidateSignatureValues(rsv[crypto.RecoveryIDOffset], r, sv, true) {
		return common.Address{}, fmt.Errorf("%w: invalid r or s value", ErrMalformedSignature)
	}

	pub, err := crypto.SigToPub(hash, rsv)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	addr := crypto.PubkeyToAddress(*pub)
	if v.cache != nil {
		v.cache.Add(key, addr)
	}
	return addr, nil
}

// Verify checks that sig is signer's signature over c.
func (v *Verifier) Verify(signer common.Address, c Claim, sig []byte) error {
	if signer == (common.Address{}) {
		return ErrNoSigner
	}
	got, err := v.Recover(c, sig)
	if err != nil {
		return err
	}
	if got != signer {
		return fmt.Errorf("%w: recovered %s", ErrSignerMismatch, got.Hex())
	}
	return nil
}
