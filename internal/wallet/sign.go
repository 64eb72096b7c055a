package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrNoIdentity is returned when no wallet is selected and no fallback key
// is available.
var ErrNoIdentity = errors.New("no wallet selected: pass --wallet, set a default with `battlepass wallet use`, or set PRIVATE_KEY")

// EnvKeyName is the identity name shown for the PRIVATE_KEY fallback.
const EnvKeyName = "PRIVATE_KEY"

// Identity is who a command acts as. The key is loaded only when a command
// actually signs.
type Identity struct {
	Name    string
	Address common.Address

	wallet *Wallet
	mgr    *Manager
	key    *ecdsa.PrivateKey
}

// Resolve picks the caller identity: the named wallet, else the default
// wallet, else envKey (PRIVATE_KEY).
func (m *Manager) Resolve(name, envKey string) (*Identity, error) {
	var w *Wallet
	if name != "" {
		var err error
		if w, err = m.Get(name); err != nil {
			return nil, err
		}
	} else {
		w = m.Default()
	}
	if w != nil {
		return &Identity{Name: w.Name, Address: w.Addr(), wallet: w, mgr: m}, nil
	}
	if envKey == "" {
		return nil, ErrNoIdentity
	}
	key, err := ParseKey(envKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvKeyName, err)
	}
	return &Identity{Name: EnvKeyName, Address: crypto.PubkeyToAddress(key.PublicKey), key: key}, nil
}

// CanSign reports whether the identity has a private key.
func (id *Identity) CanSign() bool {
	return id.key != nil || (id.wallet != nil && id.wallet.Type == TypeSigning)
}

// Key returns the private key, loading it from the keystore on first use.
func (id *Identity) Key() (*ecdsa.PrivateKey, error) {
	if id.key != nil {
		return id.key, nil
	}
	if id.wallet == nil {
		return nil, ErrNoIdentity
	}
	key, err := id.mgr.PrivateKey(id.wallet)
	if err != nil {
		return nil, err
	}
	id.key = key
	return key, nil
}
