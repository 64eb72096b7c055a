package contract

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// fallbackGas is used when the node cannot estimate the call.
const fallbackGas = uint64(200_000)

// Backend is the node surface Sender needs. *ethclient.Client satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Sender signs prepared calls and broadcasts them to the contract.
type Sender struct {
	backend Backend
	key     *ecdsa.PrivateKey
	to      common.Address
}

func NewSender(backend Backend, key *ecdsa.PrivateKey, to common.Address) *Sender {
	return &Sender{backend: backend, key: key, to: to}
}

// From returns the sending address.
func (s *Sender) From() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// Send signs call as an EIP-1559 transaction and broadcasts it. The
// transaction is returned so callers can wait on its hash.
func (s *Sender) Send(ctx context.Context, call *Call) (*types.Transaction, error) {
	from := s.From()

	chainID, err := s.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting chain id: %w", err)
	}
	nonce, err := s.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("getting nonce: %w", err)
	}
	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting gas price: %w", err)
	}
	gas, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &s.to, Value: call.Value, Data: call.Data})
	if err != nil {
		gas = fallbackGas
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: gasPrice,
		GasFeeCap: new(big.Int).Mul(gasPrice, big.NewInt(2)),
		Gas:       gas,
		To:        &s.to,
		Value:     call.Value,
		Data:      call.Data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("signing %s: %w", call.Method, err)
	}
	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("broadcasting %s: %w", call.Method, err)
	}
	return signed, nil
}
