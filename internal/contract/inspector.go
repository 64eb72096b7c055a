package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// Inspector reads sale state from a deployed contract.
type Inspector struct {
	caller  ethereum.ContractCaller
	address common.Address
}

// NewInspector returns an Inspector for the contract at address. caller is
// usually an *ethclient.Client.
func NewInspector(caller ethereum.ContractCaller, address common.Address) *Inspector {
	return &Inspector{caller: caller, address: address}
}

// Address returns the inspected contract address.
func (in *Inspector) Address() common.Address { return in.address }

// call runs a view method at the latest block and unpacks its outputs.
func (in *Inspector) call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := BattlePassABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}
	out, err := in.caller.CallContract(ctx, ethereum.CallMsg{To: &in.address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("calling %s: empty result (is %s a BattlePass contract?)", method, in.address.Hex())
	}
	vals, err := BattlePassABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", method, err)
	}
	return vals, nil
}

func (in *Inspector) callBig(ctx context.Context, method string, args ...any) (*big.Int, error) {
	vals, err := in.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	n, ok := vals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("decoding %s: unexpected type %T", method, vals[0])
	}
	return n, nil
}

func (in *Inspector) callAddress(ctx context.Context, method string, args ...any) (common.Address, error) {
	vals, err := in.call(ctx, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	a, ok := vals[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("decoding %s: unexpected type %T", method, vals[0])
	}
	return a, nil
}

func (in *Inspector) callString(ctx context.Context, method string, args ...any) (string, error) {
	vals, err := in.call(ctx, method, args...)
	if err != nil {
		return "", err
	}
	s, ok := vals[0].(string)
	if !ok {
		return "", fmt.Errorf("decoding %s: unexpected type %T", method, vals[0])
	}
	return s, nil
}

func (in *Inspector) TotalSupply(ctx context.Context) (*big.Int, error) {
	return in.callBig(ctx, "totalSupply")
}

func (in *Inspector) Price(ctx context.Context) (*big.Int, error) {
	return in.callBig(ctx, "price")
}

func (in *Inspector) Owner(ctx context.Context) (common.Address, error) {
	return in.callAddress(ctx, "owner")
}

func (in *Inspector) OwnerOf(ctx context.Context, id uint64) (common.Address, error) {
	return in.callAddress(ctx, "ownerOf", u256(id))
}

func (in *Inspector) BalanceOf(ctx context.Context, addr common.Address) (*big.Int, error) {
	return in.callBig(ctx, "balanceOf", addr)
}

func (in *Inspector) TokenURI(ctx context.Context, id uint64) (string, error) {
	return in.callString(ctx, "tokenURI", u256(id))
}

// WhitelistSaleConfig returns the whitelist start time and signer.
func (in *Inspector) WhitelistSaleConfig(ctx context.Context) (uint64, common.Address, error) {
	vals, err := in.call(ctx, "whitelistSaleConfig")
	if err != nil {
		return 0, common.Address{}, err
	}
	start, ok1 := vals[0].(uint64)
	signer, ok2 := vals[1].(common.Address)
	if !ok1 || !ok2 {
		return 0, common.Address{}, fmt.Errorf("decoding whitelistSaleConfig: unexpected types %T, %T", vals[0], vals[1])
	}
	return start, signer, nil
}

func (in *Inspector) PublicSaleConfig(ctx context.Context) (uint64, error) {
	vals, err := in.call(ctx, "publicSaleConfig")
	if err != nil {
		return 0, err
	}
	start, ok := vals[0].(uint64)
	if !ok {
		return 0, fmt.Errorf("decoding publicSaleConfig: unexpected type %T", vals[0])
	}
	return start, nil
}

// Status is a one-shot read of the sale state.
type Status struct {
	Name           string
	Symbol         string
	Owner          common.Address
	TotalSupply    *big.Int
	Price          *big.Int
	MaxBatchSize   *big.Int
	CollectionSize *big.Int
	AmountForDevs  *big.Int
	WhitelistStart uint64
	Signer         common.Address
	PublicStart    uint64
}

// Status reads every sale getter.
func (in *Inspector) Status(ctx context.Context) (*Status, error) {
	var (
		s   Status
		err error
	)
	if s.Name, err = in.callString(ctx, "name"); err != nil {
		return nil, err
	}
	if s.Symbol, err = in.callString(ctx, "symbol"); err != nil {
		return nil, err
	}
	if s.Owner, err = in.Owner(ctx); err != nil {
		return nil, err
	}
	if s.TotalSupply, err = in.TotalSupply(ctx); err != nil {
		return nil, err
	}
	if s.Price, err = in.Price(ctx); err != nil {
		return nil, err
	}
	if s.MaxBatchSize, err = in.callBig(ctx, "maxBatchSize"); err != nil {
		return nil, err
	}
	if s.CollectionSize, err = in.callBig(ctx, "collectionSize"); err != nil {
		return nil, err
	}
	if s.AmountForDevs, err = in.callBig(ctx, "amountForDevs"); err != nil {
		return nil, err
	}
	if s.WhitelistStart, s.Signer, err = in.WhitelistSaleConfig(ctx); err != nil {
		return nil, err
	}
	if s.PublicStart, err = in.PublicSaleConfig(ctx); err != nil {
		return nil, err
	}
	return &s, nil
}
