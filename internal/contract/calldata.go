package contract

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Call is prepared calldata for one write entry point together with the
// value that must be attached.
type Call struct {
	Method string
	Data   []byte
	Value  *big.Int
}

func pack(method string, value *big.Int, args ...any) (*Call, error) {
	data, err := BattlePassABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", method, err)
	}
	if value == nil {
		value = new(big.Int)
	}
	return &Call{Method: method, Data: data, Value: value}, nil
}

func u256(n uint64) *big.Int { return new(big.Int).SetUint64(n) }

func PackReserve(qty uint64) (*Call, error) {
	return pack("reserve", nil, u256(qty))
}

func PackSetPrice(wei *big.Int) (*Call, error) {
	if wei == nil || wei.Sign() < 0 {
		return nil, fmt.Errorf("packing setPrice: invalid price %v", wei)
	}
	return pack("setPrice", nil, wei)
}

func PackSetWhitelistSaleConfig(start uint64, signer common.Address) (*Call, error) {
	return pack("setWhitelistSaleConfig", nil, start, signer)
}

func PackSetPublicSaleConfig(start uint64) (*Call, error) {
	return pack("setPublicSaleConfig", nil, start)
}

func PackSetBaseURI(uri string) (*Call, error) {
	return pack("setBaseURI", nil, uri)
}

// PackMint prepares a public mint paying value wei.
func PackMint(qty uint64, value *big.Int) (*Call, error) {
	return pack("mint", value, u256(qty))
}

// PackWhitelistMint prepares a whitelist mint. The deployed contract derives
// the claim quantity itself, so only the signature is sent.
func PackWhitelistMint(qty uint64, sig []byte, value *big.Int) (*Call, error) {
	return pack("whitelistMint", value, u256(qty), sig)
}

func PackWithdraw() (*Call, error) {
	return pack("withdraw", nil)
}

func PackTransferOwnership(to common.Address) (*Call, error) {
	return pack("transferOwnership", nil, to)
}

func PackRenounceOwnership() (*Call, error) {
	return pack("renounceOwnership", nil)
}
