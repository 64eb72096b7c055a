package sale

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Payout moves native currency out of the contract. It is called only
// after the state change that released the funds has been committed.
type Payout interface {
	Send(to common.Address, amount *big.Int) error
}

// PayoutFunc adapts a function to the Payout interface.
type PayoutFunc func(to common.Address, amount *big.Int) error

func (f PayoutFunc) Send(to common.Address, amount *big.Int) error { return f(to, amount) }

// discardPayout accepts every transfer. It stands in for a chain when the
// engine runs without an external ledger.
type discardPayout struct{}

func (discardPayout) Send(common.Address, *big.Int) error { return nil }

// treasury pools all mint proceeds. owed holds refunds whose payout failed.
type treasury struct {
	balance *big.Int
	owed    map[common.Address]*big.Int
}

func newTreasury() *treasury {
	return &treasury{
		balance: new(big.Int),
		owed:    make(map[common.Address]*big.Int),
	}
}

// cost returns price*qty.
func cost(price *big.Int, qty uint64) *big.Int {
	return new(big.Int).Mul(price, new(big.Int).SetUint64(qty))
}

// charge returns the excess over required in value, or ErrUnderpaid.
func charge(value, required *big.Int) (*big.Int, error) {
	if value == nil {
		value = new(big.Int)
	}
	if value.Cmp(required) < 0 {
		return nil, ErrUnderpaid
	}
	return new(big.Int).Sub(value, required), nil
}

func (t *treasury) deposit(amount *big.Int) {
	t.balance.Add(t.balance, amount)
}

// drain empties the pool and returns what it held.
func (t *treasury) drain() *big.Int {
	out := t.balance
	t.balance = new(big.Int)
	return out
}

func (t *treasury) addOwed(to common.Address, amount *big.Int) {
	cur, ok := t.owed[to]
	if !ok {
		cur = new(big.Int)
		t.owed[to] = cur
	}
	cur.Add(cur, amount)
}

func (t *treasury) takeOwed(to common.Address) *big.Int {
	amount, ok := t.owed[to]
	if !ok || amount.Sign() == 0 {
		return nil
	}
	delete(t.owed, to)
	return amount
}
