package sale

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Event is emitted by a committed call.
type Event interface {
	EventName() string
}

// Listener receives events after the emitting call has committed and the
// engine lock has been released. Listeners may call back into the engine.
type Listener func(Event)

type Minted struct {
	To       common.Address
	FirstID  uint64
	Quantity uint64
	Phase    string // "reserve", "whitelist" or "public"
}

type OwnershipTransferred struct {
	Previous common.Address
	New      common.Address
}

type PriceChanged struct {
	Price *big.Int
}

type WhitelistConfigured struct {
	Config WhitelistConfig
}

type PublicConfigured struct {
	Config PublicConfig
}

type BaseURIChanged struct {
	URI string
}

type Withdrawn struct {
	To     common.Address
	Amount *big.Int
}

type Refunded struct {
	To     common.Address
	Amount *big.Int
	// Owed is set when the payout failed and the amount was recorded for
	// a later ClaimRefund.
	Owed bool
}

func (Minted) EventName() string               { return "Minted" }
func (OwnershipTransferred) EventName() string { return "OwnershipTransferred" }
func (PriceChanged) EventName() string         { return "PriceChanged" }
func (WhitelistConfigured) EventName() string  { return "WhitelistConfigured" }
func (PublicConfigured) EventName() string     { return "PublicConfigured" }
func (BaseURIChanged) EventName() string       { return "BaseURIChanged" }
func (Withdrawn) EventName() string            { return "Withdrawn" }
func (Refunded) EventName() string             { return "Refunded" }
