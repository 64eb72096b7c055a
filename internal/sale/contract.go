// Package sale implements the BattlePass minting state machine: dev
// reservations, a signature-gated whitelist sale, a public sale, and the
// treasury that collects mint proceeds.
//
// Every entry point runs under one lock and validates everything before it
// mutates anything, so a rejected call leaves no trace. Events and payouts
// are delivered only after the call has committed and the lock has been
// released.
package sale

import (
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/Mohsinsiddi/battlepass/internal/allowlist"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

// Clock returns the current time. Sale windows are evaluated against it.
type Clock func() time.Time

// SignatureVerifier checks whitelist claims.
type SignatureVerifier interface {
	Verify(signer common.Address, c allowlist.Claim, sig []byte) error
}

// Opts describes the caller of an entry point and the value attached.
type Opts struct {
	From  common.Address
	Value *big.Int
}

// Receipt is returned by the minting entry points.
type Receipt struct {
	FirstID  uint64
	Quantity uint64
	Cost     *big.Int
	Refund   *big.Int
	// RefundOwed is set when the refund payout failed and was recorded
	// for ClaimRefund instead.
	RefundOwed bool
}

// Contract is one deployed sale instance.
type Contract struct {
	mu sync.Mutex

	params    Params
	owner     common.Address
	price     *big.Int
	baseURI   string
	whitelist WhitelistConfig
	public    PublicConfig
	ledger    *ledger
	treasury  *treasury

	clock     Clock
	verifier  SignatureVerifier
	payout    Payout
	listeners []Listener
	log       log.Logger
}

// Option configures a Contract.
type Option func(*Contract)

// WithClock overrides the wall clock.
func WithClock(clock Clock) Option {
	return func(c *Contract) { c.clock = clock }
}

// WithVerifier overrides the allowlist verifier.
func WithVerifier(v SignatureVerifier) Option {
	return func(c *Contract) { c.verifier = v }
}

// WithPayout sets where withdrawals and refunds are sent.
func WithPayout(p Payout) Option {
	return func(c *Contract) { c.payout = p }
}

// WithListener registers an event listener.
func WithListener(l Listener) Option {
	return func(c *Contract) { c.listeners = append(c.listeners, l) }
}

// WithLogger sets the logger. Defaults to the root logger.
func WithLogger(l log.Logger) Option {
	return func(c *Contract) { c.log = l }
}

// New deploys a sale instance owned by deployer.
func New(params Params, deployer common.Address, opts ...Option) (*Contract, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	c := &Contract{
		params:   params,
		owner:    deployer,
		price:    new(big.Int),
		ledger:   newLedger(),
		treasury: newTreasury(),
	}
	c.apply(opts)
	c.log.Info("Sale deployed", "name", params.Name, "symbol", params.Symbol, "owner", deployer,
		"batch", params.MaxBatchSize, "collection", params.CollectionSize, "devs", params.AmountForDevs)
	return c, nil
}

func (c *Contract) apply(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	if c.verifier == nil {
		c.verifier = allowlist.NewVerifier()
	}
	if c.payout == nil {
		c.payout = discardPayout{}
	}
	if c.log == nil {
		c.log = log.Root()
	}
	c.log = c.log.New("sale", c.params.Symbol)
}

// txn collects what a call wants to happen once it has committed.
type txn struct {
	events []Event
	after  []func()
}

func (t *txn) emit(e Event)   { t.events = append(t.events, e) }
func (t *txn) then(fn func()) { t.after = append(t.after, fn) }

// exec runs fn under the lock. fn must return before mutating anything if
// it is going to fail.
func (c *Contract) exec(method string, opts *Opts, fn func(*txn) error) error {
	var t txn
	c.mu.Lock()
	err := fn(&t)
	c.mu.Unlock()

	if err != nil {
		c.log.Debug("Call rejected", "method", method, "from", opts.caller(), "reason", err, "kind", KindOf(err))
		return err
	}
	for _, fn := range t.after {
		fn()
	}
	for _, e := range t.events {
		for _, l := range c.listeners {
			l(e)
		}
	}
	return nil
}

func (c *Contract) now() uint64 {
	ts := c.clock().Unix()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (o *Opts) caller() common.Address {
	if o == nil {
		return common.Address{}
	}
	return o.From
}

func (o *Opts) value() *big.Int {
	if o == nil || o.Value == nil {
		return new(big.Int)
	}
	return o.Value
}

func (c *Contract) onlyOwner(opts *Opts) error {
	if opts.caller() != c.owner || c.owner == (common.Address{}) {
		return ErrNotOwner
	}
	return nil
}

// --- owner configuration ---

// SetPrice sets the unit price in wei for both paid phases.
func (c *Contract) SetPrice(opts *Opts, price *big.Int) error {
	return c.exec("setPrice", opts, func(t *txn) error {
		if err := c.onlyOwner(opts); err != nil {
			return err
		}
		if price == nil {
			price = new(big.Int)
		}
		if price.Sign() < 0 {
			return newError(KindConfiguration, "price must not be negative")
		}
		c.price = new(big.Int).Set(price)
		c.log.Info("Price set", "wei", c.price)
		t.emit(PriceChanged{Price: new(big.Int).Set(c.price)})
		return nil
	})
}

// SetWhitelistSaleConfig sets the whitelist start time and signer. It takes
// effect for every later call, including ones that carry signatures issued
// before the change.
func (c *Contract) SetWhitelistSaleConfig(opts *Opts, start uint64, signer common.Address) error {
	return c.exec("setWhitelistSaleConfig", opts, func(t *txn) error {
		if err := c.onlyOwner(opts); err != nil {
			return err
		}
		c.whitelist = WhitelistConfig{StartTime: start, Signer: signer}
		c.log.Info("Whitelist sale configured", "start", start, "signer", signer)
		t.emit(WhitelistConfigured{Config: c.whitelist})
		return nil
	})
}

// SetPublicSaleConfig sets the public sale start time.
func (c *Contract) SetPublicSaleConfig(opts *Opts, start uint64) error {
	return c.exec("setPublicSaleConfig", opts, func(t *txn) error {
		if err := c.onlyOwner(opts); err != nil {
			return err
		}
		c.public = PublicConfig{StartTime: start}
		c.log.Info("Public sale configured", "start", start)
		t.emit(PublicConfigured{Config: c.public})
		return nil
	})
}

// SetBaseURI sets the metadata URI prefix.
func (c *Contract) SetBaseURI(opts *Opts, uri string) error {
	return c.exec("setBaseURI", opts, func(t *txn) error {
		if err := c.onlyOwner(opts); err != nil {
			return err
		}
		c.baseURI = uri
		c.log.Info("Base URI set", "uri", uri)
		t.emit(BaseURIChanged{URI: uri})
		return nil
	})
}

// TransferOwnership hands the owner role to to.
func (c *Contract) TransferOwnership(opts *Opts, to common.Address) error {
	return c.exec("transferOwnership", opts, func(t *txn) error {
		if err := c.onlyOwner(opts); err != nil {
			return err
		}
		if to == (common.Address{}) {
			return ErrZeroOwner
		}
		prev := c.owner
		c.owner = to
		c.log.Info("Ownership transferred", "from", prev, "to", to)
		t.emit(OwnershipTransferred{Previous: prev, New: to})
		return nil
	})
}

// RenounceOwnership leaves the contract without an owner. Every owner-only
// entry point fails afterwards.
func (c *Contract) RenounceOwnership(opts *Opts) error {
	return c.exec("renounceOwnership", opts, func(t *txn) error {
		if err := c.onlyOwner(opts); err != nil {
			return err
		}
		prev := c.owner
		c.owner = common.Address{}
		c.log.Info("Ownership renounced", "from", prev)
		t.emit(OwnershipTransferred{Previous: prev})
		return nil
	})
}

// --- reads ---

// Params returns the deployment parameters.
func (c *Contract) Params() Params { return c.params }

// Owner returns the current owner, or the zero address once renounced.
func (c *Contract) Owner() common.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner
}

// Price returns a copy of the per-token price in wei.
func (c *Contract) Price() *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.price)
}

// BaseURI returns the prefix used by TokenURI.
func (c *Contract) BaseURI() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baseURI
}

// WhitelistSaleConfig returns the whitelist start time and signer.
func (c *Contract) WhitelistSaleConfig() WhitelistConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.whitelist
}

// PublicSaleConfig returns the public sale start time.
func (c *Contract) PublicSaleConfig() PublicConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.public
}

// Phase reports which sale phases are open now.
func (c *Contract) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return phaseAt(c.whitelist, c.public, c.now())
}

// TotalMinted returns how many tokens exist.
func (c *Contract) TotalMinted() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.minted
}

// TotalSupply equals TotalMinted; tokens are never burned.
func (c *Contract) TotalSupply() uint64 { return c.TotalMinted() }

// BalanceOf returns the number of tokens addr holds.
func (c *Contract) BalanceOf(addr common.Address) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.balances[addr]
}

// NumberMinted returns how many tokens were minted to addr, reserve included.
func (c *Contract) NumberMinted(addr common.Address) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.numberMinted[addr]
}

// WhitelistMinted returns how much of addr's claim has been used.
func (c *Contract) WhitelistMinted(addr common.Address) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.whitelistMinted[addr]
}

// OwnerOf returns the holder of token id.
func (c *Contract) OwnerOf(id uint64) (common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	owner, ok := c.ledger.ownerOf(id)
	if !ok {
		return common.Address{}, ErrNonexistentOwner
	}
	return owner, nil
}

// TokenURI returns the base URI followed by the decimal id, or "" when no
// base URI is set.
func (c *Contract) TokenURI(id uint64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ledger.exists(id) {
		return "", ErrNonexistentURI
	}
	if c.baseURI == "" {
		return "", nil
	}
	return c.baseURI + strconv.FormatUint(id, 10), nil
}

// Balance returns the treasury balance in wei.
func (c *Contract) Balance() *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.treasury.balance)
}

// Owed returns the refund recorded for addr after a failed payout.
func (c *Contract) Owed(addr common.Address) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.treasury.owed[addr]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}
