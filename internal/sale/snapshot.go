package sale

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Snapshot is the persisted form of a Contract.
type Snapshot struct {
	Params          Params                      `json:"params"`
	Owner           common.Address              `json:"owner"`
	Price           *big.Int                    `json:"price"`
	BaseURI         string                      `json:"base_uri"`
	Whitelist       WhitelistConfig             `json:"whitelist"`
	Public          PublicConfig                `json:"public"`
	Batches         []Batch                     `json:"batches"`
	WhitelistMinted map[common.Address]uint64   `json:"whitelist_minted,omitempty"`
	PublicMinted    map[common.Address]uint64   `json:"public_minted,omitempty"`
	Balance         *big.Int                    `json:"balance"`
	Owed            map[common.Address]*big.Int `json:"owed,omitempty"`
}

// Snapshot copies the contract state.
func (c *Contract) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &Snapshot{
		Params:          c.params,
		Owner:           c.owner,
		Price:           new(big.Int).Set(c.price),
		BaseURI:         c.baseURI,
		Whitelist:       c.whitelist,
		Public:          c.public,
		Batches:         append([]Batch(nil), c.ledger.batches...),
		WhitelistMinted: make(map[common.Address]uint64, len(c.ledger.whitelistMinted)),
		PublicMinted:    make(map[common.Address]uint64, len(c.ledger.publicMinted)),
		Balance:         new(big.Int).Set(c.treasury.balance),
		Owed:            make(map[common.Address]*big.Int, len(c.treasury.owed)),
	}
	for addr, n := range c.ledger.whitelistMinted {
		s.WhitelistMinted[addr] = n
	}
	for addr, n := range c.ledger.publicMinted {
		s.PublicMinted[addr] = n
	}
	for addr, v := range c.treasury.owed {
		s.Owed[addr] = new(big.Int).Set(v)
	}
	return s
}

// Restore rebuilds a Contract from a snapshot. The batch list must be
// contiguous from the first token id and within the collection size.
func Restore(s *Snapshot, opts ...Option) (*Contract, error) {
	if s == nil {
		return nil, errors.New("restoring sale: nil snapshot")
	}
	if err := s.Params.Validate(); err != nil {
		return nil, fmt.Errorf("restoring sale: %w", err)
	}

	next := firstTokenID
	for i, b := range s.Batches {
		if b.Start != next || b.Quantity == 0 {
			return nil, fmt.Errorf("restoring sale: batch %d starts at %d, want %d", i, b.Start, next)
		}
		if !fits(next-firstTokenID, b.Quantity, s.Params.CollectionSize) {
			return nil, fmt.Errorf("restoring sale: batch %d of %d tokens exceeds collection size %d", i, b.Quantity, s.Params.CollectionSize)
		}
		next += b.Quantity
	}

	c := &Contract{
		params:    s.Params,
		owner:     s.Owner,
		price:     new(big.Int),
		baseURI:   s.BaseURI,
		whitelist: s.Whitelist,
		public:    s.Public,
		ledger:    newLedger(),
		treasury:  newTreasury(),
	}
	if s.Price != nil {
		c.price.Set(s.Price)
	}
	if s.Balance != nil {
		c.treasury.balance.Set(s.Balance)
	}
	c.ledger.rebuild(s.Batches)
	for addr, n := range s.WhitelistMinted {
		c.ledger.whitelistMinted[addr] = n
	}
	for addr, n := range s.PublicMinted {
		c.ledger.publicMinted[addr] = n
	}
	for addr, v := range s.Owed {
		if v != nil && v.Sign() > 0 {
			c.treasury.owed[addr] = new(big.Int).Set(v)
		}
	}
	c.apply(opts)
	c.log.Debug("Sale restored", "owner", c.owner, "minted", c.ledger.minted, "balance", c.treasury.balance)
	return c, nil
}
