package sale

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// firstTokenID is the id given to the first minted token.
const firstTokenID = uint64(1)

// Batch records one mint call. Ownership of every id in
// [Start, Start+Quantity) is implied by the single entry.
type Batch struct {
	Start    uint64         `json:"start"`
	Quantity uint64         `json:"quantity"`
	Owner    common.Address `json:"owner"`
}

// ledger is the supply ledger. Tokens are never transferred or burned here,
// so batches only ever grow at the tail and stay sorted by Start.
type ledger struct {
	minted          uint64
	batches         []Batch
	balances        map[common.Address]uint64
	numberMinted    map[common.Address]uint64
	whitelistMinted map[common.Address]uint64
	publicMinted    map[common.Address]uint64
}

func newLedger() *ledger {
	return &ledger{
		balances:        make(map[common.Address]uint64),
		numberMinted:    make(map[common.Address]uint64),
		whitelistMinted: make(map[common.Address]uint64),
		publicMinted:    make(map[common.Address]uint64),
	}
}

// mint appends a batch and returns the first id assigned. phase is
// "reserve", "whitelist" or "public".
func (l *ledger) mint(to common.Address, qty uint64, phase string) uint64 {
	start := firstTokenID + l.minted
	l.batches = append(l.batches, Batch{Start: start, Quantity: qty, Owner: to})
	l.minted += qty
	l.balances[to] += qty
	l.numberMinted[to] += qty
	switch phase {
	case "whitelist":
		l.whitelistMinted[to] += qty
	case "public":
		l.publicMinted[to] += qty
	}
	return start
}

func (l *ledger) exists(id uint64) bool {
	return id >= firstTokenID && id < firstTokenID+l.minted
}

// ownerOf finds the batch containing id by searching for the last batch
// that starts at or before it.
func (l *ledger) ownerOf(id uint64) (common.Address, bool) {
	if !l.exists(id) {
		return common.Address{}, false
	}
	i := sort.Search(len(l.batches), func(i int) bool {
		return l.batches[i].Start > id
	})
	return l.batches[i-1].Owner, true
}

// rebuild recomputes the derived counters from the batch list. The
// per-phase counters cannot be derived and are restored separately.
func (l *ledger) rebuild(batches []Batch) {
	l.minted = 0
	l.batches = append([]Batch(nil), batches...)
	for _, b := range l.batches {
		l.minted += b.Quantity
		l.balances[b.Owner] += b.Quantity
		l.numberMinted[b.Owner] += b.Quantity
	}
}
