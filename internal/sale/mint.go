package sale

import (
	"math/big"

	"github.com/Mohsinsiddi/battlepass/internal/allowlist"
	"github.com/ethereum/go-ethereum/common"
)

// Reserve mints qty tokens to the owner outside the sale phases. qty must be
// a positive multiple of the batch size and may not lift the total past the
// dev allowance. Every batch-sized chunk is recorded as its own batch.
func (c *Contract) Reserve(opts *Opts, qty uint64) (*Receipt, error) {
	var r *Receipt
	err := c.exec("reserve", opts, func(t *txn) error {
		if err := c.onlyOwner(opts); err != nil {
			return err
		}
		if !fits(c.ledger.minted, qty, c.params.AmountForDevs) {
			return ErrDevMintCap
		}
		if qty == 0 || qty%c.params.MaxBatchSize != 0 {
			return ErrBatchSize
		}

		first := firstTokenID + c.ledger.minted
		for done := uint64(0); done < qty; done += c.params.MaxBatchSize {
			id := c.ledger.mint(c.owner, c.params.MaxBatchSize, "reserve")
			t.emit(Minted{To: c.owner, FirstID: id, Quantity: c.params.MaxBatchSize, Phase: "reserve"})
		}
		c.log.Info("Reserved", "owner", c.owner, "quantity", qty, "first", first, "total", c.ledger.minted)
		r = &Receipt{FirstID: first, Quantity: qty, Cost: new(big.Int), Refund: new(big.Int)}
		return nil
	})
	return r, err
}

// Mint buys qty tokens in the public sale. One call mints at most a batch.
func (c *Contract) Mint(opts *Opts, qty uint64) (*Receipt, error) {
	var r *Receipt
	err := c.exec("mint", opts, func(t *txn) error {
		if !open(c.public.StartTime, c.now()) {
			return ErrPublicClosed
		}
		if qty > c.params.MaxBatchSize {
			return ErrQuota
		}
		if err := c.checkPerAddress(opts.caller(), qty); err != nil {
			return err
		}
		var err error
		r, err = c.purchase(t, opts, qty, "public")
		return err
	})
	return r, err
}

// WhitelistMint buys qty tokens in the whitelist sale. sig must be the
// configured signer's signature over (caller, maxQty). maxQty is the
// caller's total whitelist allowance, not a per-call limit.
func (c *Contract) WhitelistMint(opts *Opts, qty, maxQty uint64, sig []byte) (*Receipt, error) {
	var r *Receipt
	err := c.exec("whitelistMint", opts, func(t *txn) error {
		if !open(c.whitelist.StartTime, c.now()) {
			return ErrWhitelistClosed
		}
		from := opts.caller()
		claim := allowlist.Claim{Address: from, MaxQuantity: maxQty}
		if err := c.verifier.Verify(c.whitelist.Signer, claim, sig); err != nil {
			c.log.Debug("Signature check failed", "from", from, "max", maxQty, "err", err)
			return ErrWrongSig
		}
		if !fits(c.ledger.whitelistMinted[from], qty, maxQty) || qty > c.params.MaxBatchSize {
			return ErrQuota
		}
		var err error
		r, err = c.purchase(t, opts, qty, "whitelist")
		return err
	})
	return r, err
}

// checkPerAddress applies the optional lifetime cap on public mints.
func (c *Contract) checkPerAddress(from common.Address, qty uint64) error {
	if c.params.MaxPerAddress == 0 {
		return nil
	}
	if !fits(c.ledger.publicMinted[from], qty, c.params.MaxPerAddress) {
		return ErrQuota
	}
	return nil
}

// purchase runs the checks shared by both paid phases and commits the mint.
// It is the only place a paid mint mutates state.
func (c *Contract) purchase(t *txn, opts *Opts, qty uint64, phase string) (*Receipt, error) {
	if !fits(c.ledger.minted, qty, c.params.CollectionSize) {
		return nil, ErrMaxSupply
	}
	required := cost(c.price, qty)
	refund, err := charge(opts.value(), required)
	if err != nil {
		return nil, err
	}
	if qty == 0 {
		return nil, ErrZeroQuantity
	}

	from := opts.caller()
	first := c.ledger.mint(from, qty, phase)
	c.treasury.deposit(required)
	c.log.Info("Minted", "phase", phase, "to", from, "quantity", qty, "first", first,
		"paid", required, "refund", refund, "total", c.ledger.minted)
	t.emit(Minted{To: from, FirstID: first, Quantity: qty, Phase: phase})

	r := &Receipt{FirstID: first, Quantity: qty, Cost: required, Refund: refund}
	if refund.Sign() > 0 {
		t.then(func() { c.refund(r, from) })
	}
	return r, nil
}

// refund pays back overpayment after the mint has committed. A failed
// payout does not undo the mint; the amount is recorded as owed.
func (c *Contract) refund(r *Receipt, to common.Address) {
	if err := c.payout.Send(to, r.Refund); err != nil {
		c.mu.Lock()
		c.treasury.addOwed(to, r.Refund)
		c.mu.Unlock()
		r.RefundOwed = true
		c.log.Warn("Refund payout failed, recorded as owed", "to", to, "amount", r.Refund, "err", err)
		c.notify(Refunded{To: to, Amount: new(big.Int).Set(r.Refund), Owed: true})
		return
	}
	c.notify(Refunded{To: to, Amount: new(big.Int).Set(r.Refund)})
}

// ClaimRefund retries the payout of refunds recorded as owed to the caller.
func (c *Contract) ClaimRefund(opts *Opts) (*big.Int, error) {
	var amount *big.Int
	from := opts.caller()
	err := c.exec("claimRefund", opts, func(t *txn) error {
		amount = c.treasury.takeOwed(from)
		if amount == nil {
			return ErrNothingOwed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := c.payout.Send(from, amount); err != nil {
		c.mu.Lock()
		c.treasury.addOwed(from, amount)
		c.mu.Unlock()
		c.log.Warn("Refund claim payout failed", "to", from, "amount", amount, "err", err)
		return nil, ErrTransferFailed
	}
	c.notify(Refunded{To: from, Amount: new(big.Int).Set(amount)})
	return amount, nil
}

// Withdraw sends the entire treasury balance to the owner. The balance is
// zeroed before the payout and restored if the payout fails.
func (c *Contract) Withdraw(opts *Opts) (*big.Int, error) {
	var (
		amount *big.Int
		to     common.Address
	)
	err := c.exec("withdraw", opts, func(t *txn) error {
		if err := c.onlyOwner(opts); err != nil {
			return err
		}
		to = c.owner
		amount = c.treasury.drain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := c.payout.Send(to, amount); err != nil {
		c.mu.Lock()
		c.treasury.deposit(amount)
		c.mu.Unlock()
		c.log.Warn("Withdraw payout failed, balance restored", "to", to, "amount", amount, "err", err)
		return nil, ErrTransferFailed
	}
	c.log.Info("Withdrawn", "to", to, "amount", amount)
	c.notify(Withdrawn{To: to, Amount: new(big.Int).Set(amount)})
	return amount, nil
}

func (c *Contract) notify(e Event) {
	for _, l := range c.listeners {
		l(e)
	}
}

// fits reports whether used+qty <= limit without overflowing.
func fits(used, qty, limit uint64) bool {
	return used <= limit && qty <= limit-used
}
