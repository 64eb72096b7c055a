package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sort"
	"strings"

	"github.com/Mohsinsiddi/battlepass/internal/allowlist"
	"github.com/Mohsinsiddi/battlepass/internal/config"
	"github.com/Mohsinsiddi/battlepass/internal/sale"
	"github.com/Mohsinsiddi/battlepass/internal/store"
	"github.com/Mohsinsiddi/battlepass/internal/ui"
	"github.com/Mohsinsiddi/battlepass/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"
	"github.com/spf13/cobra"
)

// Claim domain flags, shared by every command that signs or checks claims.
var (
	domainChainID  int64
	domainContract string
)

func addDomainFlags(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&domainChainID, "chain-id", 0, "bind claims to this chain id (requires --domain-contract)")
	cmd.Flags().StringVar(&domainContract, "domain-contract", "", "bind claims to this contract address")
}

// claimDomain returns the domain selected by flags, or nil for the plain
// address:quantity format the deployed contract checks.
func claimDomain() (*allowlist.Domain, error) {
	if domainContract == "" {
		if domainChainID != 0 {
			return nil, errors.New("--chain-id requires --domain-contract")
		}
		return nil, nil
	}
	addr, err := parseAddress("--domain-contract", domainContract)
	if err != nil {
		return nil, err
	}
	return &allowlist.Domain{ChainID: big.NewInt(domainChainID), Contract: addr}, nil
}

// ---------------------------------------------------------------------------
// State
// ---------------------------------------------------------------------------

func openStore() (store.Store, error) {
	return store.Open(store.Options{
		Backend:  cfg.StateBackend,
		Dir:      cfg.Dir(),
		RedisURL: cfg.EffectiveRedisURL(),
		Name:     cfg.Name,
	})
}

// storeContext bounds one load or save.
func storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, config.StoreTimeout)
}

func closeStore(st store.Store) {
	if c, ok := st.(io.Closer); ok {
		c.Close() //nolint:errcheck
	}
}

// saleOptions wires the engine to the CLI: payouts are logged, since no
// ether moves locally.
func saleOptions() ([]sale.Option, error) {
	d, err := claimDomain()
	if err != nil {
		return nil, err
	}
	return []sale.Option{
		sale.WithVerifier(allowlist.NewVerifier(allowlist.WithDomain(d))),
		sale.WithPayout(sale.PayoutFunc(logPayout)),
	}, nil
}

func logPayout(to common.Address, amount *big.Int) error {
	log.Info("Payout", "to", to, "wei", amount)
	return nil
}

// loadSale restores the sale from the configured backend. The caller must
// closeStore the returned store.
func loadSale(ctx context.Context, extra ...sale.Option) (*sale.Contract, store.Store, error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := storeContext(ctx)
	defer cancel()
	snap, err := st.Load(ctx)
	if err != nil {
		closeStore(st)
		return nil, nil, err
	}
	opts, err := saleOptions()
	if err != nil {
		closeStore(st)
		return nil, nil, err
	}
	c, err := sale.Restore(snap, append(opts, extra...)...)
	if err != nil {
		closeStore(st)
		return nil, nil, fmt.Errorf("restoring sale: %w", err)
	}
	return c, st, nil
}

func saveSale(ctx context.Context, st store.Store, c *sale.Contract) error {
	ctx, cancel := storeContext(ctx)
	defer cancel()
	if err := st.Save(ctx, c.Snapshot()); err != nil {
		return fmt.Errorf("saving sale: %w", err)
	}
	return nil
}

// transact runs fn against the stored sale as the selected identity and
// saves the result if fn succeeds.
func transact(cmd *cobra.Command, fn func(c *sale.Contract, id *wallet.Identity) error) error {
	id, err := identity()
	if err != nil {
		return err
	}
	c, st, err := loadSale(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := fn(c, id); err != nil {
		return err
	}
	return saveSale(cmd.Context(), st, c)
}

// view runs fn against the stored sale without saving.
func view(cmd *cobra.Command, fn func(c *sale.Contract) error) error {
	c, st, err := loadSale(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore(st)
	return fn(c)
}

// ---------------------------------------------------------------------------
// Identity and parsing
// ---------------------------------------------------------------------------

func identity() (*wallet.Identity, error) {
	name := walletName
	if name == "" {
		name = cfg.DefaultWallet
	}
	return newWalletManager().Resolve(name, cfg.EnvPrivateKey())
}

func parseAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", field, s)
	}
	return common.HexToAddress(s), nil
}

// parseEther converts a decimal ETH amount ("0.08") to wei. Amounts finer
// than one wei are rejected.
func parseEther(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok || r.Sign() < 0 {
		return nil, fmt.Errorf("invalid ETH amount: %s", s)
	}
	r.Mul(r, new(big.Rat).SetInt64(params.Ether))
	if !r.IsInt() {
		return nil, fmt.Errorf("ETH amount %s is finer than 1 wei", s)
	}
	return new(big.Int).Set(r.Num()), nil
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

// saleView builds the dashboard model from a snapshot.
func saleView(c *sale.Contract) ui.SaleView {
	snap := c.Snapshot()
	phase := c.Phase()

	var minted uint64
	byOwner := map[common.Address]uint64{}
	for _, b := range snap.Batches {
		minted += b.Quantity
		byOwner[b.Owner] += b.Quantity
	}
	holders := make([]ui.Holding, 0, len(byOwner))
	for addr, n := range byOwner {
		holders = append(holders, ui.Holding{Address: addr.Hex(), Tokens: n})
	}
	sort.Slice(holders, func(i, j int) bool {
		if holders[i].Tokens != holders[j].Tokens {
			return holders[i].Tokens > holders[j].Tokens
		}
		return holders[i].Address < holders[j].Address
	})

	signer := ""
	if snap.Whitelist.Signer != (common.Address{}) {
		signer = snap.Whitelist.Signer.Hex()
	}
	return ui.SaleView{
		Name:           fmt.Sprintf("%s (%s)", snap.Params.Name, snap.Params.Symbol),
		Owner:          snap.Owner.Hex(),
		Minted:         minted,
		Collection:     snap.Params.CollectionSize,
		DevReserve:     snap.Params.AmountForDevs,
		Price:          snap.Price,
		Balance:        snap.Balance,
		WhitelistStart: snap.Whitelist.StartTime,
		WhitelistOpen:  phase == sale.PhaseWhitelist || phase == sale.PhaseBoth,
		Signer:         signer,
		PublicStart:    snap.Public.StartTime,
		PublicOpen:     phase == sale.PhasePublic || phase == sale.PhaseBoth,
		Holders:        holders,
	}
}

func printReceipt(title string, r *sale.Receipt) {
	pairs := [][2]string{
		{"Tokens", fmt.Sprintf("#%d..#%d", r.FirstID, r.FirstID+r.Quantity-1)},
		{"Quantity", fmt.Sprintf("%d", r.Quantity)},
	}
	if r.Cost != nil {
		pairs = append(pairs, [2]string{"Cost", ui.Ether(r.Cost)})
	}
	if r.Refund != nil && r.Refund.Sign() > 0 {
		pairs = append(pairs, [2]string{"Refund", ui.Ether(r.Refund)})
	}
	fmt.Println(ui.KeyValueBlock(title, pairs))
	if r.RefundOwed {
		fmt.Println(ui.Warn("Refund payout failed; claim it with `battlepass refund`."))
	}
}
