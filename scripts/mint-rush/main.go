// mint-rush: opens a local sale and lets many buyers hit the public mint at
// once, then prints how the supply was split and why calls were rejected.
//
// Run from the module root:
//
//	go run ./scripts/mint-rush
package main

import (
	"flag"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/Mohsinsiddi/battlepass/internal/sale"
	"github.com/Mohsinsiddi/battlepass/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
)

// ── config ────────────────────────────────────────────────────────────────────

var (
	buyers   = flag.Int("buyers", 40, "concurrent buyers")
	perBuyer = flag.Uint64("qty", 5, "tokens each buyer asks for")
	overpay  = flag.Bool("overpay", true, "send 10% more than the price")
)

var price = new(big.Int).Div(big.NewInt(8*params.Ether), big.NewInt(100)) // 0.08 ETH

// ── types ─────────────────────────────────────────────────────────────────────

type outcome struct {
	buyer  common.Address
	first  uint64
	refund *big.Int
	err    string
}

// ── main ──────────────────────────────────────────────────────────────────────

func main() {
	flag.Parse()

	owner := newAddress()
	c, err := sale.New(sale.DefaultParams("BattlePass", "BP"), owner)
	if err != nil {
		fail(err)
	}
	ownerOpts := &sale.Opts{From: owner}
	must(c.Reserve(ownerOpts, c.Params().AmountForDevs))
	check(c.SetPrice(ownerOpts, price))
	check(c.SetPublicSaleConfig(ownerOpts, uint64(time.Now().Unix())))

	value := new(big.Int).Mul(price, new(big.Int).SetUint64(*perBuyer))
	if *overpay {
		value.Add(value, new(big.Int).Div(value, big.NewInt(10)))
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		outcomes []outcome
	)
	for range *buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o := outcome{buyer: newAddress()}
			r, err := c.Mint(&sale.Opts{From: o.buyer, Value: value}, *perBuyer)
			if err != nil {
				o.err = err.Error()
			} else {
				o.first, o.refund = r.FirstID, r.Refund
			}
			mu.Lock()
			outcomes = append(outcomes, o)
			mu.Unlock()
		}()
	}
	wg.Wait()

	printTable(outcomes)
	fmt.Println()
	fmt.Println(ui.RenderSale(ui.SaleView{
		Name:       "BattlePass (BP)",
		Owner:      owner.Hex(),
		Minted:     c.TotalMinted(),
		Collection: c.Params().CollectionSize,
		DevReserve: c.Params().AmountForDevs,
		Price:      c.Price(),
		Balance:    c.Balance(),
		PublicOpen: true,
	}))
}

// ── output ────────────────────────────────────────────────────────────────────

func printTable(outcomes []outcome) {
	// Winners by first token id, then rejections.
	sort.Slice(outcomes, func(i, j int) bool {
		a, b := outcomes[i], outcomes[j]
		if (a.err == "") != (b.err == "") {
			return a.err == ""
		}
		return a.first < b.first
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BUYER\tTOKENS\tREFUND\tNOTE")
	fmt.Fprintln(w, strings.Repeat("-", 14)+"\t"+strings.Repeat("-", 10)+"\t"+strings.Repeat("-", 12)+"\t"+strings.Repeat("-", 20))

	rejected := map[string]int{}
	for _, o := range outcomes {
		if o.err != "" {
			rejected[o.err]++
			fmt.Fprintf(w, "%s\t—\t—\t%s\n", ui.TruncateAddr(o.buyer.Hex()), o.err)
			continue
		}
		fmt.Fprintf(w, "%s\t#%d..#%d\t%s\t\n", ui.TruncateAddr(o.buyer.Hex()), o.first, o.first+*perBuyer-1, ui.Ether(o.refund))
	}
	w.Flush()

	for reason, n := range rejected {
		fmt.Println(ui.Warn(fmt.Sprintf("%d rejected: %s", n, reason)))
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func newAddress() common.Address {
	key, err := crypto.GenerateKey()
	if err != nil {
		fail(err)
	}
	return crypto.PubkeyToAddress(key.PublicKey)
}

func must(_ *sale.Receipt, err error) { check(err) }

func check(err error) {
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
	os.Exit(1)
}
