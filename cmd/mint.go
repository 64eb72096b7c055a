package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/Mohsinsiddi/battlepass/internal/allowlist"
	"github.com/Mohsinsiddi/battlepass/internal/sale"
	"github.com/Mohsinsiddi/battlepass/internal/ui"
	"github.com/Mohsinsiddi/battlepass/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var (
	mintValue string
	mintWei   bool

	wlMax       uint64
	wlSig       string
	wlClaimFile string
)

var mintCmd = &cobra.Command{
	Use:   "mint <quantity>",
	Short: "Buy tokens in the public sale",
	Long: `Buy tokens in the public sale. --value is what you send; anything above
price × quantity is refunded.

Examples:
  battlepass mint 2 --value 0.2
  battlepass mint 1 --value 100000000000000000 --wei --wallet alice`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[0])
		}
		value, err := parseAmount(mintValue, mintWei)
		if err != nil {
			return err
		}
		return transact(cmd, func(c *sale.Contract, id *wallet.Identity) error {
			r, err := c.Mint(&sale.Opts{From: id.Address, Value: value}, qty)
			if err != nil {
				return err
			}
			printReceipt("Minted", r)
			return nil
		})
	},
}

var whitelistMintCmd = &cobra.Command{
	Use:   "whitelist-mint <quantity>",
	Short: "Buy tokens in the whitelist sale with a signed claim",
	Long: `Buy tokens in the whitelist sale. The claim is either given directly
with --max and --sig, or looked up for the selected wallet in a JSON file
produced by 'battlepass allowlist sign-batch'.

Examples:
  battlepass whitelist-mint 2 --max 3 --sig 0x... --value 0.16
  battlepass whitelist-mint 1 --claims claims.json --value 0.08`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[0])
		}
		value, err := parseAmount(mintValue, mintWei)
		if err != nil {
			return err
		}
		return transact(cmd, func(c *sale.Contract, id *wallet.Identity) error {
			max, sig, err := resolveClaim(id.Address)
			if err != nil {
				return err
			}
			r, err := c.WhitelistMint(&sale.Opts{From: id.Address, Value: value}, qty, max, sig)
			if err != nil {
				return err
			}
			printReceipt("Whitelist Minted", r)
			fmt.Println(ui.Meta(fmt.Sprintf("Claim used: %d of %d", c.WhitelistMinted(id.Address), max)))
			return nil
		})
	},
}

var refundCmd = &cobra.Command{
	Use:   "refund",
	Short: "Claim an overpayment refund whose payout failed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return transact(cmd, func(c *sale.Contract, id *wallet.Identity) error {
			amount, err := c.ClaimRefund(&sale.Opts{From: id.Address})
			if err != nil {
				return err
			}
			fmt.Println(ui.Success("Refunded " + ui.Ether(amount)))
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{mintCmd, whitelistMintCmd} {
		c.Flags().StringVar(&mintValue, "value", "", "amount sent with the call (ETH)")
		c.Flags().BoolVar(&mintWei, "wei", false, "--value is in wei")
	}
	whitelistMintCmd.Flags().Uint64Var(&wlMax, "max", 0, "max quantity in the signed claim")
	whitelistMintCmd.Flags().StringVar(&wlSig, "sig", "", "claim signature (0x hex)")
	whitelistMintCmd.Flags().StringVar(&wlClaimFile, "claims", "", "signed claims JSON to look the claim up in")
	whitelistMintCmd.MarkFlagsMutuallyExclusive("sig", "claims")
	addDomainFlags(whitelistMintCmd)
}

// resolveClaim returns the claim for addr from --max/--sig or --claims.
func resolveClaim(addr common.Address) (uint64, []byte, error) {
	if wlClaimFile == "" {
		if wlSig == "" {
			return 0, nil, errors.New("pass --sig and --max, or --claims")
		}
		sig, err := hexutil.Decode(wlSig)
		if err != nil {
			return 0, nil, fmt.Errorf("invalid --sig: %w", err)
		}
		return wlMax, sig, nil
	}

	data, err := os.ReadFile(wlClaimFile)
	if err != nil {
		return 0, nil, err
	}
	var signed []allowlist.Signed
	if err := json.Unmarshal(data, &signed); err != nil {
		return 0, nil, fmt.Errorf("parsing %s: %w", wlClaimFile, err)
	}
	for _, s := range signed {
		if s.Address == addr {
			return s.MaxQuantity, s.Signature, nil
		}
	}
	return 0, nil, fmt.Errorf("no claim for %s in %s", addr.Hex(), wlClaimFile)
}
