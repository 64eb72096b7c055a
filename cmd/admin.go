package cmd

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/Mohsinsiddi/battlepass/internal/sale"
	"github.com/Mohsinsiddi/battlepass/internal/ui"
	"github.com/Mohsinsiddi/battlepass/internal/wallet"
	"github.com/spf13/cobra"
)

var (
	priceWei        bool
	whitelistStart  string
	whitelistSigner string
	publicStart     string
	ownerYes        bool
)

var reserveCmd = &cobra.Command{
	Use:   "reserve <quantity>",
	Short: "Mint team tokens to the owner (multiple of the batch size)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[0])
		}
		return transact(cmd, func(c *sale.Contract, id *wallet.Identity) error {
			r, err := c.Reserve(&sale.Opts{From: id.Address}, qty)
			if err != nil {
				return err
			}
			printReceipt("Reserved", r)
			return nil
		})
	},
}

var priceCmd = &cobra.Command{
	Use:   "price <amount>",
	Short: "Set the unit price for both paid phases (ETH, or wei with --wei)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		price, err := parseAmount(args[0], priceWei)
		if err != nil {
			return err
		}
		return transact(cmd, func(c *sale.Contract, id *wallet.Identity) error {
			if err := c.SetPrice(&sale.Opts{From: id.Address}, price); err != nil {
				return err
			}
			fmt.Println(ui.Success("Price set to " + ui.Ether(price)))
			return nil
		})
	},
}

var whitelistCmd = &cobra.Command{
	Use:   "whitelist",
	Short: "Configure the whitelist phase",
}

var whitelistConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Set the whitelist start time and claim signer",
	Long: `Set when the whitelist phase opens and which address signs claims.

Changing the signer invalidates every claim signed by the previous one.

Examples:
  battlepass whitelist config --start now --signer 0x70997970C51812dc3A010C7d01b50e0d17dc79C8
  battlepass whitelist config --start 2026-11-01T18:00:00Z --signer 0x...
  battlepass whitelist config --start +30m --signer 0x...`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := parseStart(whitelistStart, time.Now())
		if err != nil {
			return err
		}
		signer, err := parseAddress("--signer", whitelistSigner)
		if err != nil {
			return err
		}
		return transact(cmd, func(c *sale.Contract, id *wallet.Identity) error {
			if err := c.SetWhitelistSaleConfig(&sale.Opts{From: id.Address}, start, signer); err != nil {
				return err
			}
			fmt.Println(ui.Success(fmt.Sprintf("Whitelist opens %s, signer %s", ui.StartTime(start), ui.Addr(signer.Hex()))))
			return nil
		})
	},
}

var publicCmd = &cobra.Command{
	Use:   "public",
	Short: "Configure the public phase",
}

var publicConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Set the public sale start time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := parseStart(publicStart, time.Now())
		if err != nil {
			return err
		}
		return transact(cmd, func(c *sale.Contract, id *wallet.Identity) error {
			if err := c.SetPublicSaleConfig(&sale.Opts{From: id.Address}, start); err != nil {
				return err
			}
			fmt.Println(ui.Success("Public sale opens " + ui.StartTime(start)))
			return nil
		})
	},
}

var baseURICmd = &cobra.Command{
	Use:   "base-uri <uri>",
	Short: "Set the metadata base URI (token URIs are base URI + id)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transact(cmd, func(c *sale.Contract, id *wallet.Identity) error {
			if err := c.SetBaseURI(&sale.Opts{From: id.Address}, args[0]); err != nil {
				return err
			}
			fmt.Println(ui.Success("Base URI set to " + args[0]))
			return nil
		})
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Send the whole contract balance to the owner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return transact(cmd, func(c *sale.Contract, id *wallet.Identity) error {
			amount, err := c.Withdraw(&sale.Opts{From: id.Address})
			if err != nil {
				return err
			}
			fmt.Println(ui.Success(fmt.Sprintf("Withdrew %s to %s", ui.Ether(amount), ui.Addr(id.Address.Hex()))))
			return nil
		})
	},
}

var ownerCmd = &cobra.Command{
	Use:   "owner",
	Short: "Transfer or renounce ownership",
}

var ownerTransferCmd = &cobra.Command{
	Use:   "transfer <address>",
	Short: "Hand ownership to another address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := parseAddress("address", args[0])
		if err != nil {
			return err
		}
		return transact(cmd, func(c *sale.Contract, id *wallet.Identity) error {
			if err := c.TransferOwnership(&sale.Opts{From: id.Address}, to); err != nil {
				return err
			}
			fmt.Println(ui.Success("Ownership transferred to " + ui.Addr(to.Hex())))
			return nil
		})
	},
}

var ownerRenounceCmd = &cobra.Command{
	Use:   "renounce",
	Short: "Give up ownership for good; owner operations become impossible",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ownerYes && !ui.ConfirmDanger("Renounce ownership? Nobody will be able to withdraw or configure the sale.") {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		return transact(cmd, func(c *sale.Contract, id *wallet.Identity) error {
			if err := c.RenounceOwnership(&sale.Opts{From: id.Address}); err != nil {
				return err
			}
			fmt.Println(ui.Success("Ownership renounced."))
			return nil
		})
	},
}

func init() {
	priceCmd.Flags().BoolVar(&priceWei, "wei", false, "amount is in wei")

	whitelistConfigCmd.Flags().StringVar(&whitelistStart, "start", "", "start time: unix seconds, RFC3339, now, or +duration (required)")
	whitelistConfigCmd.Flags().StringVar(&whitelistSigner, "signer", "", "address that signs claims (required)")
	_ = whitelistConfigCmd.MarkFlagRequired("start")
	_ = whitelistConfigCmd.MarkFlagRequired("signer")
	whitelistCmd.AddCommand(whitelistConfigCmd)

	publicConfigCmd.Flags().StringVar(&publicStart, "start", "", "start time: unix seconds, RFC3339, now, or +duration (required)")
	_ = publicConfigCmd.MarkFlagRequired("start")
	publicCmd.AddCommand(publicConfigCmd)

	ownerRenounceCmd.Flags().BoolVarP(&ownerYes, "yes", "y", false, "skip confirmation")
	ownerCmd.AddCommand(ownerTransferCmd, ownerRenounceCmd)
}

// parseStart reads a phase start time. Zero ("0") leaves the phase closed.
func parseStart(s string, now time.Time) (uint64, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return 0, fmt.Errorf("start time required")
	case s == "now":
		return uint64(now.Unix()), nil
	case strings.HasPrefix(s, "+"):
		d, err := time.ParseDuration(s[1:])
		if err != nil {
			return 0, fmt.Errorf("invalid start offset %q: %w", s, err)
		}
		return uint64(now.Add(d).Unix()), nil
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, fmt.Errorf("invalid start time %q: want unix seconds, RFC3339, now, or +duration", s)
	}
	if t.Unix() <= 0 {
		return 0, fmt.Errorf("start time %q is before 1970", s)
	}
	return uint64(t.Unix()), nil
}

// parseAmount reads an ETH amount, or a wei integer when wei is set.
func parseAmount(s string, wei bool) (*big.Int, error) {
	if !wei {
		return parseEther(s)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid wei amount: %s", s)
	}
	return v, nil
}
