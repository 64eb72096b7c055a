package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/Mohsinsiddi/battlepass/internal/allowlist"
	"github.com/Mohsinsiddi/battlepass/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"
)

var (
	allowSig     string
	allowSigner  string
	allowIn      string
	allowOut     string
	allowWorkers int
)

var allowlistCmd = &cobra.Command{
	Use:   "allowlist",
	Short: "Sign and check whitelist claims",
	Long: `Whitelist claims are "address:maxQuantity" strings signed with
personal_sign by the sale's configured signer. Pass --domain-contract (and
--chain-id) to bind claims to one deployment; the sale must then be run with
the same flags.`,
}

var allowlistSignCmd = &cobra.Command{
	Use:   "sign <address> <max-quantity>",
	Short: "Sign one claim with the selected wallet",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := parseClaim(args[0], args[1])
		if err != nil {
			return err
		}
		d, err := claimDomain()
		if err != nil {
			return err
		}
		id, err := identity()
		if err != nil {
			return err
		}
		key, err := id.Key()
		if err != nil {
			return err
		}
		sig, err := allowlist.Sign(key, c, d)
		if err != nil {
			return err
		}
		fmt.Println(ui.KeyValueBlock("Claim Signed", [][2]string{
			{"Message", string(allowlist.Message(c, d))},
			{"Signer", id.Address.Hex()},
			{"Signature", hexutil.Encode(sig)},
		}))
		return nil
	},
}

var allowlistVerifyCmd = &cobra.Command{
	Use:   "verify <address> <max-quantity>",
	Short: "Check a claim signature, showing the recovered signer",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := parseClaim(args[0], args[1])
		if err != nil {
			return err
		}
		d, err := claimDomain()
		if err != nil {
			return err
		}
		sig, err := hexutil.Decode(allowSig)
		if err != nil {
			return fmt.Errorf("invalid --sig: %w", err)
		}
		v := allowlist.NewVerifier(allowlist.WithDomain(d))
		recovered, err := v.Recover(c, sig)
		if err != nil {
			return err
		}
		fmt.Println(ui.Info("Recovered signer " + ui.Addr(recovered.Hex())))

		if allowSigner == "" {
			return nil
		}
		want, err := parseAddress("--signer", allowSigner)
		if err != nil {
			return err
		}
		if err := v.Verify(want, c, sig); err != nil {
			return err
		}
		fmt.Println(ui.Success("Signature valid for " + ui.Addr(want.Hex())))
		return nil
	},
}

var allowlistSignBatchCmd = &cobra.Command{
	Use:   "sign-batch",
	Short: "Sign every claim in a CSV of address,max_quantity rows",
	Long: `Read claims from a CSV file (address,max_quantity, optional header) and
write them with signatures as JSON. The output is what 'battlepass
whitelist-mint --claims' reads.

Examples:
  battlepass allowlist sign-batch --in allowlist.csv --out claims.json
  battlepass allowlist sign-batch --in allowlist.csv --domain-contract 0x... --chain-id 1`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := claimDomain()
		if err != nil {
			return err
		}
		id, err := identity()
		if err != nil {
			return err
		}
		key, err := id.Key()
		if err != nil {
			return err
		}

		f, err := os.Open(allowIn)
		if err != nil {
			return err
		}
		claims, err := allowlist.ReadClaims(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("reading %s: %w", allowIn, err)
		}

		signed, err := allowlist.SignBatch(cmd.Context(), key, claims, d, allowWorkers)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(signed, "", "  ")
		if err != nil {
			return err
		}
		if allowOut == "" || allowOut == "-" {
			fmt.Println(string(data))
			return nil
		}
		if err := os.WriteFile(allowOut, append(data, '\n'), 0o644); err != nil {
			return err
		}
		log.Debug("Signed claims", "count", len(signed), "signer", crypto.PubkeyToAddress(key.PublicKey))
		fmt.Println(ui.Success(fmt.Sprintf("Signed %d claim(s) as %s → %s", len(signed), ui.Addr(id.Address.Hex()), allowOut)))
		return nil
	},
}

func init() {
	allowlistVerifyCmd.Flags().StringVar(&allowSig, "sig", "", "signature to check (0x hex, required)")
	allowlistVerifyCmd.Flags().StringVar(&allowSigner, "signer", "", "expected signer address")
	_ = allowlistVerifyCmd.MarkFlagRequired("sig")

	allowlistSignBatchCmd.Flags().StringVar(&allowIn, "in", "", "claims CSV (required)")
	allowlistSignBatchCmd.Flags().StringVarP(&allowOut, "out", "o", "", "output JSON file (default stdout)")
	allowlistSignBatchCmd.Flags().IntVar(&allowWorkers, "workers", 0, "concurrent signers (default: number of CPUs)")
	_ = allowlistSignBatchCmd.MarkFlagRequired("in")

	for _, c := range []*cobra.Command{allowlistSignCmd, allowlistVerifyCmd, allowlistSignBatchCmd} {
		addDomainFlags(c)
	}
	allowlistCmd.AddCommand(allowlistSignCmd, allowlistVerifyCmd, allowlistSignBatchCmd)
}

func parseClaim(addr, max string) (allowlist.Claim, error) {
	a, err := parseAddress("address", addr)
	if err != nil {
		return allowlist.Claim{}, err
	}
	n, err := strconv.ParseUint(max, 10, 64)
	if err != nil {
		return allowlist.Claim{}, errors.New("max-quantity must be a non-negative integer")
	}
	if a == (common.Address{}) {
		return allowlist.Claim{}, errors.New("address must not be zero")
	}
	return allowlist.Claim{Address: a, MaxQuantity: n}, nil
}
