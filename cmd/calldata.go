package cmd

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/Mohsinsiddi/battlepass/internal/config"
	"github.com/Mohsinsiddi/battlepass/internal/contract"
	"github.com/Mohsinsiddi/battlepass/internal/ui"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var (
	calldataList  bool
	calldataSend  bool
	calldataValue string
	calldataWei   bool
)

var calldataCmd = &cobra.Command{
	Use:   "calldata <method> [args...]",
	Short: "Encode (and optionally send) a call to the deployed contract",
	Long: `Encode a write call to the BattlePass contract ABI. With --send the call
is signed by the selected wallet and broadcast to the contract at
contract_address (or --address) through RPC_URL.

Methods:
  reserve <qty>                       mint <qty> --value <eth>
  price <eth>                         whitelist-mint <qty> <sig> --value <eth>
  whitelist-config <start> <signer>   public-config <start>
  base-uri <uri>                      withdraw
  transfer-ownership <address>        renounce-ownership

Examples:
  battlepass calldata --list
  battlepass calldata reserve 5
  battlepass calldata mint 2 --value 0.16 --send`,
	Args: func(cmd *cobra.Command, args []string) error {
		if calldataList {
			return nil
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if calldataList {
			printFunctions()
			return nil
		}
		value, err := parseAmount(calldataValue, calldataWei)
		if err != nil {
			return err
		}
		call, err := buildCall(args[0], args[1:], value)
		if err != nil {
			return err
		}
		fmt.Println(ui.KeyValueBlock("Calldata", [][2]string{
			{"Method", call.Method},
			{"Value", ui.Ether(call.Value)},
			{"Data", hexutil.Encode(call.Data)},
		}))
		if !calldataSend {
			return nil
		}
		return sendCall(cmd.Context(), call)
	},
}

func init() {
	calldataCmd.Flags().BoolVar(&calldataList, "list", false, "list contract functions and selectors")
	calldataCmd.Flags().BoolVar(&calldataSend, "send", false, "sign and broadcast the call")
	calldataCmd.Flags().StringVar(&calldataValue, "value", "", "ETH attached to mint calls")
	calldataCmd.Flags().BoolVar(&calldataWei, "wei", false, "--value and price amounts are in wei")
	calldataCmd.Flags().StringVar(&inspectAddress, "address", "", "contract address (default: contract_address from config)")
}

func printFunctions() {
	t := ui.NewTable([]ui.Column{
		{Title: "Function", Width: 44},
		{Title: "Selector", Width: 10},
		{Title: "Kind", Width: 8},
	})
	for _, f := range contract.Functions() {
		kind := "view"
		switch {
		case f.Payable:
			kind = "payable"
		case f.Write:
			kind = "write"
		}
		t.AddRow(ui.Row{f.Signature, f.Selector, kind})
	}
	fmt.Println(t.Render())
}

// buildCall maps a CLI method name and its arguments onto the ABI.
func buildCall(method string, args []string, value *big.Int) (*contract.Call, error) {
	need := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s takes %d argument(s), got %d", method, n, len(args))
		}
		return nil
	}
	uintArg := func(i int) (uint64, error) {
		n, err := strconv.ParseUint(args[i], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: invalid number %q", method, args[i])
		}
		return n, nil
	}

	switch method {
	case "reserve":
		if err := need(1); err != nil {
			return nil, err
		}
		qty, err := uintArg(0)
		if err != nil {
			return nil, err
		}
		return contract.PackReserve(qty)
	case "price":
		if err := need(1); err != nil {
			return nil, err
		}
		wei, err := parseAmount(args[0], calldataWei)
		if err != nil {
			return nil, err
		}
		return contract.PackSetPrice(wei)
	case "whitelist-config":
		if err := need(2); err != nil {
			return nil, err
		}
		start, err := uintArg(0)
		if err != nil {
			return nil, err
		}
		signer, err := parseAddress("signer", args[1])
		if err != nil {
			return nil, err
		}
		return contract.PackSetWhitelistSaleConfig(start, signer)
	case "public-config":
		if err := need(1); err != nil {
			return nil, err
		}
		start, err := uintArg(0)
		if err != nil {
			return nil, err
		}
		return contract.PackSetPublicSaleConfig(start)
	case "base-uri":
		if err := need(1); err != nil {
			return nil, err
		}
		return contract.PackSetBaseURI(args[0])
	case "mint":
		if err := need(1); err != nil {
			return nil, err
		}
		qty, err := uintArg(0)
		if err != nil {
			return nil, err
		}
		return contract.PackMint(qty, value)
	case "whitelist-mint":
		if err := need(2); err != nil {
			return nil, err
		}
		qty, err := uintArg(0)
		if err != nil {
			return nil, err
		}
		sig, err := hexutil.Decode(args[1])
		if err != nil {
			return nil, fmt.Errorf("whitelist-mint: invalid signature: %w", err)
		}
		return contract.PackWhitelistMint(qty, sig, value)
	case "withdraw":
		if err := need(0); err != nil {
			return nil, err
		}
		return contract.PackWithdraw()
	case "transfer-ownership":
		if err := need(1); err != nil {
			return nil, err
		}
		to, err := parseAddress("address", args[0])
		if err != nil {
			return nil, err
		}
		return contract.PackTransferOwnership(to)
	case "renounce-ownership":
		if err := need(0); err != nil {
			return nil, err
		}
		return contract.PackRenounceOwnership()
	}
	return nil, fmt.Errorf("unknown method %q (see battlepass calldata --help)", method)
}

func sendCall(ctx context.Context, call *contract.Call) error {
	addr, err := contractAddress()
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
	if len(cfg.RPCURLs()) == 0 {
		return errNoRPC
	}
	if !ui.Confirm(fmt.Sprintf("Send %s to %s as %s?", call.Method, ui.TruncateAddr(addr.Hex()), ui.TruncateAddr(id.Address.Hex()))) {
		fmt.Println(ui.Meta("Cancelled."))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, config.RPCTimeout)
	defer cancel()
	client, err := dialNode(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	tx, err := contract.NewSender(client, key, addr).Send(ctx, call)
	if err != nil {
		return err
	}
	fmt.Println(ui.Success("Sent " + ui.Addr(tx.Hash().Hex())))
	return nil
}
