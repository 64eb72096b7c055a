package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/battlepass/internal/config"
	"github.com/Mohsinsiddi/battlepass/internal/contract"
	"github.com/Mohsinsiddi/battlepass/internal/sale"
	"github.com/Mohsinsiddi/battlepass/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	inspectAddress string
	inspectCompare bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Read a deployed BattlePass contract over JSON-RPC",
	Long: `Read the sale getters of a deployed contract. The node comes from
RPC_URL (or ALCHEMY_KEY, or rpc_url in config; several comma-separated
URLs are probed and one picked by rpc_algorithm); the contract from --address
or contract_address in config.

With --compare the on-chain values are shown next to the local sale.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := contractAddress()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCTimeout)
		defer cancel()
		client, err := dialNode(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		spin := ui.NewSpinner("Reading " + ui.TruncateAddr(addr.Hex()) + "...")
		spin.Start()
		st, err := contract.NewInspector(client, addr).Status(ctx)
		spin.Stop()
		if err != nil {
			return err
		}

		rows := [][2]string{
			{"Contract", addr.Hex()},
			{"Name", fmt.Sprintf("%s (%s)", st.Name, st.Symbol)},
			{"Owner", st.Owner.Hex()},
			{"Supply", fmt.Sprintf("%s / %s", st.TotalSupply, st.CollectionSize)},
			{"Dev reserve", st.AmountForDevs.String()},
			{"Max batch", st.MaxBatchSize.String()},
			{"Price", ui.Ether(st.Price)},
			{"Whitelist start", ui.StartTime(st.WhitelistStart)},
			{"Signer", st.Signer.Hex()},
			{"Public start", ui.StartTime(st.PublicStart)},
		}
		fmt.Println(ui.KeyValueBlock("On-chain Sale", rows))

		if !inspectCompare {
			return nil
		}
		return view(cmd, func(c *sale.Contract) error {
			fmt.Println(ui.KeyValueBlock("Local vs On-chain", compareRows(c, st)))
			return nil
		})
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectAddress, "address", "", "contract address (default: contract_address from config)")
	inspectCmd.Flags().BoolVar(&inspectCompare, "compare", false, "compare with the local sale")
}

func contractAddress() (common.Address, error) {
	s := inspectAddress
	if s == "" {
		s = cfg.ContractAddress
	}
	if s == "" {
		return common.Address{}, errors.New("no contract address: pass --address or set contract_address in config")
	}
	return parseAddress("contract address", s)
}

// compareRows lists each field with a mark showing whether both sides agree.
func compareRows(c *sale.Contract, st *contract.Status) [][2]string {
	wl := c.WhitelistSaleConfig()
	pub := c.PublicSaleConfig()
	mark := func(same bool) string {
		if same {
			return ui.Success("")
		}
		return ui.Warn("")
	}
	row := func(name, local, chain string) [2]string {
		return [2]string{name, fmt.Sprintf("%s %s | %s", mark(local == chain), local, chain)}
	}
	return [][2]string{
		row("Owner", c.Owner().Hex(), st.Owner.Hex()),
		row("Supply", fmt.Sprint(c.TotalSupply()), st.TotalSupply.String()),
		row("Price", c.Price().String(), st.Price.String()),
		row("Whitelist start", fmt.Sprint(wl.StartTime), fmt.Sprint(st.WhitelistStart)),
		row("Signer", wl.Signer.Hex(), st.Signer.Hex()),
		row("Public start", fmt.Sprint(pub.StartTime), fmt.Sprint(st.PublicStart)),
	}
}
