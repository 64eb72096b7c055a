package cmd

import (
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/battlepass/internal/sale"
	"github.com/Mohsinsiddi/battlepass/internal/store"
	"github.com/Mohsinsiddi/battlepass/internal/ui"
	"github.com/spf13/cobra"
)

var (
	initName          string
	initSymbol        string
	initBatch         uint64
	initCollection    uint64
	initDevs          uint64
	initMaxPerAddress uint64
	initForce         bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Deploy a new sale owned by the selected wallet",
	Long: `Create a sale with fixed deployment parameters and save it to the
configured state backend. The selected wallet becomes the owner.

Defaults match the BattlePass deployment: batches of 5, 200 tokens, 100
reserved for the team.

Examples:
  battlepass init
  battlepass init --collection 1000 --devs 50 --batch 10
  battlepass --state-backend redis init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(ui.Banner(Version))

		id, err := identity()
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(st)

		if !initForce {
			ctx, cancel := storeContext(cmd.Context())
			_, err := st.Load(ctx)
			cancel()
			switch {
			case err == nil:
				return errors.New("a sale is already deployed here; pass --force to replace it")
			case !errors.Is(err, store.ErrNotDeployed):
				return err
			}
		}

		p := sale.DefaultParams(initName, initSymbol)
		p.MaxBatchSize = initBatch
		p.CollectionSize = initCollection
		p.AmountForDevs = initDevs
		p.MaxPerAddress = initMaxPerAddress

		opts, err := saleOptions()
		if err != nil {
			return err
		}
		c, err := sale.New(p, id.Address, opts...)
		if err != nil {
			return err
		}
		if err := saveSale(cmd.Context(), st, c); err != nil {
			return err
		}

		fmt.Println(ui.KeyValueBlock("Sale Deployed", [][2]string{
			{"Name", fmt.Sprintf("%s (%s)", p.Name, p.Symbol)},
			{"Owner", id.Address.Hex()},
			{"Max batch size", fmt.Sprintf("%d", p.MaxBatchSize)},
			{"Collection size", fmt.Sprintf("%d", p.CollectionSize)},
			{"Reserved for devs", fmt.Sprintf("%d", p.AmountForDevs)},
			{"State backend", cfg.StateBackend},
		}))
		fmt.Println(ui.Hint("Next: battlepass reserve " + fmt.Sprint(p.MaxBatchSize) + "  ·  battlepass price 0.08"))
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initName, "name", "BattlePass", "collection name")
	initCmd.Flags().StringVar(&initSymbol, "symbol", "BP", "collection symbol")
	initCmd.Flags().Uint64Var(&initBatch, "batch", sale.DefaultMaxBatchSize, "max batch size")
	initCmd.Flags().Uint64Var(&initCollection, "collection", sale.DefaultCollectionSize, "collection size")
	initCmd.Flags().Uint64Var(&initDevs, "devs", sale.DefaultAmountForDevs, "tokens reserved for the team")
	initCmd.Flags().Uint64Var(&initMaxPerAddress, "max-per-address", 0, "lifetime per-address cap on public mints (0: no cap)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "replace an existing sale")
}
