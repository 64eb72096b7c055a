package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Mohsinsiddi/battlepass/internal/sale"
	"github.com/Mohsinsiddi/battlepass/internal/ui"
	"github.com/spf13/cobra"
)

var statusWatch bool

var tokenURICmd = &cobra.Command{
	Use:   "token-uri <id>",
	Short: "Show the metadata URI and owner of a minted token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid token id %q", args[0])
		}
		return view(cmd, func(c *sale.Contract) error {
			uri, err := c.TokenURI(id)
			if err != nil {
				return err
			}
			owner, err := c.OwnerOf(id)
			if err != nil {
				return err
			}
			if uri == "" {
				uri = ui.Meta("(no base URI set)")
			}
			fmt.Println(ui.KeyValueBlock(fmt.Sprintf("Token #%d", id), [][2]string{
				{"URI", uri},
				{"Owner", owner.Hex()},
			}))
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sale phase, supply, price and holders",
	Long: `Show the stored sale. With --watch the view refreshes every
watch_interval seconds from the state backend, which is useful next to a
running 'battlepass serve' on the redis backend.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !statusWatch {
			return view(cmd, func(c *sale.Contract) error {
				fmt.Println(ui.RenderSale(saleView(c)))
				return nil
			})
		}

		interval := time.Duration(cfg.WatchInterval) * time.Second
		if interval <= 0 {
			interval = 2 * time.Second
		}
		ctx := cmd.Context()
		fetch := func() (ui.SaleView, error) {
			return fetchSaleView(ctx)
		}
		_, err := ui.NewDashboard(interval, fetch).Run()
		return err
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusWatch, "watch", false, "refresh continuously (q to quit)")
}

func fetchSaleView(ctx context.Context) (ui.SaleView, error) {
	c, st, err := loadSale(ctx)
	if err != nil {
		return ui.SaleView{}, err
	}
	defer closeStore(st)
	return saleView(c), nil
}
