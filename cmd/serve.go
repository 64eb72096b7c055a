package cmd

import (
	"fmt"
	"net"

	"github.com/Mohsinsiddi/battlepass/internal/api"
	"github.com/Mohsinsiddi/battlepass/internal/sale"
	"github.com/Mohsinsiddi/battlepass/internal/ui"
	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the sale over HTTP",
	Long: `Load the stored sale and expose it as a JSON API. Every committed write
is saved back to the state backend. While serve runs it owns the state;
don't run write commands against the same backend at the same time.

The API trusts the "from" field of each request. Bind it to a private
address or put it behind something that authenticates callers.

Examples:
  battlepass serve
  battlepass serve --listen :9000 --state-backend redis`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := log.Root()
		events := sale.WithListener(func(e sale.Event) {
			logger.Info("Sale event", "event", e.EventName())
		})
		c, st, err := loadSale(cmd.Context(), events, sale.WithLogger(logger))
		if err != nil {
			return err
		}
		defer closeStore(st)

		addr := serveListen
		if addr == "" {
			addr = cfg.ListenAddr
		}
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", addr, err)
		}
		fmt.Println(ui.Info(fmt.Sprintf("Serving %s on http://%s  (Ctrl+C to stop)", c.Params().Name, ln.Addr())))
		return api.New(c, st, logger).Serve(cmd.Context(), ln)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default: listen_addr from config)")
	addDomainFlags(serveCmd)
}
