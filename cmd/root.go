package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Mohsinsiddi/battlepass/internal/config"
	"github.com/Mohsinsiddi/battlepass/internal/sale"
	"github.com/Mohsinsiddi/battlepass/internal/ui"
	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/battlepass/cmd.Version=1.2.3" .
var Version = "0.3.0"

var (
	cfgDir       string
	cfg          *config.Config
	verbose      bool
	stateBackend string
	walletName   string
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "battlepass",
	Short: "Run and inspect a BattlePass NFT sale",
	Long: `battlepass drives the BattlePass ERC-721A sale: dev reservations, a
signature-gated whitelist phase, and a public phase.

State is kept locally (file or redis) so you can rehearse a sale end to end,
serve it over HTTP, and compare it with a deployed contract through
'battlepass inspect'.

Commands act as the wallet chosen with --wallet, else the default wallet,
else the PRIVATE_KEY environment variable.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		setupLogging()

		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if stateBackend != "" {
			if err := cfg.SetStateBackend(stateBackend); err != nil {
				return err
			}
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
		var se *sale.Error
		if errors.As(err, &se) {
			fmt.Fprintln(os.Stderr, ui.Meta("  rejected: "+se.Kind.String()))
		}
		stop()
		os.Exit(1)
	}
}

func setupLogging() {
	level := log.LevelInfo
	if verbose {
		level = log.LevelDebug
	}
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, false)))
}

func init() {
	// BATTLEPASS_CONFIG_DIR overrides the --config default.
	if envDir := os.Getenv(config.EnvConfigDir); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.battlepass)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&stateBackend, "state-backend", "", "state backend for this run: file|redis (default: config)")
	rootCmd.PersistentFlags().StringVarP(&walletName, "wallet", "w", "", "wallet to act as (default: config)")

	rootCmd.AddCommand(
		initCmd,
		walletCmd,
		reserveCmd,
		priceCmd,
		whitelistCmd,
		publicCmd,
		baseURICmd,
		mintCmd,
		whitelistMintCmd,
		refundCmd,
		withdrawCmd,
		ownerCmd,
		tokenURICmd,
		statusCmd,
		allowlistCmd,
		serveCmd,
		inspectCmd,
		calldataCmd,
	)
}
