package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/battlepass/internal/rpc"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
)

var errNoRPC = errors.New("no RPC endpoint: set RPC_URL or ALCHEMY_KEY, or rpc_url in config")

// dialNode connects to the configured node. With several RPC URLs the
// endpoint is chosen by rpc_algorithm.
func dialNode(ctx context.Context) (*ethclient.Client, error) {
	urls := cfg.RPCURLs()
	if len(urls) == 0 {
		return nil, errNoRPC
	}
	algo, err := rpc.ParseAlgorithm(cfg.RPCAlgorithm)
	if err != nil {
		return nil, err
	}
	url, err := rpc.Select(ctx, urls, algo, rpc.DialEth)
	if err != nil {
		return nil, err
	}
	log.Debug("Using RPC endpoint", "url", url, "candidates", len(urls), "algorithm", algo)

	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", url, err)
	}
	return client, nil
}
