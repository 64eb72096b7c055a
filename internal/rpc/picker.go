// Package rpc chooses a node endpoint when several RPC URLs are configured.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"
)

// ErrNoHealthyRPC is returned when no configured endpoint answered.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm names how an endpoint is chosen.
type Algorithm string

const (
	AlgorithmFastest  Algorithm = "fastest"
	AlgorithmFailover Algorithm = "failover"

	// Nodes more than this many blocks behind the best are skipped.
	staleBlockThreshold = 3
	probeTimeout        = 5 * time.Second
)

// ParseAlgorithm accepts "", "fastest" or "failover".
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case "", AlgorithmFastest:
		return AlgorithmFastest, nil
	case AlgorithmFailover:
		return AlgorithmFailover, nil
	}
	return "", fmt.Errorf("unknown RPC algorithm %q (want fastest or failover)", s)
}

// Endpoint is one probed node.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Err         error
}

// Healthy reports whether the probe succeeded.
func (e Endpoint) Healthy() bool { return e.Err == nil }

// Head is the part of a node client a probe needs.
type Head interface {
	BlockNumber(ctx context.Context) (uint64, error)
	Close()
}

// Dialer opens a client for url.
type Dialer func(ctx context.Context, url string) (Head, error)

// DialEth dials url with ethclient.
func DialEth(ctx context.Context, url string) (Head, error) {
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Probe asks every url for its head block in parallel. The result keeps the
// input order.
func Probe(ctx context.Context, urls []string, dial Dialer) []Endpoint {
	out := make([]Endpoint, len(urls))
	var g errgroup.Group
	for i, u := range urls {
		g.Go(func() error {
			out[i] = probe(ctx, u, dial)
			return nil
		})
	}
	g.Wait() //nolint:errcheck
	return out
}

func probe(ctx context.Context, url string, dial Dialer) Endpoint {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	ep := Endpoint{URL: url}
	c, err := dial(ctx, url)
	if err != nil {
		ep.Err = err
		return ep
	}
	defer c.Close()

	start := time.Now()
	ep.BlockNumber, ep.Err = c.BlockNumber(ctx)
	ep.Latency = time.Since(start)
	log.Debug("Probed RPC endpoint", "url", url, "block", ep.BlockNumber, "latency", ep.Latency, "err", ep.Err)
	return ep
}

// Pick chooses from probed endpoints. Fastest takes the lowest latency among
// healthy nodes that are not stale; failover takes the first healthy node in
// configured order.
func Pick(endpoints []Endpoint, algo Algorithm) (*Endpoint, error) {
	var best uint64
	for _, e := range endpoints {
		if e.Healthy() && e.BlockNumber > best {
			best = e.BlockNumber
		}
	}

	var candidates []*Endpoint
	for i := range endpoints {
		e := &endpoints[i]
		if !e.Healthy() || best-e.BlockNumber > staleBlockThreshold {
			continue
		}
		candidates = append(candidates, e)
	}
	if len(candidates) == 0 {
		return nil, ErrNoHealthyRPC
	}
	if algo == AlgorithmFailover {
		return candidates[0], nil
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Latency < candidates[j].Latency })
	return candidates[0], nil
}

// Select returns the endpoint to use. A single url is returned without a
// probe.
func Select(ctx context.Context, urls []string, algo Algorithm, dial Dialer) (string, error) {
	switch len(urls) {
	case 0:
		return "", ErrNoHealthyRPC
	case 1:
		return urls[0], nil
	}
	winner, err := Pick(Probe(ctx, urls, dial), algo)
	if err != nil {
		return "", err
	}
	return winner.URL, nil
}
