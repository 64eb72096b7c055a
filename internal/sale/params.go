package sale

import (
	"errors"
	"fmt"
)

// Deploy-time defaults, taken from the BattlePass deployment.
const (
	DefaultMaxBatchSize   = uint64(5)
	DefaultCollectionSize = uint64(200)
	DefaultAmountForDevs  = uint64(100)
)

// Params are fixed at deployment and never change afterwards.
type Params struct {
	Name           string `json:"name"`
	Symbol         string `json:"symbol"`
	MaxBatchSize   uint64 `json:"max_batch_size"`
	CollectionSize uint64 `json:"collection_size"`
	AmountForDevs  uint64 `json:"amount_for_devs"`
	// MaxPerAddress caps how many tokens one address may buy in the public
	// sale over its lifetime. Zero means no cap.
	MaxPerAddress uint64 `json:"max_per_address,omitempty"`
}

// DefaultParams returns the BattlePass deployment parameters.
func DefaultParams(name, symbol string) Params {
	return Params{
		Name:           name,
		Symbol:         symbol,
		MaxBatchSize:   DefaultMaxBatchSize,
		CollectionSize: DefaultCollectionSize,
		AmountForDevs:  DefaultAmountForDevs,
	}
}

// Validate checks the constructor requirements.
func (p Params) Validate() error {
	if p.MaxBatchSize == 0 {
		return errors.New("max batch size must be nonzero")
	}
	if p.CollectionSize == 0 {
		return errors.New("collection size must be nonzero")
	}
	if p.AmountForDevs > p.CollectionSize {
		return fmt.Errorf("larger collection size needed: amount for devs %d exceeds collection size %d",
			p.AmountForDevs, p.CollectionSize)
	}
	return nil
}
