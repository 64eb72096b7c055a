// Package allowlist builds and checks the signed claims that admit an
// address to the whitelist sale.
//
// A claim binds an address to the most tokens it may mint in the
// whitelist phase. The signer authority signs the text
//
//	<UPPERCASED 0x ADDRESS>:<max quantity>
//
// with EIP-191 personal_sign, which is what ethers' signMessage produces for
// `${address.toUpperCase()}:${n}`. The legacy format carries no chain or
// contract binding, so a signature is valid on every deployment that trusts
// the same signer. A Domain appends that binding for new deployments.
package allowlist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Claim is one allowlist entry.
type Claim struct {
	Address     common.Address `json:"address"`
	MaxQuantity uint64         `json:"max_quantity"`
}

// Domain binds a claim to one chain and contract.
type Domain struct {
	ChainID  *big.Int
	Contract common.Address
}

// Message returns the exact bytes that are signed for c. d may be nil.
func Message(c Claim, d *Domain) []byte {
	msg := strings.ToUpper(c.Address.Hex()) + ":" + strconv.FormatUint(c.MaxQuantity, 10)
	if d != nil {
		chainID := "0"
		if d.ChainID != nil {
			chainID = d.ChainID.String()
		}
		msg += "@" + chainID + ":" + strings.ToUpper(d.Contract.Hex())
	}
	return []byte(msg)
}

// ReadClaims parses "address,max_quantity" rows. A leading header row is
// skipped when its first column is not an address.
func ReadClaims(r io.Reader) ([]Claim, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	var claims []Claim
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading claims: %w", err)
		}
		addr := strings.TrimSpace(rec[0])
		if !common.IsHexAddress(addr) {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: invalid address %q", line, addr)
		}
		n, err := strconv.ParseUint(strings.TrimSpace(rec[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid max quantity %q", line, rec[1])
		}
		claims = append(claims, Claim{Address: common.HexToAddress(addr), MaxQuantity: n})
	}
	return claims, nil
}
