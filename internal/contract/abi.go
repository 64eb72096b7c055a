// Package contract talks to a deployed BattlePass contract: calldata for
// every owner and buyer entry point, view-call decoding, and a transaction
// sender for pushing prepared calls to a node.
package contract

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"golang.org/x/crypto/sha3"
)

// battlePassABIJSON is the sale surface of the deployed contract. The ERC-721
// transfer and approval functions are left out.
const battlePassABIJSON = `[
  {"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"price","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"maxBatchSize","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"collectionSize","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"amountForDevs","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"whitelistSaleConfig","stateMutability":"view","inputs":[],
   "outputs":[{"name":"startTime","type":"uint64"},{"name":"signer","type":"address"}]},
  {"type":"function","name":"publicSaleConfig","stateMutability":"view","inputs":[],
   "outputs":[{"name":"startTime","type":"uint64"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"ownerOf","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"tokenURI","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},

  {"type":"function","name":"reserve","stateMutability":"nonpayable","inputs":[{"name":"quantity","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"setPrice","stateMutability":"nonpayable","inputs":[{"name":"price","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"setWhitelistSaleConfig","stateMutability":"nonpayable",
   "inputs":[{"name":"startTime","type":"uint64"},{"name":"signer","type":"address"}],"outputs":[]},
  {"type":"function","name":"setPublicSaleConfig","stateMutability":"nonpayable","inputs":[{"name":"startTime","type":"uint64"}],"outputs":[]},
  {"type":"function","name":"setBaseURI","stateMutability":"nonpayable","inputs":[{"name":"baseURI","type":"string"}],"outputs":[]},
  {"type":"function","name":"mint","stateMutability":"payable","inputs":[{"name":"quantity","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"whitelistMint","stateMutability":"payable",
   "inputs":[{"name":"quantity","type":"uint256"},{"name":"signature","type":"bytes"}],"outputs":[]},
  {"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"transferOwnership","stateMutability":"nonpayable","inputs":[{"name":"newOwner","type":"address"}],"outputs":[]},
  {"type":"function","name":"renounceOwnership","stateMutability":"nonpayable","inputs":[],"outputs":[]}
]`

// BattlePassABI is the parsed sale ABI.
var BattlePassABI = mustParseABI(battlePassABIJSON)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(fmt.Sprintf("contract: invalid embedded ABI: %v", err))
	}
	return parsed
}

// Selector computes the 4-byte selector of a canonical signature such as
// "reserve(uint256)".
func Selector(sig string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(sig))
	return "0x" + hex.EncodeToString(h.Sum(nil)[:4])
}

// Function describes one ABI method for listings.
type Function struct {
	Name      string
	Signature string
	Selector  string
	Payable   bool
	Write     bool
}

// Functions lists the ABI methods sorted by name.
func Functions() []Function {
	out := make([]Function, 0, len(BattlePassABI.Methods))
	for _, m := range BattlePassABI.Methods {
		out = append(out, Function{
			Name:      m.Name,
			Signature: m.Sig,
			Selector:  Selector(m.Sig),
			Payable:   m.IsPayable(),
			Write:     !m.IsConstant(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
