package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/Mohsinsiddi/battlepass/internal/contract"
	"github.com/Mohsinsiddi/battlepass/test/fixtures"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var saleAddress = common.HexToAddress("0x5FbDB2315678afccb367f032d93F642f64180aa3")

// mockNode answers eth_call for the sale getters with ABI-encoded values.
// Any other method gets a JSON-RPC error.
func mockNode(t *testing.T, results map[string][]any) *httptest.Server {
	t.Helper()

	bySelector := map[string]abi.Method{}
	for _, m := range contract.BattlePassABI.Methods {
		bySelector[string(m.ID)] = m
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage   `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck

		reply := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		w.Header().Set("Content-Type", "application/json")
		defer func() { json.NewEncoder(w).Encode(reply) }() //nolint:errcheck

		if req.Method != "eth_call" || len(req.Params) == 0 {
			reply["error"] = map[string]any{"code": -32601, "message": "method not found"}
			return
		}
		var call struct {
			Input hexutil.Bytes `json:"input"`
			Data  hexutil.Bytes `json:"data"`
		}
		json.Unmarshal(req.Params[0], &call) //nolint:errcheck
		input := call.Input
		if len(input) == 0 {
			input = call.Data
		}
		if len(input) < 4 {
			reply["error"] = map[string]any{"code": -32000, "message": "execution reverted"}
			return
		}
		m, ok := bySelector[string(input[:4])]
		vals, known := results[m.Name]
		if !ok || !known {
			reply["error"] = map[string]any{"code": -32000, "message": "execution reverted"}
			return
		}
		out, err := m.Outputs.Pack(vals...)
		if err != nil {
			reply["error"] = map[string]any{"code": -32000, "message": err.Error()}
			return
		}
		reply["result"] = hexutil.Encode(out)
	}))
}

// statusResults converts the status fixture into typed getter results.
func statusResults(t *testing.T) map[string][]any {
	t.Helper()
	f := fixtures.LoadStatus(t)
	num := func(k string) *big.Int {
		n, ok := new(big.Int).SetString(f[k], 10)
		require.True(t, ok, k)
		return n
	}
	u64 := func(k string) uint64 {
		n, err := strconv.ParseUint(f[k], 10, 64)
		require.NoError(t, err, k)
		return n
	}
	return map[string][]any{
		"name":                {f["name"]},
		"symbol":              {f["symbol"]},
		"owner":               {common.HexToAddress(f["owner"])},
		"totalSupply":         {num("totalSupply")},
		"price":               {num("price")},
		"maxBatchSize":        {num("maxBatchSize")},
		"collectionSize":      {num("collectionSize")},
		"amountForDevs":       {num("amountForDevs")},
		"whitelistSaleConfig": {u64("whitelistStart"), common.HexToAddress(f["signer"])},
		"publicSaleConfig":    {u64("publicStart")},
		"ownerOf":             {common.HexToAddress(f["owner"])},
		"tokenURI":            {"ipfs://battlepass/1"},
		"balanceOf":           {big.NewInt(100)},
	}
}

func dial(t *testing.T, url string) *ethclient.Client {
	t.Helper()
	client, err := ethclient.DialContext(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

// ---------------------------------------------------------------------------
// Inspector over ethclient
// ---------------------------------------------------------------------------

func TestInspectorStatus(t *testing.T) {
	node := mockNode(t, statusResults(t))
	defer node.Close()

	in := contract.NewInspector(dial(t, node.URL), saleAddress)
	st, err := in.Status(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "BattlePass", st.Name)
	assert.Equal(t, "BP", st.Symbol)
	assert.Equal(t, common.HexToAddress(fixtures.OwnerAddress), st.Owner)
	assert.Equal(t, "105", st.TotalSupply.String())
	assert.Equal(t, "80000000000000000", st.Price.String())
	assert.Equal(t, "5", st.MaxBatchSize.String())
	assert.Equal(t, "200", st.CollectionSize.String())
	assert.Equal(t, "100", st.AmountForDevs.String())
	assert.Equal(t, uint64(1_700_000_000), st.WhitelistStart)
	assert.Equal(t, common.HexToAddress(fixtures.BuyerAddress), st.Signer)
	assert.Equal(t, uint64(1_700_003_600), st.PublicStart)
}

func TestInspectorTokenReads(t *testing.T) {
	node := mockNode(t, statusResults(t))
	defer node.Close()

	in := contract.NewInspector(dial(t, node.URL), saleAddress)
	ctx := context.Background()

	owner, err := in.OwnerOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(fixtures.OwnerAddress), owner)

	uri, err := in.TokenURI(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://battlepass/1", uri)

	bal, err := in.BalanceOf(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal.Int64())
}

func TestInspectorRevert(t *testing.T) {
	results := statusResults(t)
	delete(results, "price")
	node := mockNode(t, results)
	defer node.Close()

	in := contract.NewInspector(dial(t, node.URL), saleAddress)
	_, err := in.Status(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price")
}

func TestInspectorUnreachable(t *testing.T) {
	node := mockNode(t, nil)
	url := node.URL
	node.Close()

	in := contract.NewInspector(dial(t, url), saleAddress)
	_, err := in.TotalSupply(context.Background())
	assert.Error(t, err)
}

func TestMockNodeRejectsOtherMethods(t *testing.T) {
	node := mockNode(t, statusResults(t))
	defer node.Close()

	_, err := dial(t, node.URL).BlockNumber(context.Background())
	require.Error(t, err)
	assert.Contains(t, fmt.Sprint(err), "method not found")
}
