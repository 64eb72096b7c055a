package cmd

import (
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Mohsinsiddi/battlepass/internal/allowlist"
	"github.com/Mohsinsiddi/battlepass/internal/contract"
	"github.com/Mohsinsiddi/battlepass/internal/sale"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testOwner = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	testBuyer = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

// ---------------------------------------------------------------------------
// parseEther / parseAmount
// ---------------------------------------------------------------------------

func TestParseEther(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "0"},
		{"1", "1000000000000000000"},
		{"0.08", "80000000000000000"},
		{" 1.5 ", "1500000000000000000"},
		{"0.000000000000000001", "1"},
	}
	for _, tt := range tests {
		got, err := parseEther(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got.String(), tt.in)
	}
}

func TestParseEther_Rejects(t *testing.T) {
	for _, in := range []string{"-1", "abc", "0.0000000000000000001"} {
		_, err := parseEther(in)
		assert.Error(t, err, in)
	}
}

func TestParseAmount_Wei(t *testing.T) {
	v, err := parseAmount("12345", true)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(12345), v)

	_, err = parseAmount("1.5", true)
	assert.Error(t, err)
	_, err = parseAmount("-3", true)
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// parseStart
// ---------------------------------------------------------------------------

func TestParseStart(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	got, err := parseStart("now", now)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_700_000_000), got)

	got, err = parseStart("+1h", now)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_700_003_600), got)

	got, err = parseStart("0", now)
	require.NoError(t, err)
	assert.Zero(t, got)

	got, err = parseStart("1700000123", now)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_700_000_123), got)

	got, err = parseStart("2023-11-14T22:13:20Z", now)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_700_000_000), got)
}

func TestParseStart_Invalid(t *testing.T) {
	now := time.Now()
	for _, in := range []string{"", "tomorrow", "+soon", "1969-01-01T00:00:00Z"} {
		_, err := parseStart(in, now)
		assert.Error(t, err, in)
	}
}

// ---------------------------------------------------------------------------
// claims
// ---------------------------------------------------------------------------

func withDomain(t *testing.T, chainID int64, contract string) {
	t.Helper()
	oldID, oldContract := domainChainID, domainContract
	domainChainID, domainContract = chainID, contract
	t.Cleanup(func() { domainChainID, domainContract = oldID, oldContract })
}

func TestClaimDomain(t *testing.T) {
	withDomain(t, 0, "")
	d, err := claimDomain()
	require.NoError(t, err)
	assert.Nil(t, d)

	withDomain(t, 1, "")
	_, err = claimDomain()
	assert.Error(t, err)

	withDomain(t, 31337, testOwner.Hex())
	d, err = claimDomain()
	require.NoError(t, err)
	assert.Equal(t, int64(31337), d.ChainID.Int64())
	assert.Equal(t, testOwner, d.Contract)
}

func TestParseClaim(t *testing.T) {
	c, err := parseClaim(testBuyer.Hex(), "3")
	require.NoError(t, err)
	assert.Equal(t, allowlist.Claim{Address: testBuyer, MaxQuantity: 3}, c)

	_, err = parseClaim("0x1234", "3")
	assert.Error(t, err)
	_, err = parseClaim(testBuyer.Hex(), "-1")
	assert.Error(t, err)
	_, err = parseClaim(common.Address{}.Hex(), "1")
	assert.Error(t, err)
}

func TestResolveClaim_FromFile(t *testing.T) {
	signed := []allowlist.Signed{
		{Claim: allowlist.Claim{Address: testOwner, MaxQuantity: 1}, Signature: hexutil.Bytes{0x01}},
		{Claim: allowlist.Claim{Address: testBuyer, MaxQuantity: 4}, Signature: hexutil.Bytes{0xaa, 0xbb}},
	}
	data, err := json.Marshal(signed)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "claims.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	wlClaimFile, wlSig = path, ""
	t.Cleanup(func() { wlClaimFile = "" })

	max, sig, err := resolveClaim(testBuyer)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), max)
	assert.Equal(t, []byte{0xaa, 0xbb}, sig)

	_, _, err = resolveClaim(common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"))
	assert.Error(t, err)
}

func TestResolveClaim_FromFlags(t *testing.T) {
	wlClaimFile, wlSig, wlMax = "", "0x0102", 2
	t.Cleanup(func() { wlSig, wlMax = "", 0 })

	max, sig, err := resolveClaim(testBuyer)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), max)
	assert.Equal(t, []byte{0x01, 0x02}, sig)

	wlSig = ""
	_, _, err = resolveClaim(testBuyer)
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// calldata
// ---------------------------------------------------------------------------

func TestBuildCall(t *testing.T) {
	call, err := buildCall("reserve", []string{"5"}, new(big.Int))
	require.NoError(t, err)
	assert.Equal(t, "reserve", call.Method)
	assert.Equal(t, contract.Selector("reserve(uint256)"), hexutil.Encode(call.Data[:4]))

	value := big.NewInt(160)
	call, err = buildCall("mint", []string{"2"}, value)
	require.NoError(t, err)
	assert.Equal(t, value, call.Value)

	call, err = buildCall("whitelist-config", []string{"100", testBuyer.Hex()}, nil)
	require.NoError(t, err)
	assert.Equal(t, contract.Selector("setWhitelistSaleConfig(uint64,address)"), hexutil.Encode(call.Data[:4]))
}

func TestBuildCall_Errors(t *testing.T) {
	_, err := buildCall("reserve", nil, nil)
	assert.Error(t, err)
	_, err = buildCall("reserve", []string{"five"}, nil)
	assert.Error(t, err)
	_, err = buildCall("whitelist-mint", []string{"1", "zz"}, nil)
	assert.Error(t, err)
	_, err = buildCall("selfdestruct", nil, nil)
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// saleView
// ---------------------------------------------------------------------------

func TestSaleView(t *testing.T) {
	clock := func() time.Time { return time.Unix(1000, 0) }
	c, err := sale.New(sale.DefaultParams("BattlePass", "BP"), testOwner, sale.WithClock(clock))
	require.NoError(t, err)

	owner := &sale.Opts{From: testOwner}
	_, err = c.Reserve(owner, 10)
	require.NoError(t, err)
	require.NoError(t, c.SetPublicSaleConfig(owner, 1))
	_, err = c.Mint(&sale.Opts{From: testBuyer}, 2)
	require.NoError(t, err)

	v := saleView(c)
	assert.Equal(t, "BattlePass (BP)", v.Name)
	assert.Equal(t, uint64(12), v.Minted)
	assert.Equal(t, uint64(200), v.Collection)
	assert.True(t, v.PublicOpen)
	assert.False(t, v.WhitelistOpen)
	assert.Empty(t, v.Signer)

	require.Len(t, v.Holders, 2)
	assert.Equal(t, testOwner.Hex(), v.Holders[0].Address)
	assert.Equal(t, uint64(10), v.Holders[0].Tokens)
	assert.Equal(t, testBuyer.Hex(), v.Holders[1].Address)
	assert.Equal(t, uint64(2), v.Holders[1].Tokens)
}
