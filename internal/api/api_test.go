package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Mohsinsiddi/battlepass/internal/allowlist"
	"github.com/Mohsinsiddi/battlepass/internal/sale"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	deployer = common.HexToAddress("0x00000000000000000000000000000000000000d0")
	alice    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

const (
	tenthEther = "100000000000000000"
	start      = uint64(1_700_000_000)
)

// memStore records every saved snapshot.
type memStore struct {
	mu    sync.Mutex
	saved []*sale.Snapshot
	err   error
}

func (m *memStore) Load(context.Context) (*sale.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return nil, errors.New("empty")
	}
	return m.saved[len(m.saved)-1], nil
}

func (m *memStore) Save(_ context.Context, s *sale.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, s)
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func newTestServer(t *testing.T) (*Server, *memStore) {
	t.Helper()
	c, err := sale.New(sale.DefaultParams("BattlePass", "BP"), deployer,
		sale.WithClock(func() time.Time { return time.Unix(int64(start)+60, 0) }))
	require.NoError(t, err)
	st := &memStore{}
	return New(c, st, nil), st
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func openPublicSale(t *testing.T, s *Server) {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/admin/price", map[string]any{"from": deployer.Hex(), "price": tenthEther})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, s, http.MethodPost, "/admin/public", map[string]any{"from": deployer.Hex(), "start_time": start})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func TestHealthAndStatus(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	st := decode[statusResponse](t, rec)
	assert.Equal(t, deployer, st.Owner)
	assert.Equal(t, sale.PhaseClosed, st.Phase)
	assert.Equal(t, uint64(200), st.Params.CollectionSize)
	assert.Equal(t, "0", st.Price)
}

func TestTokenLookup(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/tokens/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not-found", decode[errorResponse](t, rec).Kind)

	rec = do(t, s, http.MethodPost, "/admin/reserve", map[string]any{"from": deployer.Hex(), "quantity": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, s, http.MethodPost, "/admin/base-uri", map[string]any{"from": deployer.Hex(), "uri": "ipfs://cid/"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/tokens/3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tok := decode[tokenResponse](t, rec)
	assert.Equal(t, deployer, tok.Owner)
	assert.Equal(t, "ipfs://cid/3", tok.TokenURI)

	rec = do(t, s, http.MethodGet, "/tokens/abc", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "route pattern rejects non-numeric ids")
}

func TestAccount(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/accounts/not-an-address", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/accounts/"+alice.Hex(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	acct := decode[accountResponse](t, rec)
	assert.Equal(t, alice, acct.Address)
	assert.Zero(t, acct.Tokens)
	assert.Equal(t, "0", acct.Owed)
}

// ---------------------------------------------------------------------------
// Mints
// ---------------------------------------------------------------------------

func TestPublicMint(t *testing.T) {
	s, st := newTestServer(t)
	openPublicSale(t, s)
	saves := st.count()

	rec := do(t, s, http.MethodPost, "/mint", map[string]any{
		"from": alice.Hex(), "quantity": 2, "value": "0x4563918244f40000", // 5 ETH
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rcpt := decode[receiptResponse](t, rec)
	assert.Equal(t, uint64(1), rcpt.FirstID)
	assert.Equal(t, "200000000000000000", rcpt.Cost)
	assert.Equal(t, "4800000000000000000", rcpt.Refund)
	assert.Equal(t, saves+1, st.count(), "a committed mint is saved")

	rec = do(t, s, http.MethodGet, "/accounts/"+alice.Hex(), nil)
	assert.Equal(t, uint64(2), decode[accountResponse](t, rec).Tokens)
}

func TestMintErrorsMapToStatus(t *testing.T) {
	s, st := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/mint", map[string]any{"from": alice.Hex(), "quantity": 1})
	assert.Equal(t, http.StatusTooEarly, rec.Code)
	assert.Equal(t, "sale has not begun yet", decode[errorResponse](t, rec).Error)

	openPublicSale(t, s)
	saves := st.count()

	rec = do(t, s, http.MethodPost, "/mint", map[string]any{"from": alice.Hex(), "quantity": 1, "value": "1"})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	rec = do(t, s, http.MethodPost, "/mint", map[string]any{"from": alice.Hex(), "quantity": 6, "value": "1000000000000000000"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	assert.Equal(t, saves, st.count(), "rejected calls are not saved")
}

func TestMintBadInput(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		name string
		body any
	}{
		{"bad from", map[string]any{"from": "alice", "quantity": 1}},
		{"bad value", map[string]any{"from": alice.Hex(), "quantity": 1, "value": "lots"}},
		{"negative value", map[string]any{"from": alice.Hex(), "quantity": 1, "value": "-1"}},
		{"not json", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/mint", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestWhitelistMint(t *testing.T) {
	s, _ := newTestServer(t)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	rec := do(t, s, http.MethodPost, "/admin/whitelist", map[string]any{
		"from": deployer.Hex(), "start_time": start, "signer": signer.Hex(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	sig, err := allowlist.Sign(key, allowlist.Claim{Address: alice, MaxQuantity: 3}, nil)
	require.NoError(t, err)

	rec = do(t, s, http.MethodPost, "/whitelist-mint", map[string]any{
		"from": alice.Hex(), "quantity": 2, "max_quantity": 3, "signature": hexutil.Encode(sig),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/whitelist-mint", map[string]any{
		"from": alice.Hex(), "quantity": 2, "max_quantity": 3, "signature": hexutil.Encode(sig),
	})
	assert.Equal(t, http.StatusConflict, rec.Code, "quota exhausted")

	rec = do(t, s, http.MethodPost, "/whitelist-mint", map[string]any{
		"from": alice.Hex(), "quantity": 1, "max_quantity": 4, "signature": hexutil.Encode(sig),
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "signature covers max_quantity")

	rec = do(t, s, http.MethodPost, "/whitelist-mint", map[string]any{
		"from": alice.Hex(), "quantity": 1, "max_quantity": 3, "signature": "zz",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---------------------------------------------------------------------------
// Owner operations
// ---------------------------------------------------------------------------

func TestAdminRequiresOwner(t *testing.T) {
	s, _ := newTestServer(t)
	for _, path := range []string{"/admin/reserve", "/admin/withdraw", "/admin/owner/renounce"} {
		rec := do(t, s, http.MethodPost, path, map[string]any{"from": alice.Hex(), "quantity": 5})
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
		assert.Equal(t, "authorization", decode[errorResponse](t, rec).Kind)
	}
}

func TestReserveBatchMultiple(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/admin/reserve", map[string]any{"from": deployer.Hex(), "quantity": 3})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestWithdraw(t *testing.T) {
	s, _ := newTestServer(t)
	openPublicSale(t, s)
	rec := do(t, s, http.MethodPost, "/mint", map[string]any{"from": alice.Hex(), "quantity": 1, "value": tenthEther})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/admin/withdraw", map[string]any{"from": deployer.Hex()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, tenthEther, decode[amountResponse](t, rec).Amount)

	rec = do(t, s, http.MethodGet, "/status", nil)
	assert.Equal(t, "0", decode[statusResponse](t, rec).Balance)
}

func TestOwnershipTransferAndRenounce(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/admin/owner/transfer", map[string]any{"from": deployer.Hex(), "new_owner": alice.Hex()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, alice, decode[statusResponse](t, rec).Owner)

	rec = do(t, s, http.MethodPost, "/admin/owner/transfer", map[string]any{"from": alice.Hex(), "new_owner": common.Address{}.Hex()})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodPost, "/admin/owner/renounce", map[string]any{"from": alice.Hex()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, common.Address{}, decode[statusResponse](t, rec).Owner)
}

func TestClaimRefundNothingOwed(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/refund", map[string]any{"from": alice.Hex()})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveFailureReported(t *testing.T) {
	s, st := newTestServer(t)
	st.err = errors.New("disk full")

	rec := do(t, s, http.MethodPost, "/admin/price", map[string]any{"from": deployer.Hex(), "price": "1"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "disk full")
	assert.Equal(t, "1", s.sale.Price().String(), "the write itself committed")
}

func TestStatusForKinds(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, statusFor(sale.KindAuthorization))
	assert.Equal(t, http.StatusUnauthorized, statusFor(sale.KindAuthentication))
	assert.Equal(t, http.StatusTooEarly, statusFor(sale.KindTiming))
	assert.Equal(t, http.StatusConflict, statusFor(sale.KindQuota))
	assert.Equal(t, http.StatusConflict, statusFor(sale.KindConfiguration))
	assert.Equal(t, http.StatusPaymentRequired, statusFor(sale.KindPayment))
	assert.Equal(t, http.StatusNotFound, statusFor(sale.KindNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(sale.KindUnknown))
}

// ---------------------------------------------------------------------------
// Serve
// ---------------------------------------------------------------------------

func TestServeShutsDownOnCancel(t *testing.T) {
	s, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
