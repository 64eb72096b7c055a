package wallet

import (
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Hardhat account #0.
const (
	testPrivKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testSignerAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

// ---------------------------------------------------------------------------
// normaliseHexKey
// ---------------------------------------------------------------------------

func TestNormaliseHexKey(t *testing.T) {
	tests := map[string]string{
		"0xabc123":  "abc123",
		"0Xabc123":  "abc123",
		"abc123":    "abc123",
		"  0xabc  ": "abc",
		"0x":        "",
		"":          "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normaliseHexKey(in), "input %q", in)
	}
}

// ---------------------------------------------------------------------------
// Manager
// ---------------------------------------------------------------------------

func TestAddWatchOnlyWallet(t *testing.T) {
	mgr := NewManager(WithInMemoryStore())
	addr := common.HexToAddress("0x1234567890abcdef1234567890abcdef12345678")

	require.NoError(t, mgr.Add("watcher", addr))
	w, err := mgr.Get("watcher")
	require.NoError(t, err)
	assert.Equal(t, TypeWatchOnly, w.Type)
	assert.Equal(t, addr, w.Addr())
	assert.NotEmpty(t, w.CreatedAt)

	assert.ErrorIs(t, mgr.Add("watcher", addr), ErrWalletExists)
}

func TestAddSigningWallet(t *testing.T) {
	mgr := NewManager(WithInMemoryStore())

	w, err := mgr.AddWithKey("deployer", "0x"+testPrivKeyHex)
	require.NoError(t, err)
	assert.Equal(t, TypeSigning, w.Type)
	assert.Equal(t, testSignerAddr, w.Address)
	assert.Equal(t, "battlepass.deployer", w.KeyRef)

	key, err := mgr.PrivateKey(w)
	require.NoError(t, err)
	assert.Equal(t, testSignerAddr, crypto.PubkeyToAddress(key.PublicKey).Hex())
}

func TestAddInvalidKey(t *testing.T) {
	mgr := NewManager(WithInMemoryStore())
	_, err := mgr.AddWithKey("bad", "0xnothex")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = mgr.Get("bad")
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestGenerateWallet(t *testing.T) {
	mgr := NewManager(WithInMemoryStore())

	a, err := mgr.Generate("a")
	require.NoError(t, err)
	b, err := mgr.Generate("b")
	require.NoError(t, err)
	assert.NotEqual(t, a.Address, b.Address)

	key, err := mgr.PrivateKey(a)
	require.NoError(t, err)
	assert.Equal(t, a.Address, crypto.PubkeyToAddress(key.PublicKey).Hex())

	_, err = mgr.Generate("a")
	assert.ErrorIs(t, err, ErrWalletExists)
}

func TestRemoveWalletDeletesKey(t *testing.T) {
	ks := NewInMemoryKeystore()
	mgr := NewManager(WithKeystore(ks))

	w, err := mgr.AddWithKey("gone", testPrivKeyHex)
	require.NoError(t, err)
	require.NoError(t, mgr.Remove("gone"))

	_, err = ks.Retrieve(w.KeyRef)
	assert.Error(t, err)
	assert.ErrorIs(t, mgr.Remove("gone"), ErrWalletNotFound)
}

func TestListSorted(t *testing.T) {
	mgr := NewManager(WithInMemoryStore())
	for _, name := range []string{"carol", "alice", "bob"} {
		_, err := mgr.Generate(name)
		require.NoError(t, err)
	}
	ws, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, ws, 3)
	assert.Equal(t, "alice", ws[0].Name)
	assert.Equal(t, "carol", ws[2].Name)
}

func TestDefaultWallet(t *testing.T) {
	mgr := NewManager(WithInMemoryStore())
	assert.Nil(t, mgr.Default())

	_, err := mgr.Generate("only")
	require.NoError(t, err)
	require.NotNil(t, mgr.Default())
	assert.Equal(t, "only", mgr.Default().Name)

	_, err = mgr.Generate("second")
	require.NoError(t, err)
	assert.Nil(t, mgr.Default(), "no default with two wallets and none marked")

	require.NoError(t, mgr.SetDefault("second"))
	assert.Equal(t, "second", mgr.Default().Name)
	assert.ErrorIs(t, mgr.SetDefault("missing"), ErrWalletNotFound)
}

func TestPrivateKeyWatchOnly(t *testing.T) {
	mgr := NewManager(WithInMemoryStore())
	require.NoError(t, mgr.Add("watch", common.HexToAddress("0x01")))
	w, _ := mgr.Get("watch")
	_, err := mgr.PrivateKey(w)
	assert.ErrorIs(t, err, ErrWatchOnly)
}

// ---------------------------------------------------------------------------
// JSONStore
// ---------------------------------------------------------------------------

func TestJSONStorePersistsAcrossManagers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")
	ks := NewInMemoryKeystore()

	mgr := NewManager(WithStore(NewJSONStore(path)), WithKeystore(ks))
	_, err := mgr.AddWithKey("deployer", testPrivKeyHex)
	require.NoError(t, err)
	require.NoError(t, mgr.SetDefault("deployer"))

	reopened := NewManager(WithStore(NewJSONStore(path)), WithKeystore(ks))
	d := reopened.Default()
	require.NotNil(t, d)
	assert.Equal(t, testSignerAddr, d.Address)
}

func TestJSONStoreLoadNoFile(t *testing.T) {
	wallets, err := NewJSONStore(filepath.Join(t.TempDir(), "none.json")).Load()
	require.NoError(t, err)
	assert.Empty(t, wallets)
}

// ---------------------------------------------------------------------------
// Resolve / Identity
// ---------------------------------------------------------------------------

func TestResolveNamedWallet(t *testing.T) {
	mgr := NewManager(WithInMemoryStore())
	_, err := mgr.AddWithKey("deployer", testPrivKeyHex)
	require.NoError(t, err)

	id, err := mgr.Resolve("deployer", "")
	require.NoError(t, err)
	assert.Equal(t, "deployer", id.Name)
	assert.Equal(t, testSignerAddr, id.Address.Hex())
	assert.True(t, id.CanSign())

	key, err := id.Key()
	require.NoError(t, err)
	assert.Equal(t, id.Address, crypto.PubkeyToAddress(key.PublicKey))

	_, err = mgr.Resolve("nobody", "")
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestResolveFallsBackToEnvKey(t *testing.T) {
	mgr := NewManager(WithInMemoryStore())

	_, err := mgr.Resolve("", "")
	assert.ErrorIs(t, err, ErrNoIdentity)

	id, err := mgr.Resolve("", "0x"+testPrivKeyHex)
	require.NoError(t, err)
	assert.Equal(t, EnvKeyName, id.Name)
	assert.Equal(t, testSignerAddr, id.Address.Hex())

	_, err = mgr.Resolve("", "zz")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestResolveWatchOnlyCannotSign(t *testing.T) {
	mgr := NewManager(WithInMemoryStore())
	require.NoError(t, mgr.Add("watch", common.HexToAddress("0x02")))

	id, err := mgr.Resolve("watch", "")
	require.NoError(t, err)
	assert.False(t, id.CanSign())
	_, err = id.Key()
	assert.ErrorIs(t, err, ErrWatchOnly)
}
