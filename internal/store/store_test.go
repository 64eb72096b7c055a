package store

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/battlepass/internal/sale"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOwner = common.HexToAddress("0x00000000000000000000000000000000000000d0")

func testSnapshot(t *testing.T) *sale.Snapshot {
	t.Helper()
	c, err := sale.New(sale.DefaultParams("BattlePass", "BP"), testOwner)
	require.NoError(t, err)
	opts := &sale.Opts{From: testOwner}
	require.NoError(t, c.SetPrice(opts, big.NewInt(1_000)))
	require.NoError(t, c.SetBaseURI(opts, "ipfs://cid/"))
	_, err = c.Reserve(opts, 10)
	require.NoError(t, err)
	return c.Snapshot()
}

func assertRestores(t *testing.T, want, got *sale.Snapshot) {
	t.Helper()
	c, err := sale.Restore(got)
	require.NoError(t, err)
	assert.Equal(t, want.Owner, c.Owner())
	assert.Equal(t, uint64(10), c.TotalMinted())
	assert.Equal(t, "1000", c.Price().String())
	uri, err := c.TokenURI(7)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://cid/7", uri)
}

// ---------------------------------------------------------------------------
// FileStore
// ---------------------------------------------------------------------------

func TestFileStoreNotDeployed(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	_, err := fs.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotDeployed)
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(dir)
	snap := testSnapshot(t)

	require.NoError(t, fs.Save(context.Background(), snap))
	assert.FileExists(t, filepath.Join(dir, "deployment.json"))
	assert.NoFileExists(t, filepath.Join(dir, "deployment.json.tmp"))

	got, err := fs.Load(context.Background())
	require.NoError(t, err)
	assertRestores(t, snap, got)
}

func TestFileStoreCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deployment.json"), []byte("{nope"), 0o600))
	_, err := NewFileStore(dir).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing snapshot")
}

// ---------------------------------------------------------------------------
// Open
// ---------------------------------------------------------------------------

func TestOpenSelectsBackend(t *testing.T) {
	s, err := Open(Options{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(Options{Backend: BackendRedis, RedisURL: "redis://localhost:6379/2", Name: "bp"})
	require.NoError(t, err)
	require.IsType(t, &RedisStore{}, s)
	assert.Equal(t, "battlepass:bp:state", s.(*RedisStore).Key())

	_, err = Open(Options{Backend: "sqlite"})
	assert.Error(t, err)

	_, err = Open(Options{Backend: BackendFile})
	assert.Error(t, err)

	_, err = Open(Options{Backend: BackendRedis, RedisURL: "http://nope"})
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// RedisStore (needs a live server)
// ---------------------------------------------------------------------------

func TestRedisStoreRoundTrip(t *testing.T) {
	url := os.Getenv("BATTLEPASS_TEST_REDIS")
	if url == "" {
		t.Skip("BATTLEPASS_TEST_REDIS not set")
	}
	ctx := context.Background()
	rs, err := NewRedisStore(url, "test-"+t.Name())
	require.NoError(t, err)
	defer rs.Close()
	require.NoError(t, rs.Ping(ctx))
	defer func() { _ = rs.Delete(ctx) }()

	_, err = rs.Load(ctx)
	require.ErrorIs(t, err, ErrNotDeployed)

	snap := testSnapshot(t)
	require.NoError(t, rs.Save(ctx, snap))
	got, err := rs.Load(ctx)
	require.NoError(t, err)
	assertRestores(t, snap, got)
}
