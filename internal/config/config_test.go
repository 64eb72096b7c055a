package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/battlepass/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads so the host environment does not
// leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{config.EnvRedisURL, config.EnvRPCURL, config.EnvAlchemyKey, config.EnvPrivateKey} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaultConfig(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.StateBackend)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "battlepass", cfg.Name)
	assert.Equal(t, 2, cfg.WatchInterval)
	assert.Equal(t, "", cfg.EffectiveRPCURL())
}

func TestSaveAndReloadConfig(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	cfg.DefaultWallet = "deployer"
	cfg.RedisURL = "redis://cache:6379/1"
	require.NoError(t, cfg.SetStateBackend("redis"))
	require.NoError(t, cfg.Save())

	reloaded, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "deployer", reloaded.DefaultWallet)
	assert.Equal(t, "redis", reloaded.StateBackend)
	assert.Equal(t, "redis://cache:6379/1", reloaded.EffectiveRedisURL())
}

func TestSetStateBackendRejectsUnknown(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, cfg.SetStateBackend("sqlite"))
	assert.Equal(t, "file", cfg.StateBackend)
}

func TestConfigFileCreatedOnSave(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Load(dir)
	require.NoError(t, cfg.Save())

	_, err := os.Stat(filepath.Join(dir, "config.json"))
	assert.NoError(t, err, "config.json should be created on save")
}

func TestConfigDir(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Load(dir)
	assert.Equal(t, dir, cfg.Dir())
}

func TestLoadFromNonExistentDir(t *testing.T) {
	dir := t.TempDir() + "/subdir"
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.StateBackend)
	assert.DirExists(t, dir)
}

func TestLoadCorruptConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{"), 0o600))
	_, err := config.Load(dir)
	assert.ErrorContains(t, err, "parsing config")
}

// ---------------------------------------------------------------------------
// Environment and .env
// ---------------------------------------------------------------------------

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfg, _ := config.Load(dir)
	cfg.RPCURL = "http://file:8545"
	cfg.RedisURL = "redis://file:6379/0"
	require.NoError(t, cfg.Save())

	t.Setenv(config.EnvRPCURL, "http://env:8545")
	t.Setenv(config.EnvRedisURL, "redis://env:6379/0")

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://env:8545", cfg.EffectiveRPCURL())
	assert.Equal(t, "redis://env:6379/0", cfg.EffectiveRedisURL())
	assert.Equal(t, "http://file:8545", cfg.RPCURL, "env must not leak into the persisted field")
}

func TestAlchemyKeyBuildsRPCURL(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvAlchemyKey, "abc123")
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "https://eth-mainnet.alchemyapi.io/v2/abc123", cfg.EffectiveRPCURL())
}

func TestDotEnvInConfigDir(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("PRIVATE_KEY=ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80\nBATTLEPASS_REDIS_URL=redis://dotenv:6379/3\n"), 0o600))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80", cfg.EnvPrivateKey())
	assert.Equal(t, "redis://dotenv:6379/3", cfg.EffectiveRedisURL())
}

func TestDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RPC_URL=http://dotenv\n"), 0o600))
	t.Setenv(config.EnvRPCURL, "http://shell")

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://shell", cfg.EffectiveRPCURL())
}

func TestWalletsPath(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Load(dir)
	assert.Equal(t, filepath.Join(dir, "wallets.json"), cfg.WalletsPath())
}

func TestRPCURLsSplitsList(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvRPCURL, "http://a:8545, http://b:8545,,")
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a:8545", "http://b:8545"}, cfg.RPCURLs())

	t.Setenv(config.EnvRPCURL, "")
	cfg, err = config.Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, cfg.RPCURLs())
}
