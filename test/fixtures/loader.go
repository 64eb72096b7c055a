package fixtures

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// Hardhat's first two default accounts. Never use them outside tests.
const (
	OwnerKey     = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	OwnerAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	BuyerKey     = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	BuyerAddress = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

// fixturesDir returns the absolute path to the fixtures directory.
func fixturesDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(file)
}

// Path returns the absolute path of a fixture file.
func Path(name string) string {
	return filepath.Join(fixturesDir(), name)
}

// Load returns the raw bytes of a fixture file.
func Load(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(Path(name))
	require.NoError(t, err, "failed to load fixture: %s", name)
	return data
}

// LoadStatus loads the on-chain sale values served by the mock node, keyed
// by getter name.
func LoadStatus(t *testing.T) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(Load(t, filepath.Join("rpc", "status.json")), &out))
	return out
}
