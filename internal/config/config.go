package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultStateBackend = "file"
	defaultListenAddr   = "127.0.0.1:8080"
	defaultName         = "battlepass"
	defaultInterval     = 2

	configFile  = "config.json"
	walletsFile = "wallets.json"
	envFile     = ".env"
)

// Environment variables read on Load. The names follow the Hardhat project
// this tool drives.
const (
	EnvConfigDir  = "BATTLEPASS_CONFIG_DIR"
	EnvRedisURL   = "BATTLEPASS_REDIS_URL"
	EnvRPCURL     = "RPC_URL"
	EnvAlchemyKey = "ALCHEMY_KEY"
	EnvPrivateKey = "PRIVATE_KEY"
)

var backends = []string{"file", "redis"}

// Load reads config from dir (or creates defaults). dir defaults to
// ~/.battlepass. A .env in the working directory and one in dir are loaded
// first; variables already set in the environment win.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".battlepass")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}
	if err := loadDotEnv(envFile, filepath.Join(dir, envFile)); err != nil {
		return nil, err
	}

	cfg := defaults(dir)

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	cfg.configDir = dir
	cfg.applyEnv()
	return cfg, nil
}

// loadDotEnv loads each file that exists. godotenv.Load never overrides
// variables that are already set.
func loadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// applyEnv overlays environment values on the file config. They are not
// written back by Save.
func (c *Config) applyEnv() {
	c.env = envOverrides{
		redisURL:   os.Getenv(EnvRedisURL),
		rpcURL:     os.Getenv(EnvRPCURL),
		alchemyKey: os.Getenv(EnvAlchemyKey),
		privateKey: os.Getenv(EnvPrivateKey),
	}
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	return saveJSON(filepath.Join(c.configDir, configFile), c)
}

// SetStateBackend validates and sets the persistence backend.
func (c *Config) SetStateBackend(name string) error {
	if !slices.Contains(backends, name) {
		return fmt.Errorf("unknown state backend %q (want one of %v)", name, backends)
	}
	c.StateBackend = name
	return nil
}

// EffectiveRedisURL prefers BATTLEPASS_REDIS_URL over the file setting.
func (c *Config) EffectiveRedisURL() string {
	if c.env.redisURL != "" {
		return c.env.redisURL
	}
	return c.RedisURL
}

// EffectiveRPCURL resolves the node endpoint: RPC_URL, then the configured
// URL, then Alchemy mainnet when ALCHEMY_KEY is set.
func (c *Config) EffectiveRPCURL() string {
	switch {
	case c.env.rpcURL != "":
		return c.env.rpcURL
	case c.RPCURL != "":
		return c.RPCURL
	case c.env.alchemyKey != "":
		return "https://eth-mainnet.alchemyapi.io/v2/" + c.env.alchemyKey
	}
	return ""
}

// RPCURLs splits EffectiveRPCURL on commas.
func (c *Config) RPCURLs() []string {
	var out []string
	for _, u := range strings.Split(c.EffectiveRPCURL(), ",") {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// EnvPrivateKey returns PRIVATE_KEY, the fallback signing key used when no
// wallet is selected.
func (c *Config) EnvPrivateKey() string {
	return c.env.privateKey
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath returns the wallets.json path.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		StateBackend:  defaultStateBackend,
		ListenAddr:    defaultListenAddr,
		Name:          defaultName,
		WatchInterval: defaultInterval,
		configDir:     dir,
	}
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
