package config

// Config holds all battlepass configuration.
type Config struct {
	DefaultWallet   string `json:"default_wallet"`
	Name            string `json:"name"`          // deployment name, used in the redis key
	StateBackend    string `json:"state_backend"` // "file" | "redis"
	RedisURL        string `json:"redis_url,omitempty"`
	ListenAddr      string `json:"listen_addr"`
	RPCURL          string `json:"rpc_url,omitempty"`          // comma-separated for several nodes
	RPCAlgorithm    string `json:"rpc_algorithm,omitempty"`    // "fastest" | "failover"
	ContractAddress string `json:"contract_address,omitempty"` // deployed contract for inspect/calldata
	WatchInterval   int    `json:"watch_interval"`             // seconds

	// internal: config dir path used for Save()
	configDir string
	env       envOverrides
}

type envOverrides struct {
	redisURL   string
	rpcURL     string
	alchemyKey string
	privateKey string
}
