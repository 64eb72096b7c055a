package config

import "time"

// Timeouts shared by the cmd and api packages.
const (
	RPCTimeout      = 10 * time.Second // one inspector or calldata round trip
	ShutdownTimeout = 5 * time.Second  // graceful HTTP shutdown on serve
	StoreTimeout    = 3 * time.Second  // one snapshot load or save
)
