package sale

import "github.com/ethereum/go-ethereum/common"

// WhitelistConfig gates the signature-checked sale phase.
type WhitelistConfig struct {
	StartTime uint64         `json:"start_time"`
	Signer    common.Address `json:"signer"`
}

// PublicConfig gates the open sale phase.
type PublicConfig struct {
	StartTime uint64 `json:"start_time"`
}

// Phase names the sale phases open at a point in time.
type Phase string

const (
	PhaseClosed    Phase = "closed"
	PhaseWhitelist Phase = "whitelist"
	PhasePublic    Phase = "public"
	PhaseBoth      Phase = "public+whitelist"
)

// open reports whether a phase starting at start has begun at now.
// A zero start time has never been configured and is never open.
func open(start, now uint64) bool {
	return start != 0 && now >= start
}

func phaseAt(wl WhitelistConfig, pub PublicConfig, now uint64) Phase {
	w, p := open(wl.StartTime, now), open(pub.StartTime, now)
	switch {
	case w && p:
		return PhaseBoth
	case p:
		return PhasePublic
	case w:
		return PhaseWhitelist
	default:
		return PhaseClosed
	}
}
