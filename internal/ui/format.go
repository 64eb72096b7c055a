package ui

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/params"
)

// Ether renders a wei amount as a trimmed decimal ETH string: "0.08 ETH".
func Ether(wei *big.Int) string {
	if wei == nil {
		return "0 ETH"
	}
	f := new(big.Float).SetPrec(256).SetInt(wei)
	f.Quo(f, new(big.Float).SetInt64(params.Ether))
	s := f.Text('f', 18)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s + " ETH"
}

// StartTime renders a phase start time. Zero means the phase was never
// configured.
func StartTime(unix uint64) string {
	if unix == 0 {
		return "not set"
	}
	return time.Unix(int64(unix), 0).UTC().Format("2006-01-02 15:04:05 UTC")
}

// Progress renders a minted/total bar of the given width.
func Progress(minted, total uint64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if total > 0 {
		filled = int(minted * uint64(width) / total)
		if filled > width {
			filled = width
		}
	}
	bar := StyleSuccess.Render(strings.Repeat("█", filled)) +
		StyleMeta.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %d/%d", bar, minted, total)
}
