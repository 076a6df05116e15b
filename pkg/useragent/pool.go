package useragent

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Random is the configuration keyword that stands for DesktopBrowsers.
const Random = "random"

// Default is the User-Agent sent when nothing else is configured. It mimics a
// desktop Chrome on macOS, which GitHub serves the full search markup to.
const Default = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

// DesktopBrowsers is a realistic set of modern desktop User-Agents.
var DesktopBrowsers = []string{
	Default,
	// Chrome Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	// Firefox
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:128.0) Gecko/20100101 Firefox/128.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:128.0) Gecko/20100101 Firefox/128.0",
	// Safari Mac
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	// Edge Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36 Edg/127.0.0.0",
}

// Pool is a fixed set of User-Agents. A search picks one and keeps it for
// every request it makes.
type Pool struct {
	uas []string
}

// NewPool creates a pool. An empty slice yields a pool holding only Default.
func NewPool(uas []string) *Pool {
	if len(uas) == 0 {
		return &Pool{uas: []string{Default}}
	}
	// Copy to avoid external mutation
	copied := make([]string, len(uas))
	copy(copied, uas)
	return &Pool{uas: copied}
}

// Pick returns a random User-Agent using crypto/rand. It is safe for
// concurrent use.
func (p *Pool) Pick() string {
	switch len(p.uas) {
	case 0:
		return Default
	case 1:
		return p.uas[0]
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(p.uas))))
	if err != nil {
		return p.uas[0]
	}
	return p.uas[n.Int64()]
}

// Expand replaces every Random entry in uas with the DesktopBrowsers set,
// keeping the other entries in order.
func Expand(uas []string) []string {
	out := make([]string, 0, len(uas))
	for _, ua := range uas {
		if strings.EqualFold(strings.TrimSpace(ua), Random) {
			out = append(out, DesktopBrowsers...)
			continue
		}
		out = append(out, ua)
	}
	return out
}
