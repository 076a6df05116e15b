package proxy

import (
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"os"
	"strings"
	"sync"
)

// ErrEmptyPool is returned when a proxy has to be selected from an empty pool.
var ErrEmptyPool = errors.New("proxy: pool is empty")

// Identity is the outbound proxy used for every fetch of a single search.
// It is a value type and is never mutated after Parse.
type Identity struct {
	raw string
	u   url.URL
}

// Parse turns "host:port" or a full proxy URL into an Identity.
// A missing scheme defaults to http.
func Parse(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, errors.New("proxy: empty address")
	}

	full := raw
	if !strings.Contains(full, "://") {
		full = "http://" + full
	}
	u, err := url.Parse(full)
	if err != nil {
		return Identity{}, fmt.Errorf("proxy: parse %q: %w", raw, err)
	}
	if u.Host == "" {
		return Identity{}, fmt.Errorf("proxy: no host in %q", raw)
	}
	return Identity{raw: raw, u: *u}, nil
}

// URL returns a fresh copy of the proxy URL, safe for the caller to modify.
func (i Identity) URL() *url.URL {
	u := i.u
	return &u
}

// IsZero reports whether the identity was never set.
func (i Identity) IsZero() bool {
	return i.u.Host == ""
}

func (i Identity) String() string {
	return i.u.String()
}

// Select picks one identity uniformly at random.
func Select(pool []Identity) (Identity, error) {
	if len(pool) == 0 {
		return Identity{}, ErrEmptyPool
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(pool))))
	if err != nil {
		return Identity{}, fmt.Errorf("proxy: random selection: %w", err)
	}
	return pool[n.Int64()], nil
}

// Pool holds the configured proxy addresses.
type Pool struct {
	mu         sync.RWMutex
	identities []Identity
}

// NewPool creates a pool from raw addresses.
func NewPool(rawAddrs ...string) (*Pool, error) {
	p := &Pool{}
	if err := p.Add(rawAddrs...); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadFile reads proxies from a file, expecting one address per line.
// Lines starting with '#' or empty lines are ignored.
func (p *Pool) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("proxy: open list: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var addrs []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		addrs = append(addrs, line)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("proxy: read list: %w", err)
	}

	return p.Add(addrs...)
}

// Add parses raw addresses and appends them to the pool.
func (p *Pool) Add(rawAddrs ...string) error {
	parsed := make([]Identity, 0, len(rawAddrs))
	for _, raw := range rawAddrs {
		id, err := Parse(raw)
		if err != nil {
			return err
		}
		parsed = append(parsed, id)
	}

	p.mu.Lock()
	p.identities = append(p.identities, parsed...)
	p.mu.Unlock()
	return nil
}

// Len returns the number of proxies in the pool.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.identities)
}

// Identities returns a copy of the pool contents.
func (p *Pool) Identities() []Identity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Identity, len(p.identities))
	copy(out, p.identities)
	return out
}
