package fetch

import (
	"os"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// defaultUserAgents is the built-in identity rotation pool, used when no
// identity file is configured.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// IdentityPool hands out User-Agent strings round-robin. Rotation happens
// between retry attempts so a challenged request retries under a fresh
// identity.
type IdentityPool struct {
	mu     sync.Mutex
	agents []string
	next   int
}

// NewIdentityPool returns a pool over the given agents, or the built-in
// defaults when none are provided.
func NewIdentityPool(agents []string) *IdentityPool {
	if len(agents) == 0 {
		agents = defaultUserAgents
	}
	return &IdentityPool{agents: agents}
}

// LoadIdentityPool reads a YAML file of the form
//
//	user_agents:
//	  - "Mozilla/5.0 ..."
//
// and returns a pool over its entries.
func LoadIdentityPool(path string) (*IdentityPool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: read identity file %s", path)
	}
	var doc struct {
		UserAgents []string `yaml:"user_agents"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, eris.Wrap(err, "fetch: parse identity file")
	}
	if len(doc.UserAgents) == 0 {
		return nil, eris.Errorf("fetch: identity file %s has no user_agents", path)
	}
	return NewIdentityPool(doc.UserAgents), nil
}

// Current returns the identity in use without advancing.
func (p *IdentityPool) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.agents[p.next%len(p.agents)]
}

// Rotate advances to the next identity and returns it.
func (p *IdentityPool) Rotate() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next = (p.next + 1) % len(p.agents)
	return p.agents[p.next]
}
