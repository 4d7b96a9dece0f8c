package solana

import (
	"net/url"
	"sync"
)

// DefaultEndpoint is the public mainnet RPC endpoint.
const DefaultEndpoint = "https://api.mainnet-beta.solana.com"

// DefaultBackupEndpoints are tried, in order, after the current primary.
var DefaultBackupEndpoints = []string{
	"https://api.mainnet-beta.solana.com",
	"https://rpc.ankr.com/solana_free",
	"https://solana.public-rpc.com",
}

// EndpointPool is an ordered list of RPC endpoints with a sticky primary.
// The primary is replaced by whichever endpoint last served a request;
// backups never change.
type EndpointPool struct {
	mu      sync.Mutex
	primary string
	backups []string
}

// NewEndpointPool creates a pool. Backups are copied.
func NewEndpointPool(primary string, backups []string) *EndpointPool {
	b := make([]string, len(backups))
	copy(b, backups)
	return &EndpointPool{primary: primary, backups: b}
}

// Primary returns the endpoint tried first.
func (p *EndpointPool) Primary() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.primary
}

// Backups returns a copy of the fixed backup list.
func (p *EndpointPool) Backups() []string {
	out := make([]string, len(p.backups))
	copy(out, p.backups)
	return out
}

// Candidates returns [primary] + backups. Duplicates are kept: a primary
// that also appears among the backups is tried twice per pass.
func (p *EndpointPool) Candidates() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, 1+len(p.backups))
	out = append(out, p.primary)
	return append(out, p.backups...)
}

// Promote makes endpoint the primary. Reports whether the primary changed.
func (p *EndpointPool) Promote(endpoint string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.primary == endpoint {
		return false
	}
	p.primary = endpoint
	return true
}

// endpointLabel reduces an endpoint URL to its host so API keys carried in
// paths or query strings never reach logs or metric labels.
func endpointLabel(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "invalid"
	}
	return u.Host
}
