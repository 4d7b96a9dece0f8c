// Package stub provides an in-memory solana.RPCClient for tests.
package stub

import (
	"context"
	"errors"
	"sync"

	"solana-token-analyzer/internal/solana"
)

// ErrNotFound is returned when a requested record is not in the stub store.
var ErrNotFound = errors.New("not found")

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	Supplies      map[string]*solana.TokenAmount
	Mints         map[string]*solana.MintInfo
	Accounts      map[string]*solana.AccountInfo
	Largest       map[string][]solana.TokenAccountBalance
	TokenAccounts map[string]*solana.TokenAccountInfo
	Signatures    map[string][]solana.SignatureInfo
	Transactions  map[string]*solana.Transaction

	// Errors forces a method to fail, keyed by RPC method name.
	Errors map[string]error

	mu    sync.Mutex
	calls []string
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Supplies:      make(map[string]*solana.TokenAmount),
		Mints:         make(map[string]*solana.MintInfo),
		Accounts:      make(map[string]*solana.AccountInfo),
		Largest:       make(map[string][]solana.TokenAccountBalance),
		TokenAccounts: make(map[string]*solana.TokenAccountInfo),
		Signatures:    make(map[string][]solana.SignatureInfo),
		Transactions:  make(map[string]*solana.Transaction),
		Errors:        make(map[string]error),
	}
}

var _ solana.RPCClient = (*RPCClient)(nil)

// Calls returns the RPC method names invoked so far, in order.
func (c *RPCClient) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *RPCClient) record(method string) error {
	c.mu.Lock()
	c.calls = append(c.calls, method)
	c.mu.Unlock()
	return c.Errors[method]
}

// GetTokenSupply returns the stored supply, or ErrNotFound.
func (c *RPCClient) GetTokenSupply(_ context.Context, mint string) (*solana.TokenAmount, error) {
	if err := c.record("getTokenSupply"); err != nil {
		return nil, err
	}
	s, ok := c.Supplies[mint]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// GetMintInfo returns the stored mint info; unknown mints yield an empty MintInfo.
func (c *RPCClient) GetMintInfo(_ context.Context, mint string) (*solana.MintInfo, error) {
	if err := c.record("getAccountInfo"); err != nil {
		return nil, err
	}
	m, ok := c.Mints[mint]
	if !ok {
		return &solana.MintInfo{}, nil
	}
	return m, nil
}

// GetAccountInfo returns the stored account, nil when unknown.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	if err := c.record("getAccountInfo"); err != nil {
		return nil, err
	}
	return c.Accounts[pubkey], nil
}

// GetTokenLargestAccounts returns the stored largest accounts.
func (c *RPCClient) GetTokenLargestAccounts(_ context.Context, mint string) ([]solana.TokenAccountBalance, error) {
	if err := c.record("getTokenLargestAccounts"); err != nil {
		return nil, err
	}
	return c.Largest[mint], nil
}

// GetTokenAccounts returns stored token accounts aligned with addresses.
func (c *RPCClient) GetTokenAccounts(_ context.Context, addresses []string) ([]*solana.TokenAccountInfo, error) {
	if err := c.record("getMultipleAccounts"); err != nil {
		return nil, err
	}
	out := make([]*solana.TokenAccountInfo, len(addresses))
	for i, a := range addresses {
		out[i] = c.TokenAccounts[a]
	}
	return out, nil
}

// GetSignaturesForAddress retrieves signatures for an address from the stub store.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	if err := c.record("getSignaturesForAddress"); err != nil {
		return nil, err
	}
	sigs, ok := c.Signatures[address]
	if !ok {
		return nil, nil
	}

	// Apply limit if specified
	if opts != nil && opts.Limit > 0 && opts.Limit < len(sigs) {
		return sigs[:opts.Limit], nil
	}

	return sigs, nil
}

// GetTransaction retrieves a transaction by signature from the stub store.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	if err := c.record("getTransaction"); err != nil {
		return nil, err
	}
	return c.Transactions[signature], nil
}
