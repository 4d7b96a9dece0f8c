package solana

import "context"

// RPCClient defines the Solana RPC calls the analyzer depends on.
type RPCClient interface {
	// GetTokenSupply retrieves the raw supply and decimals of a mint.
	GetTokenSupply(ctx context.Context, mint string) (*TokenAmount, error)

	// GetMintInfo retrieves the jsonParsed mint account.
	GetMintInfo(ctx context.Context, mint string) (*MintInfo, error)

	// GetAccountInfo retrieves a base64-encoded account.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetTokenLargestAccounts retrieves the largest token accounts of a mint.
	GetTokenLargestAccounts(ctx context.Context, mint string) ([]TokenAccountBalance, error)

	// GetTokenAccounts retrieves jsonParsed token accounts. Missing accounts are nil.
	GetTokenAccounts(ctx context.Context, addresses []string) ([]*TokenAccountInfo, error)

	// GetSignaturesForAddress retrieves signatures for an address with pagination.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetTransaction retrieves a transaction by signature.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)
}

// Compile-time interface check.
var _ RPCClient = (*Client)(nil)

// Transaction represents a Solana transaction.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// Succeeded reports whether the transaction executed without error.
func (t *Transaction) Succeeded() bool {
	return t.Meta == nil || t.Meta.Err == nil
}

// TransactionMeta contains transaction metadata.
type TransactionMeta struct {
	Err         interface{}
	Fee         uint64
	LogMessages []string
}

// TransactionMessage contains parsed transaction message.
type TransactionMessage struct {
	AccountKeys []string
}
