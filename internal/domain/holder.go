package domain

// OwnerKind classifies the owner of a token account.
type OwnerKind string

const (
	OwnerWallet  OwnerKind = "wallet"  // ed25519 key, on curve
	OwnerPDA     OwnerKind = "pda"     // program derived address, off curve
	OwnerUnknown OwnerKind = "unknown" // owner not resolved
)

// Holder is one of the largest token accounts of a mint.
type Holder struct {
	TokenAccount string
	Owner        string // empty when unresolved
	OwnerKind    OwnerKind
	RawAmount    string
	Amount       float64 // UI amount
	Share        float64 // fraction of total supply, 0 when supply is 0
}

// Activity is one recent transaction touching a mint.
type Activity struct {
	Signature string
	Slot      int64
	BlockTime *int64 // unix seconds (nullable)
	Success   bool
	Fee       *uint64 // lamports, nil when the transaction was not fetched
}
