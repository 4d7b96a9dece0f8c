package solana

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// SignatureInfo from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{}
}

// SignaturesOpts defines optional pagination parameters for getSignaturesForAddress.
type SignaturesOpts struct {
	Before string // Start searching backwards from this signature
	Until  string // Search until this signature
	Limit  int    // Maximum number of signatures to return
}

// FlexInt decodes an integer sent either as a JSON number or a numeric
// string. Anything else leaves it absent rather than failing the decode.
type FlexInt struct {
	Value int64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(b), `"`))
	if s == "" || s == "null" {
		*f = FlexInt{}
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		*f = FlexInt{}
		return nil
	}
	*f = FlexInt{Value: n, Valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f FlexInt) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(f.Value, 10)), nil
}

// IntPtr returns the value as *int, nil when absent.
func (f FlexInt) IntPtr() *int {
	if !f.Valid {
		return nil
	}
	v := int(f.Value)
	return &v
}

// TokenAmount is the value of getTokenSupply and the tokenAmount member of
// parsed token accounts.
type TokenAmount struct {
	Amount         *string `json:"amount"`
	Decimals       FlexInt `json:"decimals"`
	UIAmountString *string `json:"uiAmountString"`
}

// MintInfo is the parsed info of an SPL mint account.
type MintInfo struct {
	MintAuthority   *string `json:"mintAuthority"`
	FreezeAuthority *string `json:"freezeAuthority"`
	IsInitialized   *bool   `json:"isInitialized"`
	Decimals        FlexInt `json:"decimals"`
	Supply          *string `json:"supply"`
}

// TokenAccountBalance is one entry of getTokenLargestAccounts.
type TokenAccountBalance struct {
	Address        string  `json:"address"`
	Amount         *string `json:"amount"`
	Decimals       FlexInt `json:"decimals"`
	UIAmountString *string `json:"uiAmountString"`
}

// TokenAccountInfo is the parsed info of an SPL token account.
type TokenAccountInfo struct {
	Address     string       `json:"-"`
	Mint        *string      `json:"mint"`
	Owner       *string      `json:"owner"`
	State       *string      `json:"state"`
	TokenAmount *TokenAmount `json:"tokenAmount"`
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}

// parsedAccount is an account returned with jsonParsed encoding. Data is
// an object for parseable accounts and a [data, encoding] pair otherwise.
type parsedAccount struct {
	Owner    string          `json:"owner"`
	Lamports uint64          `json:"lamports"`
	Data     json.RawMessage `json:"data"`
}

type parsedAccountData struct {
	Program string `json:"program"`
	Parsed  struct {
		Type string          `json:"type"`
		Info json.RawMessage `json:"info"`
	} `json:"parsed"`
}

// parsedInfo returns data.parsed.info, or nil when the node did not parse
// the account.
func (a *parsedAccount) parsedInfo() (json.RawMessage, string) {
	if a == nil {
		return nil, ""
	}
	raw := bytes.TrimSpace(a.Data)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, ""
	}
	var d parsedAccountData
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, ""
	}
	return d.Parsed.Info, d.Parsed.Type
}
