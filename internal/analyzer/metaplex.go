package analyzer

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"

	"solana-token-analyzer/internal/domain"
	"solana-token-analyzer/internal/solana"
)

// Metaplex metadata account layout.
const (
	metadataKeyV1      = 4
	metadataMinLen     = 100
	metadataNameOffset = 1 + 32 + 32 // key, update authority, mint
	maxNameLen         = 100
	maxSymbolLen       = 20
)

// ApplyMetaplex looks up the Metaplex metadata account of meta.Address and
// sets Name and Symbol when it parses. Missing accounts are not an error.
func (a *Analyzer) ApplyMetaplex(ctx context.Context, meta *domain.TokenMetadata) error {
	pda, err := solana.MetadataAddress(meta.Address)
	if err != nil {
		return fmt.Errorf("derive metadata address: %w", err)
	}

	info, err := a.rpc.GetAccountInfo(ctx, pda)
	if err != nil {
		return fmt.Errorf("get metadata account: %w", err)
	}
	if info == nil {
		return nil
	}
	if info.Owner != "" && info.Owner != solana.MetaplexProgramID {
		a.logger.Printf("WARN: metadata account %s owned by %s", pda, info.Owner)
		return nil
	}

	decoded, err := base64.StdEncoding.DecodeString(info.Data)
	if err != nil {
		return fmt.Errorf("decode metadata account: %w", err)
	}

	name, symbol := parseMetaplexData(decoded)
	if name != "" {
		meta.Name = &name
	}
	if symbol != "" {
		meta.Symbol = &symbol
	}
	return nil
}

// parseMetaplexData reads name and symbol from a MetadataV1 account:
// key u8, update authority, mint, then borsh strings (u32 length + bytes)
// padded with NULs. Whatever cannot be read is returned empty.
func parseMetaplexData(data []byte) (name, symbol string) {
	if len(data) < metadataMinLen || data[0] != metadataKeyV1 {
		return "", ""
	}

	offset := metadataNameOffset
	name, offset, ok := borshString(data, offset, maxNameLen)
	if !ok {
		return "", ""
	}
	symbol, _, ok = borshString(data, offset, maxSymbolLen)
	if !ok {
		return name, ""
	}
	return name, symbol
}

func borshString(data []byte, offset, maxLen int) (string, int, bool) {
	if offset+4 > len(data) {
		return "", offset, false
	}
	n := int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4
	if n > maxLen || offset+n > len(data) {
		return "", offset, false
	}
	s := strings.TrimRight(string(data[offset:offset+n]), "\x00")
	return strings.TrimSpace(s), offset + n, true
}
