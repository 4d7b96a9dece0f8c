package solana

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// requestID is fixed: calls are synchronous, one request per HTTP round trip.
const requestID = 1

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
// Error is kept raw because nodes are not consistent about its shape.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error object returned by a node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// hasError reports whether the response carries a non-empty error member.
func (r *rpcResponse) hasError() bool {
	raw := bytes.TrimSpace(r.Error)
	if len(raw) == 0 {
		return false
	}
	switch string(raw) {
	case "null", "{}", `""`, "[]", "false", "0":
		return false
	}
	return true
}

// rpcError converts the raw error member into an *RPCError.
// Non-object errors are kept verbatim in Message.
func (r *rpcResponse) rpcError() *RPCError {
	var e RPCError
	if err := json.Unmarshal(r.Error, &e); err == nil && (e.Code != 0 || e.Message != "") {
		return &e
	}
	var s string
	if err := json.Unmarshal(r.Error, &s); err == nil {
		return &RPCError{Message: s}
	}
	return &RPCError{Message: string(bytes.TrimSpace(r.Error))}
}
