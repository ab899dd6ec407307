// Package message defines the client side of the JSON-RPC 2.0 wire format
// spoken with the process host.
package message

import (
	"encoding/json"
	"fmt"
)

// Version is the JSON-RPC protocol version.
const Version = "2.0"

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// IsError returns true if this response contains an error.
func (r *Response) IsError() bool {
	return r.Error != nil
}

// Error represents a JSON-RPC 2.0 error.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// ID represents a JSON-RPC ID. Per spec it can be a String, Number, or Null;
// this client always issues number IDs but tolerates both on the way back.
type ID struct {
	value interface{} // string or int64
}

// NumberID creates an ID from an integer.
func NumberID(n int64) *ID {
	return &ID{value: n}
}

// Int64 returns the numeric value of the ID, or -1 if it is not a number.
func (id *ID) Int64() int64 {
	if id == nil {
		return -1
	}
	if n, ok := id.value.(int64); ok {
		return n
	}
	return -1
}

// String returns the ID as a string (for logging/debugging).
func (id *ID) String() string {
	if id == nil {
		return "<nil>"
	}
	switch v := id.value.(type) {
	case string:
		return v
	case int64:
		return fmt.Sprintf("%d", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// MarshalJSON implements json.Marshaler.
func (id *ID) MarshalJSON() ([]byte, error) {
	if id == nil {
		return []byte("null"), nil
	}
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		id.value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		id.value = s
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		id.value = n
		return nil
	}

	// JSON numbers may arrive as floats
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		id.value = int64(f)
		return nil
	}

	return fmt.Errorf("invalid ID type: %s", string(data))
}

// NewRequest creates a new JSON-RPC request.
func NewRequest(id *ID, method string, params interface{}) (*Request, error) {
	req := &Request{
		JSONRPC: Version,
		ID:      id,
		Method:  method,
	}

	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		req.Params = data
	}

	return req, nil
}

// Inbound is a raw inbound frame from the host. It is either a response to a
// pending call (ID set) or a server-pushed notification (Method set, no ID).
type Inbound struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// IsNotification returns true if the frame is a server-pushed notification.
func (m *Inbound) IsNotification() bool {
	return m.ID == nil && m.Method != ""
}

// AsResponse converts the frame to a Response. Only valid when the frame is
// not a notification.
func (m *Inbound) AsResponse() *Response {
	return &Response{
		JSONRPC: m.JSONRPC,
		ID:      m.ID,
		Result:  m.Result,
		Error:   m.Error,
	}
}

// ParseInbound parses an inbound frame from bytes.
func ParseInbound(data []byte) (*Inbound, error) {
	var m Inbound
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	if m.JSONRPC != Version {
		return nil, fmt.Errorf("invalid jsonrpc version: %s", m.JSONRPC)
	}

	return &m, nil
}
