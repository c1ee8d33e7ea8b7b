package models

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	WSTypeEndpoint = "endpoint"
	WSTypeResult   = "result"
	WSTypeError    = "error"
)

type EndpointEvent struct {
	SessionID string `json:"session_id"`
	Endpoint  string `json:"endpoint"`
}

// OperationRequest is the inbound envelope posted against a session.
type OperationRequest struct {
	ID     interface{}            `json:"id"`
	Method string                 `json:"method"`
	Params map[string]interface{} `json:"params"`
}

type OperationResult struct {
	ID      interface{} `json:"id"`
	Text    string      `json:"text"`
	IsError bool        `json:"is_error"`
	Code    string      `json:"code,omitempty"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
