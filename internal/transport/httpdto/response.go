package httpdto

// Response is the envelope every endpoint returns. Success responses
// carry data; failures carry a human-readable error plus one of the
// stable codes (INVALID_REQUEST, NOT_FOUND, ...) that clients branch on.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// NewSuccessResponse wraps data in a success envelope.
func NewSuccessResponse[T any](data T) Response[T] {
	return Response[T]{Success: true, Data: data}
}

// NewErrorResponse builds a failure envelope. The message may be shown
// to the user; the code is the contract.
func NewErrorResponse(err string, code string) Response[any] {
	return Response[any]{Success: false, Error: err, Code: code}
}
