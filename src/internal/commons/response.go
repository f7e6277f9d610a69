package commons

// Response is the JSON envelope for every HTTP reply. Errors carries wire
// codes (see ErrorCode) when the failure maps to a known sentinel.
type Response[T any] struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    *T       `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    &data,
	}
}

func ErrorResponse[T any](message string, errors ...string) Response[T] {
	return Response[T]{
		Success: false,
		Message: message,
		Errors:  errors,
	}
}

// SentinelResponse renders a store sentinel with its wire code. Anything
// else is reported as an internal error without leaking its text.
func SentinelResponse[T any](err error) Response[T] {
	if code, ok := ErrorCode(err); ok {
		return ErrorResponse[T](err.Error(), code)
	}
	return ErrorResponse[T]("internal server error")
}
