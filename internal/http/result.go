package httpapi

// Result response envelope of the console API
// - code: 2000 on success, -1 on failure
// - type: 'success' | 'error' | 'warning'
// - field: set on validation failures, names the offending input
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Result  T      `json:"result"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1
	// ResultCancelled the request was superseded by a newer one; the console ignores it
	ResultCancelled = 49900
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message, Result: nil}
}

// FailField validation failure shown inline next to field
func FailField(field, message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message, Field: field, Result: nil}
}

// Notice non-fatal informational outcome, such as an empty export
func Notice(message string) Result[any] {
	return Result[any]{Code: ResultSuccess, Type: "warning", Message: message, Result: nil}
}

func Cancelled() Result[any] {
	return Result[any]{Code: ResultCancelled, Type: "warning", Message: "cancelled", Result: nil}
}
