package encoding

import "fmt"

// EncodingError indicates row data that does not match the declared schema.
// It is a usage error and is never retried.
type EncodingError struct {
	Field string
	cause error
}

func (e *EncodingError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("encoding row: %v", e.cause)
	}
	return fmt.Sprintf("encoding field %q: %v", e.Field, e.cause)
}

func (e *EncodingError) Unwrap() error { return e.cause }
