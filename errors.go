package dagbok

import "fmt"

// ErrorCode classifies errors returned by the dagbok pipeline.
type ErrorCode int32

const (
	ErrUnknown ErrorCode = iota
	// ErrInit: a model or vocabulary failed to load. Fatal to the session;
	// recover by constructing a new one.
	ErrInit
	// ErrNotInitialized: an operation was invoked on a closed session.
	ErrNotInitialized
	// ErrEmptyInput: blank text where content is required.
	ErrEmptyInput
	// ErrInference: the engine returned no or invalid output.
	ErrInference
	// ErrVocab: the vocabulary file is unreadable or malformed.
	ErrVocab
)

// Error is an error returned by the dagbok pipeline.
type Error struct {
	Code ErrorCode
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dagbok: %s: %v (code %d)", e.Op, e.Err, e.Code)
	}
	return fmt.Sprintf("dagbok: %s (code %d)", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code ErrorCode, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

// IsCode reports whether err or anything it wraps is a dagbok *Error
// carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
