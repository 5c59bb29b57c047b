package errors

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Every error produced by GitSign carries exactly one of these, checkable with errors.Is().
var (
	// ErrKeyNotFound indicates none of the well-known key files exist
	ErrKeyNotFound = errors.New("no suitable SSH key found")

	// ErrKeyParse indicates a key file exists but could not be parsed
	ErrKeyParse = errors.New("failed to parse SSH key")

	// ErrDecryptionFailed indicates a wrong password. Retryable.
	ErrDecryptionFailed = errors.New("failed to decrypt SSH key")

	// ErrCancelled indicates the user interrupted the password prompt
	ErrCancelled = errors.New("operation cancelled")

	// ErrSigningFailed indicates the key could not produce a signature
	ErrSigningFailed = errors.New("failed to sign payload")

	// ErrEncoding indicates a malformed or unencodable object
	ErrEncoding = errors.New("invalid object encoding")

	// ErrObjectWrite indicates an object could not be persisted
	ErrObjectWrite = errors.New("failed to write object")

	// ErrRefConflict indicates a reference edit precondition was violated
	ErrRefConflict = errors.New("reference precondition failed")

	// ErrIO indicates a filesystem failure not covered by a more specific kind
	ErrIO = errors.New("i/o failure")

	// ErrInvalidConfiguration indicates an invalid or conflicting user configuration
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// kinds lists every sentinel, in the order KindOf checks them.
var kinds = []error{
	ErrKeyNotFound,
	ErrKeyParse,
	ErrDecryptionFailed,
	ErrCancelled,
	ErrSigningFailed,
	ErrEncoding,
	ErrObjectWrite,
	ErrRefConflict,
	ErrIO,
	ErrInvalidConfiguration,
}

// New creates a new error with the given message.
// This is a convenience function that wraps errors.New.
func New(message string) error {
	return errors.New(message)
}

// Errorf creates a new formatted error.
// This is a convenience function that wraps fmt.Errorf.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Wrap wraps an error with a message for better context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message for better context.
func Wrapf(err error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether target is in err's chain.
// This is a convenience function that wraps errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience function that wraps errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// KindOf returns the sentinel kind carried by err, or nil if err has none.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Error is a tagged error: a Kind from the sentinel list, the operation that failed,
// an optional path (file, ref or object id) and the underlying cause.
type Error struct {
	Kind error
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Kind != nil {
		return fmt.Sprintf("%s: %v", msg, e.Kind)
	}
	return msg
}

// Unwrap exposes both the kind and the cause, so errors.Is matches either.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// E creates a new tagged Error.
func E(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// EPath creates a new tagged Error bound to a path.
func EPath(kind error, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}
