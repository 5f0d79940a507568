package directive

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRepeat means a repeat attribute does not follow
	// `<name> of <path>`.
	ErrMalformedRepeat = errors.New("malformed repeat directive")
	// ErrPathNotFound means a repeat path resolves to nothing.
	ErrPathNotFound = errors.New("collection path not found")
	// ErrNotIterable means a repeat path resolves to something other than a
	// sequence.
	ErrNotIterable = errors.New("collection is not a sequence")
)

// ConfigurationError reports a directive that cannot be applied with the
// loaded data. It is fatal for the document being rendered.
type ConfigurationError struct {
	Attr  string
	Value string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s=%q: %v", e.Attr, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
