package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Hard errors abort the whole call and are never turned into a rejected Outcome.
var (
	ErrNotGateway       = errors.New("caller is not the registered gateway")
	ErrAccessDenied     = errors.New("access denied")
	ErrUndeclaredMethod = errors.New("undeclared method")
	ErrNoImplementation = errors.New("no implementation")
	ErrNotInitialized   = errors.New("not initialized")
)

// OracleError wraps a failure of an external compliance oracle call.
type OracleError struct {
	message string
}

func NewOracleError(message string) *OracleError {
	return &OracleError{message: message}
}

func (a OracleError) Error() string {
	return a.message
}

func (a OracleError) Extend(message string) error {
	return NewOracleError(fmtExtend(a, message))
}

func (a OracleError) Is(target error) bool {
	_, ok := target.(OracleError)
	return ok
}

// StorageError wraps a failure of the underlying key-value store.
type StorageError struct {
	message string
}

func NewStorageError(message string) *StorageError {
	return &StorageError{message: message}
}

func (a StorageError) Error() string {
	return a.message
}

func (a StorageError) Extend(message string) error {
	return NewStorageError(fmtExtend(a, message))
}

func (a StorageError) Is(target error) bool {
	_, ok := target.(StorageError)
	return ok
}

// Extender is implemented by typed errors that keep their type when a context message is added.
type Extender interface {
	Extend(message string) error
}

// Extend prefixes err with message. Typed errors stay matchable by errors.Is.
func Extend(err error, message string) error {
	if ex, ok := err.(Extender); ok {
		return ex.Extend(message)
	}
	return errors.Wrap(err, message)
}

func fmtExtend(self error, message string) string {
	return fmt.Sprintf("%s: %s", message, self)
}
