package bonbonutil

import (
	"errors"
	"fmt"

	"github.com/portto/solana-go-sdk/rpc"
)

// StackErrors wraps multiple errors into a single error, preserving each
// one for errors.Is/errors.As.
func StackErrors(errs ...error) error {
	return NewStackedError(errs...)
}

// StackedError holds multiple errors and reports them as one.
type StackedError struct {
	errors []error
}

// NewStackedError builds a StackedError from errs.
func NewStackedError(errs ...error) *StackedError {
	return &StackedError{errors: errs}
}

// Error implements the error interface.
func (e *StackedError) Error() string {
	if len(e.errors) == 0 {
		return ""
	}
	if len(e.errors) == 1 {
		return errToString(e.errors[0])
	}

	var result string
	for _, err := range e.errors {
		if err == nil {
			continue
		}
		if result == "" {
			result = errToString(err)
			continue
		}
		result = fmt.Sprintf("%s: %s", result, errToString(err))
	}
	return result
}

// Unwrap implements errors.Unwrap. With more than one wrapped error it
// returns nil; Is and As below search all of them.
func (e *StackedError) Unwrap() error {
	if len(e.errors) == 0 {
		return nil
	}
	if len(e.errors) == 1 {
		return e.errors[0]
	}
	return nil
}

// Is reports whether any wrapped error matches target.
func (e *StackedError) Is(target error) bool {
	for _, err := range e.errors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// As reports whether any wrapped error can be assigned to target.
func (e *StackedError) As(target interface{}) bool {
	for _, err := range e.errors {
		if errors.As(err, target) {
			return true
		}
	}
	return false
}

// errToString renders an error, unwrapping an RPC error to its message
// rather than its generic transport wrapper text.
func errToString(err error) string {
	if rpcErr, ok := err.(*rpc.JsonRpcError); ok {
		return rpcErr.Message
	}
	return err.Error()
}

// WrapError folds errs into a single chained error via fmt.Errorf("%w"),
// for callers that want errors.Is to walk the whole chain rather than
// just check membership as StackErrors does.
func WrapError(errs ...error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	var err error
	for _, e := range errs {
		if e == nil {
			continue
		}
		if err == nil {
			err = e
			continue
		}
		if rpcErr, ok := e.(*rpc.JsonRpcError); ok {
			err = fmt.Errorf("%w: %s", err, rpcErr.Message)
			continue
		}
		err = fmt.Errorf("%w: %s", err, e.Error())
	}
	return err
}
