package domain

import (
	"errors"
	"fmt"
)

// ErrorKind distinguishes the two reported failure families
type ErrorKind int

const (
	KindNetwork ErrorKind = iota
	KindStore
)

// String returns a human-readable representation of the kind
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// DataError is the only error type that crosses the sync engine boundary.
// Callers report Message and must not branch on the wrapped cause.
type DataError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *DataError) Unwrap() error { return e.Err }

// NetworkError reports a transport, status, or decoding failure
func NetworkError(msg string, cause error) *DataError {
	return &DataError{Kind: KindNetwork, Message: msg, Err: cause}
}

// StoreError reports a failure of the local record store
func StoreError(msg string, cause error) *DataError {
	return &DataError{Kind: KindStore, Message: msg, Err: cause}
}

// AsDataError extracts a DataError from err. Foreign errors are folded into
// the given kind so nothing outside the taxonomy reaches observers.
func AsDataError(err error, fallback ErrorKind) *DataError {
	if err == nil {
		return nil
	}
	var de *DataError
	if errors.As(err, &de) {
		return de
	}
	return &DataError{Kind: fallback, Message: err.Error(), Err: err}
}

// IsNetwork reports whether err is a network DataError
func IsNetwork(err error) bool {
	var de *DataError
	return errors.As(err, &de) && de.Kind == KindNetwork
}

// IsStore reports whether err is a store DataError
func IsStore(err error) bool {
	var de *DataError
	return errors.As(err, &de) && de.Kind == KindStore
}
