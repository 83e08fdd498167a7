package rpc

import (
	"errors"
	"fmt"
)

// Kind classifies a backend call failure. Callers branch on the kind, not on
// HTTP status codes: NotFound is a benign empty-state signal for carts,
// VersionConflict demands a resync, Timeout and Network are terminal for the
// triggering operation and are never retried automatically.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindVersionConflict
	KindTimeout
	KindNetwork
	KindAuth
	KindServerFault
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindVersionConflict:
		return "version_conflict"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindServerFault:
		return "server_fault"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind       Kind
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("rpc %s: %s: %s", e.Endpoint, e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("rpc %s: %s: %v", e.Endpoint, e.Kind, e.Err)
	}
	return fmt.Sprintf("rpc %s: %s", e.Endpoint, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from any error in the chain, or
// KindUnknown for non-rpc errors.
func KindOf(err error) Kind {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr.Kind
	}
	return KindUnknown
}

func IsNotFound(err error) bool        { return KindOf(err) == KindNotFound }
func IsVersionConflict(err error) bool { return KindOf(err) == KindVersionConflict }
func IsTimeout(err error) bool         { return KindOf(err) == KindTimeout }
func IsAuthFailure(err error) bool     { return KindOf(err) == KindAuth }
func IsValidation(err error) bool      { return KindOf(err) == KindValidation }
