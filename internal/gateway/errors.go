package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a gateway failure. The classification happens once, in
// the backend adapter that saw the underlying driver error; callers branch
// on the kind instead of matching substrings of third-party messages.
type Kind int

const (
	// KindUnknown covers anything the adapter could not classify.
	KindUnknown Kind = iota

	// KindNotFound: the addressed row does not exist (or is not visible
	// to the given owner, which callers must treat the same way).
	KindNotFound

	// KindConflict: a unique constraint was violated.
	KindConflict

	// KindPermissionDenied: the store refused the operation for this owner.
	KindPermissionDenied

	// KindSchemaMissing: the backing table or view has not been
	// provisioned yet. Limit queries treat this as an empty result.
	KindSchemaMissing

	// KindNetwork: the store was unreachable or the round trip failed.
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPermissionDenied:
		return "permission_denied"
	case KindSchemaMissing:
		return "schema_missing"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Error is the boundary error type returned by every gateway implementation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("gateway: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("gateway: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with a kind and the operation that produced it.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the kind from err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err is a gateway not-found error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsConflict reports whether err is a gateway unique-violation error.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsSchemaMissing reports whether err means the backing relation has not
// been provisioned yet.
func IsSchemaMissing(err error) bool { return KindOf(err) == KindSchemaMissing }
