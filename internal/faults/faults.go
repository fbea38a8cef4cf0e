package faults

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services.
var (
	// ErrNotFound covers both "the object does not exist" and "the caller
	// must not learn that it exists".
	ErrNotFound = errors.New("not found")

	// ErrNotImplemented marks an operation requested against a storage
	// backend kind that has no serving path yet.
	ErrNotImplemented = errors.New("not implemented")
)

// ValidationReason identifies why an upload was rejected by policy.
type ValidationReason string

const (
	ReasonInvalidType    ValidationReason = "INVALID_TYPE"
	ReasonTooLarge       ValidationReason = "TOO_LARGE"
	ReasonInvalidContext ValidationReason = "INVALID_CONTEXT"
)

// ValidationError is a policy rejection. It carries the observed values and
// the violated limit so handlers can render a precise user-facing message.
type ValidationError struct {
	Reason  ValidationReason
	Context string
	Mime    string
	Size    int64
	Limit   int64
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonTooLarge:
		return fmt.Sprintf("file of %d bytes exceeds the %d byte limit for %s", e.Size, e.Limit, e.Context)
	case ReasonInvalidType:
		return fmt.Sprintf("type %q is not allowed for %s", e.Mime, e.Context)
	default:
		return fmt.Sprintf("unknown usage context %q", e.Context)
	}
}

// QuotaReason identifies which ceiling a quota check tripped.
type QuotaReason string

const (
	ReasonExceedsInstanceLimit QuotaReason = "EXCEEDS_INSTANCE_LIMIT"
	ReasonExceedsUserQuota     QuotaReason = "EXCEEDS_USER_QUOTA"
)

// QuotaError is a denied storage reservation.
type QuotaError struct {
	Reason    QuotaReason
	Requested int64
	Used      int64
	Limit     int64
}

func (e *QuotaError) Error() string {
	if e.Reason == ReasonExceedsInstanceLimit {
		return fmt.Sprintf("file of %d bytes exceeds the instance limit of %d bytes", e.Requested, e.Limit)
	}
	return fmt.Sprintf("upload of %d bytes would exceed quota (%d of %d bytes used)", e.Requested, e.Used, e.Limit)
}

// ForbiddenError means the object exists but the caller lacks rights to it.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	if e.Reason == "" {
		return "access denied"
	}
	return "access denied: " + e.Reason
}

// Forbidden builds a ForbiddenError.
func Forbidden(reason string) error {
	return &ForbiddenError{Reason: reason}
}

// BackendError wraps a storage backend read/write/delete failure.
type BackendError struct {
	Op   string
	Path string
	Err  error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Backend wraps err as a BackendError for the given operation and path.
func Backend(op, path string, err error) error {
	return &BackendError{Op: op, Path: path, Err: err}
}

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsForbidden reports whether err is a ForbiddenError.
func IsForbidden(err error) bool {
	var fe *ForbiddenError
	return errors.As(err, &fe)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsQuota reports whether err is a QuotaError.
func IsQuota(err error) bool {
	var qe *QuotaError
	return errors.As(err, &qe)
}
