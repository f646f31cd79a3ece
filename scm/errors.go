package scm

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies the failure category of a provider
// operation. Providers raise the most specific code
// available; the registry raises NotImplemented and
// UnsupportedProvider before ever constructing a provider.
type Code int

const (
	// NotFound: the repository does not exist or is not
	// visible to the credential.
	NotFound Code = iota + 1
	// Unauthorized: the credential is invalid or expired.
	Unauthorized
	// RateLimited: the provider signalled throttling.
	RateLimited
	// Unavailable: transport failure or provider 5xx.
	Unavailable
	// Rejected: the provider refused the request, or its
	// response could not be interpreted. Retrying without
	// changing the request will not help.
	Rejected
	// ConfigurationError: required provider-level
	// configuration is missing (e.g. no push credential).
	ConfigurationError
	// NotImplemented: the kind belongs to the closed set
	// but has no implementation yet.
	NotImplemented
	// UnsupportedProvider: the kind is outside the closed
	// set entirely.
	UnsupportedProvider
)

// codeNames drives Code.String.
var codeNames = map[Code]string{
	NotFound:            "not found",
	Unauthorized:        "unauthorized",
	RateLimited:         "rate limited",
	Unavailable:         "unavailable",
	Rejected:            "rejected",
	ConfigurationError:  "configuration error",
	NotImplemented:      "not implemented",
	UnsupportedProvider: "unsupported provider",
}

// String returns a stable human-readable code name.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}

	return fmt.Sprintf("code(%d)", int(c))
}

// Disposition is the retry class assigned to every error.
// Callers retry only Transient failures, with their own
// backoff budget; this layer never retries internally.
type Disposition int

const (
	// Transient: the caller may retry with backoff.
	Transient Disposition = iota
	// Permanent: retrying without changing the request
	// will not help.
	Permanent
)

// String returns the retry class name.
func (d Disposition) String() string {
	if d == Permanent {
		return "permanent"
	}

	return "transient"
}

// dispositions maps every taxonomy code to its retry
// class. Codes missing from the table classify as
// Transient: retrying a recoverable failure beats
// silently dropping it.
var dispositions = map[Code]Disposition{
	NotFound:            Permanent,
	Unauthorized:        Permanent,
	RateLimited:         Transient,
	Unavailable:         Transient,
	Rejected:            Permanent,
	ConfigurationError:  Permanent,
	NotImplemented:      Permanent,
	UnsupportedProvider: Permanent,
}

// Disposition returns the retry class of the code.
func (c Code) Disposition() Disposition {
	d, ok := dispositions[c]
	if !ok {
		return Transient
	}

	return d
}

// Classify maps an HTTP outcome to a retry disposition.
// It is a pure function of (status, transportErr) and is
// provider-agnostic: every provider funnels through the
// same classification so callers implement one retry
// policy regardless of back end. Outcomes that cannot be
// classified with confidence default to Transient.
func Classify(status int, transportErr error) Disposition {
	if transportErr != nil {
		return Transient
	}

	switch {
	case status == http.StatusTooManyRequests:
		return Transient
	case status >= 500:
		return Transient
	case status >= 400:
		return Permanent
	default:
		return Transient
	}
}

// CodeFromStatus maps an HTTP status to the most specific
// taxonomy code. A zero status means the request never
// produced a response (transport failure).
func CodeFromStatus(status int) Code {
	switch {
	case status == http.StatusNotFound:
		return NotFound
	case status == http.StatusUnauthorized,
		status == http.StatusForbidden:
		return Unauthorized
	case status == http.StatusTooManyRequests:
		return RateLimited
	case status >= 500, status == 0:
		return Unavailable
	case status >= 400:
		return Rejected
	default:
		return Unavailable
	}
}

// Error is the single error type every provider and the
// registry surface. It carries enough detail (provider,
// operation, code) for permanent failures to be
// actionable.
type Error struct {
	// Code is the failure category.
	Code Code
	// Provider is the kind that raised the error.
	Provider ProviderKind
	// Op names the failed operation.
	Op string
	// Err is the underlying cause, if any.
	Err error
}

// Error formats as "provider: op: code: cause".
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s: %s: %s: %v",
			e.Provider, e.Op, e.Code, e.Err,
		)
	}

	return fmt.Sprintf(
		"%s: %s: %s", e.Provider, e.Op, e.Code,
	)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Disposition returns the retry class of the error.
func (e *Error) Disposition() Disposition {
	return e.Code.Disposition()
}

// IsCode reports whether err carries the given taxonomy
// code anywhere in its chain.
func IsCode(err error, code Code) bool {
	var se *Error

	return errors.As(err, &se) && se.Code == code
}

// DispositionOf returns the retry class of any error.
// Errors without a taxonomy code classify as Transient.
func DispositionOf(err error) Disposition {
	var se *Error
	if errors.As(err, &se) {
		return se.Disposition()
	}

	return Transient
}
