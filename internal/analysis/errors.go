package analysis

import "errors"

// Error kinds surfaced by the gateway. Checked with errors.Is; the HTTP
// layer maps them to status codes.
var (
	// ErrInvalidArgument rejects empty or malformed input before any
	// network cost is incurred.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrServiceUnavailable means no credential or model handle is
	// configured; operations fail fast without retrying.
	ErrServiceUnavailable = errors.New("service unavailable: model not configured")

	// ErrMalformedResponse means the model answered but its output could
	// not be turned into the expected structure.
	ErrMalformedResponse = errors.New("malformed model response")
)

func IsInvalidArgument(err error) bool    { return errors.Is(err, ErrInvalidArgument) }
func IsServiceUnavailable(err error) bool { return errors.Is(err, ErrServiceUnavailable) }
func IsMalformedResponse(err error) bool  { return errors.Is(err, ErrMalformedResponse) }
