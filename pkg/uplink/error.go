package uplink

// Error is a constant error type we use for sentinel errors
type Error string

// Error allows our custom error type to implement the error interface
func (e Error) Error() string { return string(e) }

const (
	// ErrRejected indicates the backend refused the payload; retrying the
	// same payload will not help.
	ErrRejected = Error("rejected")

	// ErrUnavailable indicates the backend or broker could not be reached or
	// failed to process the payload.
	ErrUnavailable = Error("unavailable")

	// ErrTimeout indicates the request timed out
	ErrTimeout = Error("timeout")
)
