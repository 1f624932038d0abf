package light

import (
	"errors"
	"fmt"
)

// Sentinel errors for light operations.
var (
	// ErrInvalidConfig is returned by NewBridge when the configuration is unusable.
	ErrInvalidConfig = errors.New("light: invalid config")

	// ErrNotActivated is returned when a command is issued before Activate.
	ErrNotActivated = errors.New("light: bridge not activated")

	// ErrPublishFailed wraps a transport publish failure.
	ErrPublishFailed = errors.New("light: publish failed")

	// ErrSubscribeFailed wraps a transport subscribe failure.
	ErrSubscribeFailed = errors.New("light: subscribe failed")

	// ErrDecode matches any *DecodeError via errors.Is.
	ErrDecode = errors.New("light: payload decode failed")
)

// DecodeError reports an inbound payload that could not be decoded.
// It is logged by the bridge and never returned to the transport.
type DecodeError struct {
	Kind    string // "brightness" or "rgb"
	Payload string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("light: decoding %s payload %q: %v", e.Kind, e.Payload, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrDecode) match without losing the cause chain.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
