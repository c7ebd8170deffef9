package registry

import (
	"errors"
	"fmt"

	vnet "github.com/mchmarny/varsig/pkg/net"
)

// Kind classifies registry failures.
type Kind int

const (
	// KindNetwork covers timeouts, refused connections and cancelled requests.
	KindNetwork Kind = iota
	// KindStatus is any non-200 response.
	KindStatus
	// KindMalformed is an unparseable body or a body missing its expected keys.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network failure"
	case KindStatus:
		return "unexpected status"
	case KindMalformed:
		return "malformed response"
	default:
		return "unknown"
	}
}

var (
	ErrNetwork   = errors.New("registry network failure")
	ErrStatus    = errors.New("registry unexpected status")
	ErrMalformed = errors.New("registry malformed response")

	// ErrNoRecord is returned by Summary when the response has no entry for the id.
	// It is not a failure of the call itself.
	ErrNoRecord = errors.New("registry has no record for id")
)

// Error wraps a failed registry call.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the Kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrStatus:
		return e.Kind == KindStatus
	case ErrMalformed:
		return e.Kind == KindMalformed
	}
	return false
}

func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var se *vnet.StatusError
	switch {
	case errors.As(err, &se):
		return &Error{Kind: KindStatus, Op: op, Err: err}
	case errors.Is(err, vnet.ErrDecode):
		return &Error{Kind: KindMalformed, Op: op, Err: err}
	default:
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
}
