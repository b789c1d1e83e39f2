package failover

import (
	"errors"
	"fmt"

	"github.com/jongio/amqp-core/amqpaddr"
)

var (
	// ErrNoAddresses is returned by Connect when the list is empty.
	ErrNoAddresses = errors.New("no broker addresses configured")
	// ErrExhausted matches every *ExhaustedError.
	ErrExhausted = errors.New("all broker addresses failed")
	// ErrBreakerOpen marks an attempt skipped because its circuit breaker is open.
	ErrBreakerOpen = errors.New("circuit breaker open")
	// ErrNilDialFunc is returned by NewSelector when no DialFunc is given.
	ErrNilDialFunc = errors.New("dial func is nil")
)

// AttemptError is the outcome of one failed attempt.
type AttemptError struct {
	Index   int
	Address amqpaddr.Address
	Err     error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("address %d (%s): %v", e.Index, e.Address, e.Err)
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}

// ExhaustedError reports that every address in the list failed or was
// skipped. Err joins the attempts, so errors.Is and errors.As reach each one.
type ExhaustedError struct {
	Attempts []*AttemptError
	Err      error
}

func newExhaustedError(attempts []*AttemptError) *ExhaustedError {
	errs := make([]error, len(attempts))
	for i, a := range attempts {
		errs[i] = a
	}
	return &ExhaustedError{Attempts: attempts, Err: errors.Join(errs...)}
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s (%d attempts): %v", ErrExhausted, len(e.Attempts), e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}
