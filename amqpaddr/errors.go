package amqpaddr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedAddress matches every *MalformedAddressError.
	ErrMalformedAddress = errors.New("malformed broker address")
	// ErrIndexOutOfRange matches every *IndexOutOfRangeError.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// MalformedAddressError reports an address or address list that could not be parsed.
type MalformedAddressError struct {
	// Input is the offending raw text.
	Input string
	// Index is the position of Input in an address list, or -1.
	Index int
	// Reason describes the failure. Empty when Err already does.
	Reason string
	// Err is the underlying cause, if any.
	Err error
}

func (e *MalformedAddressError) Error() string {
	var b strings.Builder
	if e.Index >= 0 {
		fmt.Fprintf(&b, "address list entry %d: ", e.Index)
	}
	if e.Reason == "" && e.Err != nil {
		b.WriteString(e.Err.Error())
		return b.String()
	}
	fmt.Fprintf(&b, "%s %q", ErrMalformedAddress.Error(), e.Input)
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *MalformedAddressError) Unwrap() error {
	return e.Err
}

func (e *MalformedAddressError) Is(target error) bool {
	return target == ErrMalformedAddress
}

// IndexOutOfRangeError reports a positional lookup outside [0, Len).
type IndexOutOfRangeError struct {
	Index int
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("%s: index %d, list length %d", ErrIndexOutOfRange.Error(), e.Index, e.Len)
}

func (e *IndexOutOfRangeError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}

func malformed(input, reason string, err error) *MalformedAddressError {
	return &MalformedAddressError{Input: input, Index: -1, Reason: reason, Err: err}
}
