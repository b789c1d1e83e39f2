package amqpaddr

import (
	"iter"
	"slices"
	"strings"
)

// List is an ordered, immutable sequence of broker addresses. Order follows
// the input and duplicates are kept.
type List struct {
	addrs []Address
}

// ParseList parses a comma-separated list of AMQP URIs. Each entry is trimmed
// of surrounding whitespace. An empty input, an empty entry (for example a
// trailing comma) or an invalid URI fails the whole list; no partial list is
// returned.
func ParseList(s string) (List, error) {
	if strings.TrimSpace(s) == "" {
		return List{}, malformed(s, "empty address list", nil)
	}

	tokens := strings.Split(s, ",")
	addrs := make([]Address, 0, len(tokens))
	for i, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			return List{}, &MalformedAddressError{Input: token, Index: i, Reason: "empty address"}
		}

		addr, err := Parse(token)
		if err != nil {
			return List{}, &MalformedAddressError{Input: token, Index: i, Err: err}
		}
		addrs = append(addrs, addr)
	}

	return List{addrs: addrs}, nil
}

// NewList copies addrs into a List without further validation.
func NewList(addrs []Address) List {
	return List{addrs: slices.Clone(addrs)}
}

// Len returns the number of addresses.
func (l List) Len() int {
	return len(l.addrs)
}

// Get returns the address at index i.
func (l List) Get(i int) (Address, error) {
	if i < 0 || i >= len(l.addrs) {
		return Address{}, &IndexOutOfRangeError{Index: i, Len: len(l.addrs)}
	}
	return l.addrs[i], nil
}

// All returns an iterator over the addresses and their positions, in order.
func (l List) All() iter.Seq2[int, Address] {
	return func(yield func(int, Address) bool) {
		for i, addr := range l.addrs {
			if !yield(i, addr) {
				return
			}
		}
	}
}

// Addresses returns a copy of the addresses.
func (l List) Addresses() []Address {
	return slices.Clone(l.addrs)
}

// Equal reports whether both lists hold equal addresses in the same order.
func (l List) Equal(other List) bool {
	return slices.Equal(l.addrs, other.addrs)
}

// String renders the list as comma-separated Address.String values.
func (l List) String() string {
	parts := make([]string, len(l.addrs))
	for i, addr := range l.addrs {
		parts[i] = addr.String()
	}
	return strings.Join(parts, ",")
}
