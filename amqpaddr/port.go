package amqpaddr

import "strconv"

// MaxPort is the largest valid TCP port.
const MaxPort = 65535

// Port is an optional TCP port. The zero value is NoPort.
type Port struct {
	n   int
	set bool
}

// NoPort means the scheme's standard port applies.
var NoPort = Port{}

// PortOf returns a set Port for n. Non-positive values yield NoPort.
func PortOf(n int) Port {
	if n <= 0 {
		return NoPort
	}
	return Port{n: n, set: true}
}

// Get returns the port number and whether it is set.
func (p Port) Get() (int, bool) {
	return p.n, p.set
}

// IsSet reports whether an explicit port was given.
func (p Port) IsSet() bool {
	return p.set
}

// Or returns the port number, or def when the port is unset.
func (p Port) Or(def int) int {
	if !p.set {
		return def
	}
	return p.n
}

// String returns the decimal port, or an empty string when unset.
func (p Port) String() string {
	if !p.set {
		return ""
	}
	return strconv.Itoa(p.n)
}
