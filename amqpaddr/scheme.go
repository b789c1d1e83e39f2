package amqpaddr

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// Standard AMQP schemes and their ports.
const (
	SchemeAMQP  = "amqp"
	SchemeAMQPS = "amqps"

	DefaultAMQPPort  = 5672
	DefaultAMQPSPort = 5671
)

var (
	schemesMu sync.RWMutex
	schemes   = map[string]int{
		SchemeAMQP:  DefaultAMQPPort,
		SchemeAMQPS: DefaultAMQPSPort,
	}

	// schemePattern follows the RFC 3986 scheme production, lowercase only
	// because net/url lowercases parsed schemes.
	schemePattern = regexp.MustCompile(`^[a-z][a-z0-9+.\-]*$`)
)

// RegisterScheme registers an additional connection scheme with its standard port.
// Registering an existing scheme replaces its port.
// This function is safe for concurrent use.
func RegisterScheme(name string, defaultPort int) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if !schemePattern.MatchString(name) {
		return fmt.Errorf("invalid scheme name: %q", name)
	}
	if defaultPort < 1 || defaultPort > MaxPort {
		return fmt.Errorf("default port for scheme %s must be between 1 and %d, got %d", name, MaxPort, defaultPort)
	}

	schemesMu.Lock()
	defer schemesMu.Unlock()
	schemes[name] = defaultPort
	return nil
}

// DefaultPort returns the standard port of a registered scheme.
func DefaultPort(scheme string) (int, bool) {
	schemesMu.RLock()
	defer schemesMu.RUnlock()
	port, ok := schemes[strings.ToLower(scheme)]
	return port, ok
}

// IsRegistered reports whether scheme is a known connection scheme.
func IsRegistered(scheme string) bool {
	_, ok := DefaultPort(scheme)
	return ok
}

// Schemes returns the registered scheme names in sorted order.
func Schemes() []string {
	schemesMu.RLock()
	names := make([]string, 0, len(schemes))
	for name := range schemes {
		names = append(names, name)
	}
	schemesMu.RUnlock()

	slices.Sort(names)
	return names
}
