package amqpaddr

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Defaults applied to URI components that are omitted.
const (
	DefaultUsername    = "guest"
	DefaultPassword    = "guest"
	DefaultVirtualHost = "/"
	DefaultHost        = "localhost"
)

// Address is a parsed broker endpoint. Values are immutable; build them with
// Parse or a Builder.
type Address struct {
	scheme      string
	username    string
	password    string
	virtualHost string
	host        string
	port        Port
}

func (a Address) Scheme() string      { return a.scheme }
func (a Address) Username() string    { return a.username }
func (a Address) Password() string    { return a.password }
func (a Address) VirtualHost() string { return a.virtualHost }
func (a Address) Host() string        { return a.host }
func (a Address) Port() Port          { return a.port }

// ResolvedPort returns the explicit port, or the standard port of the scheme.
// Unknown schemes fall back to DefaultAMQPPort.
func (a Address) ResolvedPort() int {
	if n, ok := a.port.Get(); ok {
		return n
	}
	if n, ok := DefaultPort(a.scheme); ok {
		return n
	}
	return DefaultAMQPPort
}

// Equal reports whether both addresses have identical fields.
func (a Address) Equal(other Address) bool {
	return a == other
}

// String renders the endpoint without credentials as scheme://host:port/vhost.
// The vhost segment is empty for the root virtual host.
func (a Address) String() string {
	return a.scheme + "://" + net.JoinHostPort(a.host, strconv.Itoa(a.ResolvedPort())) + "/" + a.escapedVirtualHost()
}

// URI renders the full connection URI, credentials included. Parsing the
// result yields an equal Address.
func (a Address) URI() string {
	u := url.URL{
		Scheme: a.scheme,
		User:   url.UserPassword(a.username, a.password),
		Host:   a.host,
	}
	if n, ok := a.port.Get(); ok {
		u.Host = net.JoinHostPort(a.host, strconv.Itoa(n))
	} else if strings.Contains(a.host, ":") {
		u.Host = "[" + a.host + "]"
	}
	if vhost := a.escapedVirtualHost(); vhost != "" {
		u.Path = "/" + a.virtualHost
		u.RawPath = "/" + vhost
	}
	return u.String()
}

func (a Address) escapedVirtualHost() string {
	if a.virtualHost == DefaultVirtualHost {
		return ""
	}
	return url.PathEscape(a.virtualHost)
}
