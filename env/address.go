package env

import (
	"strconv"

	"github.com/jongio/amqp-core/amqpaddr"
)

// Variable names exported by FromAddress.
const (
	VarURI         = "AMQP_URI"
	VarScheme      = "AMQP_SCHEME"
	VarHost        = "AMQP_HOST"
	VarPort        = "AMQP_PORT"
	VarVirtualHost = "AMQP_VHOST"
	VarUsername    = "AMQP_USERNAME"
	VarPassword    = "AMQP_PASSWORD"
)

// FromAddress describes addr as environment variables. AMQP_PORT holds the
// resolved port.
func FromAddress(addr amqpaddr.Address) map[string]string {
	return map[string]string{
		VarURI:         addr.URI(),
		VarScheme:      addr.Scheme(),
		VarHost:        addr.Host(),
		VarPort:        strconv.Itoa(addr.ResolvedPort()),
		VarVirtualHost: addr.VirtualHost(),
		VarUsername:    addr.Username(),
		VarPassword:    addr.Password(),
	}
}
