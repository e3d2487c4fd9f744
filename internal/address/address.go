package address

import (
	"net"
	"strings"
)

const DefaultHost = "0.0.0.0"

// Normalize fills in the default host if only the port is given.
func Normalize(addr string) string {
	if len(Host(addr)) == 0 {
		return DefaultHost + addr
	}

	return addr
}

// IsLocalhost tells whether the address points to the local machine, so no public
// certificate can ever be issued for it.
func IsLocalhost(addr string) bool {
	host := Host(addr)
	if strings.EqualFold(host, "localhost") {
		return true
	}

	ip := net.ParseIP(host)

	return ip != nil && ip.IsLoopback()
}

// Host strips the port. IPv6 hosts are returned without brackets.
func Host(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}

	return addr
}
