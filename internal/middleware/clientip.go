// AngelaMos | 2026
// clientip.go

package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ClientIP is the peer address of r without its port. Forwarding headers
// only reach it through TrustedRealIP.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// TrustedRealIP runs chi's RealIP for requests whose peer is one of the
// trusted proxies. Everyone else keeps their socket address.
func TrustedRealIP(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(trusted) == 0 {
			return next
		}

		realIP := chimw.RealIP(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if fromTrustedProxy(r, trusted) {
				realIP.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func fromTrustedProxy(r *http.Request, trusted []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ClientIP(r))
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ParseTrustedProxies accepts CIDR blocks and bare addresses.
func ParseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))

	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}

		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}

	return prefixes, nil
}
