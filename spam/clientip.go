package spam

import (
	"net"
	"net/http"
	"strings"
)

// UnknownIP is returned when no client address can be determined.
const UnknownIP = "unknown"

// ipHeaders is the preference order for proxy supplied client addresses.
var ipHeaders = []string{
	"CF-Connecting-IP",
	"X-Real-IP",
	"X-Forwarded-For",
	"X-Client-IP",
	"True-Client-IP",
	"X-Cluster-Client-IP",
}

// ClientIP extracts the best-effort client address of r. The first proxy
// header with a value wins; X-Forwarded-For contributes its first hop. Without
// headers the connection's remote address is used, and UnknownIP after that.
func ClientIP(r *http.Request) string {
	for _, h := range ipHeaders {
		v := strings.TrimSpace(r.Header.Get(h))
		if v == "" {
			continue
		}
		if h == "X-Forwarded-For" {
			v = strings.TrimSpace(strings.Split(v, ",")[0])
			if v == "" {
				continue
			}
		}
		return v
	}
	if r.RemoteAddr != "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err == nil && host != "" {
			return host
		}
	}
	return UnknownIP
}

// AnonymizeIP masks the host part of an address before it is persisted:
// IPv4 keeps a /24, IPv6 keeps a /48. Unparseable values become UnknownIP.
func AnonymizeIP(ip string) string {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return UnknownIP
	}
	if v4 := parsed.To4(); v4 != nil {
		return v4.Mask(net.CIDRMask(24, 32)).String()
	}
	return parsed.Mask(net.CIDRMask(48, 128)).String()
}
