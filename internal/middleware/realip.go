package middleware

import (
	"net"

	"github.com/labstack/echo/v4"
)

// ClientIP decides what c.RealIP() returns, and so which bucket RateLimit
// charges. With no trusted proxies the peer address is used and
// X-Forwarded-For is ignored. Otherwise X-Forwarded-For is honoured only when
// it arrives through one of the trusted ranges.
func ClientIP(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}
