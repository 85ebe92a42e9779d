package router

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
)

// trustedProxies holds the networks whose forwarding headers are believed.
// With none configured the TCP peer is always the client.
type trustedProxies []netip.Prefix

func newTrustedProxies(cfg config.Config) trustedProxies {
	if cfg == nil {
		return nil
	}

	var tp trustedProxies
	for _, raw := range cfg.GetArray("app.server.trusted_proxies") {
		if p, err := netip.ParsePrefix(raw); err == nil {
			tp = append(tp, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(raw); err == nil {
			tp = append(tp, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		slog.Warn("ignoring invalid trusted proxy", "value", raw)
	}
	return tp
}

func (tp trustedProxies) contains(a netip.Addr) bool {
	a = a.Unmap()
	for _, p := range tp {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// clientAddr resolves the client address. Forwarding headers are read only
// when the peer is a trusted proxy. X-Forwarded-For is walked right to left
// and the first hop outside the trusted networks wins.
func (tp trustedProxies) clientAddr(r *http.Request) (netip.Addr, bool) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	peer = peer.Unmap()
	if !tp.contains(peer) {
		return peer, true
	}

	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		hops := strings.Split(strings.Join(xff, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			if !tp.contains(hop) {
				return hop.Unmap(), true
			}
		}
	}
	if xrip, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return xrip.Unmap(), true
	}

	return peer, true
}

// middlewareIP rewrites RemoteAddr to the bare client address.
func middlewareIP(cfg config.Config) Middleware {
	proxies := newTrustedProxies(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if addr, ok := proxies.clientAddr(r); ok {
				r.RemoteAddr = addr.String()
			}
			next.ServeHTTP(w, r)
		})
	}
}
