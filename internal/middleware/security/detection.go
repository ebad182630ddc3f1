package security

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
)

// Detector resolves the real client address and turns away scanner probes.
type Detector struct {
	trusted []*net.IPNet
	blocked atomic.Int64
}

var probePaths = []string{
	"../", ".env", ".git", "wp-admin", "wp-login", "phpmyadmin",
	".php", "etc/passwd", "cgi-bin",
}

// NewDetector trusts loopback and private networks as reverse proxies.
func NewDetector() *Detector {
	d := &Detector{}
	for _, cidr := range []string{"127.0.0.0/8", "::1/128", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"} {
		if err := d.AddTrustedProxy(cidr); err != nil {
			panic(err)
		}
	}
	return d
}

func (d *Detector) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trusted = append(d.trusted, network)
	return nil
}

// ClientIP returns the peer address, or the first forwarded address when the
// peer is a trusted proxy.
func (d *Detector) ClientIP(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	ip := net.ParseIP(peer)
	if ip == nil || !d.isTrusted(ip) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return peer
}

func (d *Detector) isTrusted(ip net.IP) bool {
	for _, n := range d.trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// IsProbe reports whether the request path looks like a vulnerability scan.
func (d *Detector) IsProbe(r *http.Request) bool {
	path := strings.ToLower(r.URL.Path)
	for _, p := range probePaths {
		if strings.Contains(path, p) {
			return true
		}
	}
	return r.Method == http.MethodTrace || r.Method == http.MethodConnect
}

// Blocked returns how many probes were rejected.
func (d *Detector) Blocked() int64 {
	return d.blocked.Load()
}

// Middleware answers probes with 404 without reaching the application.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d.IsProbe(r) {
			d.blocked.Add(1)
			slog.WarnContext(r.Context(), "Blocked suspicious request",
				"client_ip", d.ClientIP(r),
				"method", r.Method,
				"path", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
