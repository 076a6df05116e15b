package fingerprint

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/FranksOps/ghsearch/pkg/httpclient"
	utls "github.com/refraction-networking/utls"
)

// Profile represents a recognized TLS fingerprint profile.
type Profile string

const (
	ProfileChrome  Profile = "chrome"
	ProfileFirefox Profile = "firefox"
	ProfileSafari  Profile = "safari"
	ProfileGo      Profile = "go"     // standard go TLS
	ProfileRandom  Profile = "random" // randomized uTLS profile
)

// ParseProfile maps a config value to a Profile. Empty means ProfileGo.
func ParseProfile(s string) (Profile, error) {
	p := Profile(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return ProfileGo, nil
	}
	if _, err := helloID(p); err != nil && p != ProfileGo {
		return "", err
	}
	return p, nil
}

// Options configures Transport.
type Options struct {
	Profile Profile
	// InsecureSkipVerify disables certificate checks. Tests only.
	InsecureSkipVerify bool
}

// Transport returns an http.RoundTripper that dials TLS with the given
// browser fingerprint and routes each request through the proxy stored in its
// context by httpclient.WithProxy.
//
// The uTLS handshake only applies to connections the transport dials itself:
// behind an http or socks5 proxy the target TLS session is negotiated by the
// standard library.
func Transport(opts Options) (http.RoundTripper, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = httpclient.ProxyFromContext

	if opts.Profile == ProfileGo || opts.Profile == "" {
		if opts.InsecureSkipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		return transport, nil
	}

	id, err := helloID(opts.Profile)
	if err != nil {
		return nil, err
	}

	transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		tcpConn, err := transport.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr // fallback if no port
		}

		uConn := utls.UClient(tcpConn, &utls.Config{
			ServerName:         host,
			InsecureSkipVerify: opts.InsecureSkipVerify,
		}, id)
		if err := forceHTTP1(uConn); err != nil {
			_ = tcpConn.Close()
			return nil, err
		}
		if err := uConn.HandshakeContext(ctx); err != nil {
			_ = tcpConn.Close()
			return nil, fmt.Errorf("fingerprint: utls handshake failed: %w", err)
		}

		return uConn, nil
	}

	return transport, nil
}

// forceHTTP1 narrows the ALPN offer to http/1.1. net/http only speaks h2 over
// a *tls.Conn, so a uTLS conn that negotiated h2 would be unusable.
func forceHTTP1(uConn *utls.UConn) error {
	if err := uConn.BuildHandshakeState(); err != nil {
		return fmt.Errorf("fingerprint: build client hello: %w", err)
	}
	changed := false
	for _, ext := range uConn.Extensions {
		if alpn, ok := ext.(*utls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if err := uConn.MarshalClientHello(); err != nil {
		return fmt.Errorf("fingerprint: marshal client hello: %w", err)
	}
	return nil
}

func helloID(p Profile) (utls.ClientHelloID, error) {
	switch p {
	case ProfileChrome:
		return utls.HelloChrome_Auto, nil
	case ProfileFirefox:
		return utls.HelloFirefox_Auto, nil
	case ProfileSafari:
		return utls.HelloIOS_Auto, nil
	case ProfileRandom:
		return utls.HelloRandomizedALPN, nil
	}
	return utls.ClientHelloID{}, fmt.Errorf("fingerprint: unknown profile %q", p)
}
