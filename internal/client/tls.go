package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	utls "github.com/refraction-networking/utls"

	"activesg-proxy-go/internal/config"
)

// helloID maps a configured fingerprint name to a uTLS ClientHello.
// The second result is false for "go", which keeps crypto/tls.
func helloID(fingerprint string) (utls.ClientHelloID, bool) {
	switch strings.ToLower(fingerprint) {
	case "firefox":
		return utls.HelloFirefox_Auto, true
	case "chrome":
		return utls.HelloChrome_Auto, true
	default:
		return utls.ClientHelloID{}, false
	}
}

func newTransport(cfg config.UpstreamConfig) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.IdleConnections,
		MaxIdleConnsPerHost: cfg.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext:         dialer.DialContext,
	}

	if id, ok := helloID(cfg.TLSFingerprint); ok {
		transport.DialTLSContext = browserTLSDialer(dialer, id)
	}

	return transport
}

// browserTLSDialer returns a DialTLSContext func that performs the handshake
// with a browser ClientHello. ALPN is narrowed to http/1.1 because
// http.Transport cannot speak h2 over a connection it did not handshake itself.
func browserTLSDialer(dialer *net.Dialer, id utls.ClientHelloID) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		tcpConn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		sniHost, _, err := net.SplitHostPort(addr)
		if err != nil {
			sniHost = addr
		}

		uConn := utls.UClient(tcpConn, &utls.Config{ServerName: sniHost}, id)
		if err := uConn.BuildHandshakeState(); err != nil {
			_ = tcpConn.Close()
			return nil, fmt.Errorf("building handshake state: %w", err)
		}

		if !pinHTTP11(uConn.Extensions) {
			_ = tcpConn.Close()
			return nil, errors.New("client hello has no ALPN extension")
		}
		if err := uConn.MarshalClientHello(); err != nil {
			_ = tcpConn.Close()
			return nil, fmt.Errorf("marshaling client hello: %w", err)
		}

		if err := uConn.HandshakeContext(ctx); err != nil {
			_ = tcpConn.Close()
			return nil, err
		}
		return uConn, nil
	}
}

// pinHTTP11 rewrites the ALPN extension to offer only http/1.1.
// It must run before the handshake.
func pinHTTP11(exts []utls.TLSExtension) bool {
	for _, ext := range exts {
		if alpn, ok := ext.(*utls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			return true
		}
	}
	return false
}
