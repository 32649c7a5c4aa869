package retriever

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// checkProxyTimeout bounds the SOCKS5 handshake check.
const checkProxyTimeout = 2 * time.Second

// SOCKS5 protocol constants used by the handshake check.
const (
	socks5Version      = 0x05
	socks5AuthNone     = 0x00
	socks5AuthNoAccept = 0xFF
)

// NewSOCKSChannel returns a channel that requests target URLs directly but
// routes the connection through the SOCKS5 proxy at proxyAddress.
//
// The proxy is not contacted here; call CheckSOCKS to verify it.
func NewSOCKSChannel(name, proxyAddress string, timeout time.Duration) (Channel, error) {
	if !isValidProxyAddress(proxyAddress) {
		return Channel{}, ErrInvalidProxyAddress
	}

	dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return Channel{}, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		},
		// Each connection occupies a proxy circuit, so keep the pool small.
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}

	return Channel{
		Name:      name,
		Transform: Identity,
		Extract:   RawBody,
		Client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}, nil
}

// isValidProxyAddress reports whether address is host:port with a port in 1..65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// CheckSOCKS verifies that a SOCKS5 proxy listens at proxyAddress and accepts
// unauthenticated clients. Only the method negotiation is performed.
func CheckSOCKS(ctx context.Context, proxyAddress string) error {
	if !isValidProxyAddress(proxyAddress) {
		return ErrInvalidProxyAddress
	}

	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", proxyAddress)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrProxyTimeout
		}
		return ErrProxyCannotConnect
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(checkProxyTimeout)); err != nil {
		return ErrProxyCannotConnect
	}

	// version, one method offered, "no authentication"
	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return ErrProxyCannotConnect
	}

	reply := make([]byte, 2)
	if _, err := io.ReadFull(conn, reply); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return ErrProxyTimeout
		}
		return ErrProxyNotSOCKS
	}

	if reply[0] != socks5Version || reply[1] == socks5AuthNoAccept || reply[1] != socks5AuthNone {
		return ErrProxyNotSOCKS
	}
	return nil
}
