package ipc

import (
	"io"
	"net"

	"github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"github.com/pkg/errors"
)

// Connection is the duplex byte stream to the host.
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// Dial connects to the host listening on network/address.
func Dial(network, address string) (net.Conn, error) {
	conn, err := net.Dial(network, address)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s %s", network, address)
	}
	return conn, nil
}

// DialAddr connects to a host given as a multiaddr such as
// /unix/tmp/ee.socket or /ip4/127.0.0.1/tcp/9000.
func DialAddr(maddr string) (net.Conn, error) {
	network, address, err := ParseAddr(maddr)
	if err != nil {
		return nil, err
	}
	return Dial(network, address)
}

// ParseAddr converts a multiaddr into net.Dial arguments.
func ParseAddr(maddr string) (string, string, error) {
	ma, err := multiaddr.NewMultiaddr(maddr)
	if err != nil {
		return "", "", errors.Wrapf(err, "address %s", maddr)
	}
	network, address, err := manet.DialArgs(ma)
	if err != nil {
		return "", "", errors.Wrapf(err, "address %s", maddr)
	}
	return network, address, nil
}
