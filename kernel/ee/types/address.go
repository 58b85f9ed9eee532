package types

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	hex "github.com/tmthrgd/go-hex"
)

const (
	AddressBytes = 21

	addressPrefixEOA      = 0x0
	addressPrefixContract = 0x1
)

var ErrInvalidAddress = errors.New("types: invalid address")

// Address is a prefix byte (0 for accounts, 1 for contracts) followed by a
// 20 byte body. It renders as hx... or cx...
type Address [AddressBytes]byte

// NewAddress copies bs, which must be exactly 21 bytes, into an Address.
func NewAddress(bs []byte) (*Address, error) {
	if len(bs) != AddressBytes {
		return nil, errors.Wrapf(ErrInvalidAddress, "length %d", len(bs))
	}
	a := new(Address)
	copy(a[:], bs)
	return a, nil
}

// ParseAddress parses the hx/cx string form.
func ParseAddress(s string) (*Address, error) {
	if len(s) != AddressBytes*2 {
		return nil, errors.Wrapf(ErrInvalidAddress, "%q", s)
	}
	a := new(Address)
	switch {
	case strings.HasPrefix(s, "hx"):
		a[0] = addressPrefixEOA
	case strings.HasPrefix(s, "cx"):
		a[0] = addressPrefixContract
	default:
		return nil, errors.Wrapf(ErrInvalidAddress, "prefix of %q", s)
	}
	if _, err := hex.Decode(a[1:], []byte(s[2:])); err != nil {
		return nil, errors.Wrapf(ErrInvalidAddress, "%q: %v", s, err)
	}
	return a, nil
}

// IsContract reports a non zero prefix.
func (a *Address) IsContract() bool {
	return a[0] != addressPrefixEOA
}

func (a *Address) Bytes() []byte {
	return a[:]
}

func (a *Address) Equal(b *Address) bool {
	if a == nil || b == nil {
		return a == b
	}
	return bytes.Equal(a[:], b[:])
}

func (a *Address) String() string {
	if a == nil {
		return "nil"
	}
	if a.IsContract() {
		return "cx" + hex.EncodeToString(a[1:])
	}
	return "hx" + hex.EncodeToString(a[1:])
}
