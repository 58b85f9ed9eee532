package codec

import (
	"math/big"

	"github.com/pkg/errors"
)

// SignedBytes returns the minimal two's-complement big-endian form of v.
// Zero is a single 0x00 byte.
func SignedBytes(v *big.Int) []byte {
	var l int
	if v.Sign() < 0 {
		l = new(big.Int).Not(v).BitLen()/8 + 1
		t := new(big.Int).Lsh(big.NewInt(1), uint(l*8))
		return t.Add(t, v).FillBytes(make([]byte, l))
	}
	l = v.BitLen()/8 + 1
	return v.FillBytes(make([]byte, l))
}

// FromSignedBytes is the inverse of SignedBytes. An empty slice is zero.
func FromSignedBytes(bs []byte) *big.Int {
	v := new(big.Int).SetBytes(bs)
	if len(bs) > 0 && bs[0]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(len(bs)*8)))
	}
	return v
}

// UnsignedBytes returns the minimal big-endian form of v. Zero is empty.
func UnsignedBytes(v *big.Int) ([]byte, error) {
	if v.Sign() < 0 {
		return nil, errors.Wrapf(ErrIllegalArgument, "negative value %s", v)
	}
	return v.Bytes(), nil
}

func fromUnsignedBytes(bs []byte) *big.Int {
	return new(big.Int).SetBytes(bs)
}

func toInt64(v *big.Int, min, max int64) (int64, error) {
	if !v.IsInt64() {
		return 0, errors.Wrapf(ErrOutOfRange, "value=%s", v)
	}
	i := v.Int64()
	if i < min || i > max {
		return 0, errors.Wrapf(ErrOutOfRange, "value=%d", i)
	}
	return i, nil
}
