package ipc

import (
	"math"
	"math/big"

	"github.com/pkg/errors"

	"github.com/xuperchain/eeproxy/kernel/ee/codec"
	"github.com/xuperchain/eeproxy/kernel/ee/types"
)

// ErrCast reports a payload value of an unexpected shape.
var ErrCast = errors.New("ipc: value cast error")

func AsArray(v interface{}) ([]interface{}, error) {
	arr, ok := v.([]interface{})
	if !ok {
		return nil, errors.Wrapf(ErrCast, "%T to array", v)
	}
	return arr, nil
}

// AsArrayN checks that v is an array of at least n elements.
func AsArrayN(v interface{}, n int) ([]interface{}, error) {
	arr, err := AsArray(v)
	if err != nil {
		return nil, err
	}
	if len(arr) < n {
		return nil, errors.Wrapf(ErrCast, "array of %d elements, %d required", len(arr), n)
	}
	return arr, nil
}

func AsInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int64:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return 0, errors.Wrapf(ErrCast, "%d overflows int", n)
		}
		return int(n), nil
	case uint64:
		return 0, errors.Wrapf(ErrCast, "%d overflows int", n)
	}
	return 0, errors.Wrapf(ErrCast, "%T to int", v)
}

// AsBytes returns nil for a nil value.
func AsBytes(v interface{}) ([]byte, error) {
	switch bs := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bs, nil
	case string:
		return []byte(bs), nil
	}
	return nil, errors.Wrapf(ErrCast, "%T to bytes", v)
}

func AsString(v interface{}) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	}
	return "", errors.Wrapf(ErrCast, "%T to string", v)
}

func AsBool(v interface{}) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, errors.Wrapf(ErrCast, "%T to bool", v)
	}
	return b, nil
}

// AsBigInt reads a two's-complement byte string. Native integers are accepted
// as well.
func AsBigInt(v interface{}) (*big.Int, error) {
	switch n := v.(type) {
	case []byte:
		return codec.FromSignedBytes(n), nil
	case int64:
		return big.NewInt(n), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	}
	return nil, errors.Wrapf(ErrCast, "%T to big integer", v)
}

// AsAddress returns nil for a nil value.
func AsAddress(v interface{}) (*types.Address, error) {
	if v == nil {
		return nil, nil
	}
	bs, ok := v.([]byte)
	if !ok {
		return nil, errors.Wrapf(ErrCast, "%T to address", v)
	}
	addr, err := types.NewAddress(bs)
	if err != nil {
		return nil, errors.Wrap(ErrCast, err.Error())
	}
	return addr, nil
}
