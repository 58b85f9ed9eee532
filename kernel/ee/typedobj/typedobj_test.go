package typedobj

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	hex "github.com/tmthrgd/go-hex"

	"github.com/xuperchain/eeproxy/kernel/ee/codec"
	"github.com/xuperchain/eeproxy/kernel/ee/types"
)

func mustAddress(t *testing.T, s string) *types.Address {
	a, err := types.ParseAddress(s)
	require.NoError(t, err)
	return a
}

func TestEncodeWireForm(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"nil", nil, "9200c0"},
		{"string", "hi", "9204a26869"},
		{"bytes", []byte{1}, "9203c40101"},
		{"true", true, "9205c40101"},
		{"false", false, "9205c40100"},
		{"int", 128, "920bc4020080"},
		{"negative int", big.NewInt(-1), "920bc401ff"},
		{"list", []interface{}{"a"}, "92029192" + "04a161"},
		{"dict", map[string]interface{}{"b": 1, "a": nil}, "920182a1619200c0a162920bc40101"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			to, err := Encode(tt.in)
			require.NoError(t, err)
			w := codec.NewMsgPackDataWriter()
			require.NoError(t, to.WriteTo(w))
			assert.Equal(t, tt.want, hex.EncodeToString(w.Bytes()))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	addr := mustAddress(t, "cx0000000000000000000000000000000000000004")
	inner := codec.NewOrderedMap()
	inner.Put("z", "last")
	inner.Put("a", []interface{}{addr, big.NewInt(-300), true})
	in := []interface{}{nil, inner, []byte("raw"), "text", false, uint16('c'), int8(-2)}

	to, err := Encode(in)
	require.NoError(t, err)

	check := func(t *testing.T, out interface{}) {
		list, ok := out.([]interface{})
		require.True(t, ok)
		require.Len(t, list, 7)
		assert.Nil(t, list[0])
		m, ok := list[1].(*codec.OrderedMap)
		require.True(t, ok)
		assert.Equal(t, []interface{}{"z", "a"}, m.Keys())
		a, _ := m.Get("a")
		al := a.([]interface{})
		assert.True(t, addr.Equal(al[0].(*types.Address)))
		assert.Equal(t, int64(-300), al[1].(*big.Int).Int64())
		assert.Equal(t, true, al[2])
		assert.Equal(t, []byte("raw"), list[2])
		assert.Equal(t, "text", list[3])
		assert.Equal(t, false, list[4])
		assert.Equal(t, int64('c'), list[5].(*big.Int).Int64())
		assert.Equal(t, int64(-2), list[6].(*big.Int).Int64())
	}

	t.Run("msgpack value tree", func(t *testing.T) {
		w := codec.NewMsgPackDataWriter()
		require.NoError(t, to.WriteTo(w))
		v, err := codec.NewMsgPackDataReader(w.Bytes()).ReadValue()
		require.NoError(t, err)
		out, err := DecodeAny(v)
		require.NoError(t, err)
		check(t, out)
	})
	for _, name := range []string{codec.NameMsgPack, codec.NameRLPN, codec.NameRLP} {
		t.Run(name, func(t *testing.T) {
			w, err := codec.New(name)
			require.NoError(t, err)
			require.NoError(t, to.WriteTo(w))
			r, err := codec.NewReader(name, w.Bytes())
			require.NoError(t, err)
			out, err := ReadAny(r)
			require.NoError(t, err)
			check(t, out)
			assert.False(t, r.HasNext())
		})
	}
}

func TestEncodeUnsupported(t *testing.T) {
	_, err := Encode(struct{}{})
	assert.True(t, errors.Is(err, ErrUnsupportedType))
	_, err = Encode([]interface{}{"ok", 1.5})
	assert.True(t, errors.Is(err, ErrUnsupportedType))

	m := codec.NewOrderedMap()
	m.Put(1, "int key")
	_, err = Encode(m)
	assert.True(t, errors.Is(err, ErrUnsupportedType))
}

func TestDecodeErrors(t *testing.T) {
	_, err := DecodeAny([]interface{}{int64(7), nil})
	assert.True(t, errors.Is(err, ErrUnknownTag))
	_, err = DecodeAny([]interface{}{int64(TagList), "x"})
	assert.True(t, errors.Is(err, ErrInvalidFormat))
	_, err = DecodeAny("x")
	assert.True(t, errors.Is(err, ErrInvalidFormat))
	_, err = DecodeAny([]interface{}{int64(TagAddress), []byte{1, 2}})
	assert.True(t, errors.Is(err, types.ErrInvalidAddress))

	v, err := DecodeAny([]interface{}{int64(TagBytes), nil})
	require.NoError(t, err)
	assert.Nil(t, v)

	w := codec.NewMsgPackDataWriter()
	require.NoError(t, w.WriteListHeader(2))
	require.NoError(t, w.WriteInt(99))
	require.NoError(t, w.WriteNullity(true))
	require.NoError(t, w.WriteFooter())
	_, err = ReadAny(codec.NewMsgPackDataReader(w.Bytes()))
	assert.True(t, errors.Is(err, ErrUnknownTag))
}
