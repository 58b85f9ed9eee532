package codec

import (
	"bytes"
	"errors"
	"math"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	hex "github.com/tmthrgd/go-hex"
)

func zeros(n int) []byte {
	return make([]byte, n)
}

func hexZeros(prefix string, n int) string {
	return prefix + strings.Repeat("00", n)
}

func TestRLPScalars(t *testing.T) {
	tests := []struct {
		name  string
		write func(w DataWriter) error
		want  string
	}{
		{"bool false", func(w DataWriter) error { return w.WriteBool(false) }, "80"},
		{"bool true", func(w DataWriter) error { return w.WriteBool(true) }, "01"},
		{"zero", func(w DataWriter) error { return w.WriteInt(0) }, "80"},
		{"byte 0x7f", func(w DataWriter) error { return w.WriteByte(0x7f) }, "7f"},
		{"short 0x80", func(w DataWriter) error { return w.WriteShort(0x80) }, "8180"},
		{"char", func(w DataWriter) error { return w.WriteChar(0xffff) }, "82ffff"},
		{"int max", func(w DataWriter) error { return w.WriteInt(math.MaxInt32) }, "847fffffff"},
		{"long", func(w DataWriter) error { return w.WriteLong(0x0102030405060708) }, "880102030405060708"},
		{"float", func(w DataWriter) error { return w.WriteFloat(1) }, "843f800000"},
		{"double", func(w DataWriter) error {
			return w.WriteDouble(math.Float64frombits(0x0102030405060708))
		}, "880102030405060708"},
		{"empty string", func(w DataWriter) error { return w.WriteString("") }, "80"},
		{"byte string 00", func(w DataWriter) error { return w.WriteByteArray([]byte{0}) }, "00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewRLPDataWriter()
			require.NoError(t, tt.write(w))
			assert.Equal(t, tt.want, hex.EncodeToString(w.Bytes()))
			assert.Equal(t, int64(len(tt.want)/2), w.TotalWrittenBytes())
		})
	}
}

func TestRLPRejectsNegativeAndNullity(t *testing.T) {
	w := NewRLPDataWriter()
	assert.True(t, errors.Is(w.WriteByte(-128), ErrIllegalArgument))
	assert.True(t, errors.Is(w.WriteLong(-1), ErrIllegalArgument))
	assert.True(t, errors.Is(w.WriteBigInteger(big.NewInt(-255)), ErrIllegalArgument))
	assert.True(t, errors.Is(w.WriteNullity(true), ErrUnsupported))
	assert.True(t, errors.Is(w.WriteNullity(false), ErrUnsupported))
	assert.Empty(t, w.Bytes())

	r := NewRLPDataReader([]byte{0x80})
	_, err := r.ReadNullity()
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestRLPByteStringLengths(t *testing.T) {
	tests := []struct {
		n      int
		prefix string
	}{
		{0, "80"},
		{55, "b7"},
		{56, "b838"},
		{255, "b8ff"},
		{256, "b90100"},
		{65535, "b9ffff"},
		{65536, "ba010000"},
		{1<<24 - 1, "baffffff"},
		{1 << 24, "bb01000000"},
	}
	for _, tt := range tests {
		w := NewRLPDataWriter()
		require.NoError(t, w.WriteByteArray(zeros(tt.n)))
		want := hexZeros(tt.prefix, tt.n)
		assert.Equal(t, want, hex.EncodeToString(w.Bytes()), "len=%d", tt.n)

		ethBytes, err := rlp.EncodeToBytes(zeros(tt.n))
		require.NoError(t, err)
		assert.True(t, bytes.Equal(ethBytes, w.Bytes()), "len=%d", tt.n)

		r := NewRLPDataReader(w.Bytes())
		got, err := r.ReadByteArray()
		require.NoError(t, err)
		assert.Len(t, got, tt.n)
		assert.False(t, r.HasNext())
		assert.Equal(t, int64(len(want)/2), r.TotalReadBytes())
	}
}

func TestRLPLists(t *testing.T) {
	list := func(w DataWriter, items ...[]byte) {
		require.NoError(t, w.WriteListHeader(len(items)))
		for _, it := range items {
			require.NoError(t, w.WriteByteArray(it))
		}
		require.NoError(t, w.WriteFooter())
	}
	tests := []struct {
		name  string
		items [][]byte
		want  string
	}{
		{"empty", nil, "c0"},
		{"single zero", [][]byte{{0}}, "c100"},
		{"two byte string", [][]byte{{0, 0}}, "c3820000"},
		{"54 bytes", [][]byte{zeros(54)}, hexZeros("f7b6", 54)},
		{"55 bytes", [][]byte{zeros(55)}, hexZeros("f838b7", 55)},
		{"254 bytes", [][]byte{zeros(254)}, hexZeros("f90100b8fe", 254)},
		{"65536 bytes", [][]byte{zeros(65536)}, hexZeros("fa010004ba010000", 65536)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewRLPDataWriter()
			list(w, tt.items...)
			require.NoError(t, w.Flush())
			assert.Equal(t, tt.want, hex.EncodeToString(w.Bytes()))
			assert.Equal(t, int64(len(tt.want)/2), w.TotalWrittenBytes())

			items := tt.items
			if items == nil {
				items = [][]byte{}
			}
			ethBytes, err := rlp.EncodeToBytes(items)
			require.NoError(t, err)
			assert.Equal(t, hex.EncodeToString(ethBytes), hex.EncodeToString(w.Bytes()))

			r := NewRLPDataReader(w.Bytes())
			require.NoError(t, r.ReadListHeader())
			for _, it := range tt.items {
				assert.True(t, r.HasNext())
				got, err := r.ReadByteArray()
				require.NoError(t, err)
				assert.Equal(t, it, got)
			}
			assert.False(t, r.HasNext())
			require.NoError(t, r.ReadFooter())
			assert.False(t, r.HasNext())
		})
	}
}

func TestRLPNestedRoundTrip(t *testing.T) {
	for _, name := range []string{NameRLP, NameRLPN, NameMsgPack} {
		t.Run(name, func(t *testing.T) {
			w, err := New(name)
			require.NoError(t, err)
			require.NoError(t, w.WriteListHeader(4))
			require.NoError(t, w.WriteString("hello"))
			require.NoError(t, w.WriteListHeader(2))
			require.NoError(t, w.WriteLong(1<<40))
			require.NoError(t, w.WriteBool(true))
			require.NoError(t, w.WriteFooter())
			require.NoError(t, w.WriteMapHeader(1))
			require.NoError(t, w.WriteString("k"))
			require.NoError(t, w.WriteDouble(1.5))
			require.NoError(t, w.WriteFooter())
			require.NoError(t, w.WriteChar('A'))
			require.NoError(t, w.WriteFooter())
			require.NoError(t, w.Flush())

			r, err := NewReader(name, w.Bytes())
			require.NoError(t, err)
			require.NoError(t, r.ReadListHeader())
			s, err := r.ReadString()
			require.NoError(t, err)
			assert.Equal(t, "hello", s)
			require.NoError(t, r.ReadListHeader())
			l, err := r.ReadLong()
			require.NoError(t, err)
			assert.Equal(t, int64(1<<40), l)
			b, err := r.ReadBool()
			require.NoError(t, err)
			assert.True(t, b)
			assert.False(t, r.HasNext())
			require.NoError(t, r.ReadFooter())
			require.NoError(t, r.ReadMapHeader())
			k, err := r.ReadString()
			require.NoError(t, err)
			assert.Equal(t, "k", k)
			d, err := r.ReadDouble()
			require.NoError(t, err)
			assert.Equal(t, 1.5, d)
			require.NoError(t, r.ReadFooter())
			c, err := r.ReadChar()
			require.NoError(t, err)
			assert.Equal(t, uint16('A'), c)
			require.NoError(t, r.ReadFooter())
			assert.Equal(t, int64(len(w.Bytes())), r.TotalReadBytes())
		})
	}
}

func TestRLPReadFooterSkipsRest(t *testing.T) {
	for _, name := range []string{NameRLP, NameRLPN, NameMsgPack} {
		w, err := New(name)
		require.NoError(t, err)
		require.NoError(t, w.WriteListHeader(2))
		require.NoError(t, w.WriteListHeader(3))
		require.NoError(t, w.WriteInt(1))
		require.NoError(t, w.WriteInt(2))
		require.NoError(t, w.WriteInt(3))
		require.NoError(t, w.WriteFooter())
		require.NoError(t, w.WriteString("after"))
		require.NoError(t, w.WriteFooter())

		r, err := NewReader(name, w.Bytes())
		require.NoError(t, err)
		require.NoError(t, r.ReadListHeader())
		require.NoError(t, r.ReadListHeader())
		v, err := r.ReadInt()
		require.NoError(t, err)
		assert.Equal(t, int32(1), v)
		require.NoError(t, r.ReadFooter(), name)
		s, err := r.ReadString()
		require.NoError(t, err, name)
		assert.Equal(t, "after", s)
		require.NoError(t, r.Skip(0))
		require.NoError(t, r.ReadFooter())
	}
}

func TestRLPMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
		err  error
	}{
		{"empty input", "", ErrTruncated},
		{"short string", "8300", ErrTruncated},
		{"short length prefix", "b9", ErrTruncated},
		{"long length too large", "bc0100000000", ErrUnsupported},
		{"list where string expected", "c0", ErrInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bs, err := hex.DecodeString(tt.data)
			require.NoError(t, err)
			r := NewRLPDataReader(bs)
			_, err = r.ReadByteArray()
			assert.True(t, errors.Is(err, tt.err), "got %v", err)
		})
	}

	r := NewRLPDataReader([]byte{0x83, 0x01})
	assert.True(t, errors.Is(r.ReadListHeader(), ErrTruncated))

	r = NewRLPDataReader([]byte{0x82, 0x01, 0x02})
	_, err := r.ReadFloat()
	assert.True(t, errors.Is(err, ErrInvalidFormat))

	// child extends beyond its list
	r = NewRLPDataReader([]byte{0xc2, 0x82, 0x01, 0x02})
	require.NoError(t, r.ReadListHeader())
	_, err = r.ReadByteArray()
	assert.True(t, errors.Is(err, ErrTruncated))
}

func TestRLPReadRange(t *testing.T) {
	w := NewRLPDataWriter()
	require.NoError(t, w.WriteLong(0x80))
	r := NewRLPDataReader(w.Bytes())
	_, err := r.ReadByte()
	assert.True(t, errors.Is(err, ErrOutOfRange))

	w = NewRLPDataWriter()
	require.NoError(t, w.WriteChar(0xffff))
	r = NewRLPDataReader(w.Bytes())
	c, err := r.ReadChar()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xffff), c)
}

func TestRLPFooterWithoutHeader(t *testing.T) {
	w := NewRLPDataWriter()
	assert.True(t, errors.Is(w.WriteFooter(), ErrInvalidState))
	require.NoError(t, w.WriteListHeader(0))
	assert.True(t, errors.Is(w.Flush(), ErrInvalidState))

	r := NewRLPDataReader([]byte{0xc0})
	assert.True(t, errors.Is(r.ReadFooter(), ErrInvalidState))
}
