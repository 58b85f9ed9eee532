package codec

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	hex "github.com/tmthrgd/go-hex"
)

func TestRLPNIntegers(t *testing.T) {
	tests := []struct {
		v    int64
		want string
	}{
		{0, "00"},
		{1, "01"},
		{127, "7f"},
		{128, "820080"},
		{255, "8200ff"},
		{-1, "81ff"},
		{-128, "8180"},
		{-129, "82ff7f"},
		{0x7fffffff, "847fffffff"},
	}
	for _, tt := range tests {
		w := NewRLPNDataWriter()
		require.NoError(t, w.WriteLong(tt.v))
		assert.Equal(t, tt.want, hex.EncodeToString(w.Bytes()), "v=%d", tt.v)

		r := NewRLPNDataReader(w.Bytes())
		got, err := r.ReadLong()
		require.NoError(t, err)
		assert.Equal(t, tt.v, got)
	}
}

func TestRLPNBigIntegers(t *testing.T) {
	big1, _ := new(big.Int).SetString("80000000000000000000", 16)
	big2, _ := new(big.Int).SetString("-80000000000000000001", 16)
	for _, v := range []*big.Int{big1, big2, new(big.Int).Neg(big1), big.NewInt(0)} {
		w := NewRLPNDataWriter()
		require.NoError(t, w.WriteBigInteger(v))
		r := NewRLPNDataReader(w.Bytes())
		got, err := r.ReadBigInteger()
		require.NoError(t, err)
		assert.Equal(t, 0, v.Cmp(got), "want %s got %s", v, got)
	}
	// high bit set gets a zero pad byte
	assert.Equal(t, "0080000000000000000000", hex.EncodeToString(SignedBytes(big1)))
}

func TestRLPNNullity(t *testing.T) {
	w := NewRLPNDataWriter()
	require.NoError(t, w.WriteListHeader(3))
	require.NoError(t, w.WriteNullity(true))
	require.NoError(t, w.WriteNullity(false))
	require.NoError(t, w.WriteString("x"))
	require.NoError(t, w.WriteNullity(true))
	require.NoError(t, w.WriteFooter())
	assert.Equal(t, "c5f80078f800", hex.EncodeToString(w.Bytes()))

	r := NewRLPNDataReader(w.Bytes())
	require.NoError(t, r.ReadListHeader())
	null, err := r.ReadNullity()
	require.NoError(t, err)
	assert.True(t, null)
	null, err = r.ReadNullity()
	require.NoError(t, err)
	assert.False(t, null)
	s, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "x", s)
	require.NoError(t, r.Skip(1))
	assert.False(t, r.HasNext())
	require.NoError(t, r.ReadFooter())

	// the marker as a standalone stream
	r = NewRLPNDataReader([]byte{0xf8, 0x00})
	null, err = r.ReadNullity()
	require.NoError(t, err)
	assert.True(t, null)
	_, err = r.ReadNullity()
	assert.True(t, errors.Is(err, ErrTruncated))
}

func TestRLPNFloat(t *testing.T) {
	w := NewRLPNDataWriter()
	require.NoError(t, w.WriteFloat(-2.5))
	require.NoError(t, w.WriteDouble(3.25))
	r := NewRLPNDataReader(w.Bytes())
	f, err := r.ReadFloat()
	require.NoError(t, err)
	assert.Equal(t, float32(-2.5), f)
	d, err := r.ReadDouble()
	require.NoError(t, err)
	assert.Equal(t, 3.25, d)
}

func TestSignedBytes(t *testing.T) {
	tests := []struct {
		v    int64
		want string
	}{
		{0, "00"},
		{-1, "ff"},
		{127, "7f"},
		{128, "0080"},
		{-128, "80"},
		{-129, "ff7f"},
		{-32768, "8000"},
		{32768, "008000"},
	}
	for _, tt := range tests {
		bs := SignedBytes(big.NewInt(tt.v))
		assert.Equal(t, tt.want, hex.EncodeToString(bs))
		assert.Equal(t, tt.v, FromSignedBytes(bs).Int64())
	}
	assert.Equal(t, int64(0), FromSignedBytes(nil).Int64())
}
