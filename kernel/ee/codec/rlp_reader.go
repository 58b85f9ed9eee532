package codec

import (
	"encoding/binary"
	"math"
	"math/big"

	"github.com/pkg/errors"
)

type rlpItem struct {
	offset int // payload start
	length int // payload length
	list   bool
}

func (it rlpItem) end() int {
	return it.offset + it.length
}

// rlpReader is shared by RLP and RLPN. Each open frame is the end offset of
// the list payload.
type rlpReader struct {
	data     []byte
	pos      int
	frames   []int
	nullable bool
	toBigInt func(bs []byte) *big.Int
}

// NewRLPDataReader returns a reader of strict RLP.
func NewRLPDataReader(bs []byte) DataReader {
	return newRLPReader(bs, false, fromUnsignedBytes)
}

// NewRLPNDataReader returns a reader of RLPN.
func NewRLPNDataReader(bs []byte) DataReader {
	return newRLPReader(bs, true, FromSignedBytes)
}

func newRLPReader(bs []byte, nullable bool, toBigInt func([]byte) *big.Int) *rlpReader {
	return &rlpReader{
		data:     bs,
		frames:   []int{len(bs)},
		nullable: nullable,
		toBigInt: toBigInt,
	}
}

func (r *rlpReader) limit() int {
	return r.frames[len(r.frames)-1]
}

func (r *rlpReader) isNullMarker() bool {
	return r.nullable && r.pos+1 < r.limit() && r.data[r.pos] == 0xf8 && r.data[r.pos+1] == 0x00
}

// peekItem decodes the header at the current position without consuming it.
func (r *rlpReader) peekItem() (rlpItem, error) {
	limit := r.limit()
	if r.pos >= limit {
		return rlpItem{}, errors.Wrapf(ErrTruncated, "no element at offset %d", r.pos)
	}
	b := r.data[r.pos]
	var it rlpItem
	switch {
	case b < 0x80:
		return rlpItem{offset: r.pos, length: 1}, nil
	case b <= 0xb7:
		it = rlpItem{offset: r.pos + 1, length: int(b - 0x80)}
	case b < 0xc0:
		l, err := r.readLength(int(b - 0xb7))
		if err != nil {
			return rlpItem{}, err
		}
		it = rlpItem{offset: r.pos + 1 + int(b-0xb7), length: l}
	case b <= 0xf7:
		it = rlpItem{offset: r.pos + 1, length: int(b - 0xc0), list: true}
	default:
		l, err := r.readLength(int(b - 0xf7))
		if err != nil {
			return rlpItem{}, err
		}
		it = rlpItem{offset: r.pos + 1 + int(b-0xf7), length: l, list: true}
	}
	if it.end() > limit {
		return rlpItem{}, errors.Wrapf(ErrTruncated, "element at %d needs %d bytes, %d available",
			r.pos, it.end()-r.pos, limit-r.pos)
	}
	return it, nil
}

func (r *rlpReader) readLength(k int) (int, error) {
	if k > 4 {
		return 0, errors.Wrapf(ErrUnsupported, "length of %d bytes at offset %d", k, r.pos)
	}
	if r.pos+1+k > r.limit() {
		return 0, errors.Wrapf(ErrTruncated, "length prefix at offset %d", r.pos)
	}
	var b [8]byte
	copy(b[8-k:], r.data[r.pos+1:r.pos+1+k])
	return int(binary.BigEndian.Uint64(b[:])), nil
}

func (r *rlpReader) readRLPString() ([]byte, error) {
	it, err := r.peekItem()
	if err != nil {
		return nil, err
	}
	if it.list {
		return nil, errors.Wrapf(ErrInvalidFormat, "list at offset %d, byte string expected", r.pos)
	}
	r.pos = it.end()
	return r.data[it.offset:it.end()], nil
}

func (r *rlpReader) readInteger(min, max int64) (int64, error) {
	v, err := r.ReadBigInteger()
	if err != nil {
		return 0, err
	}
	return toInt64(v, min, max)
}

func (r *rlpReader) ReadBool() (bool, error) {
	v, err := r.ReadBigInteger()
	if err != nil {
		return false, err
	}
	return v.Sign() != 0, nil
}

func (r *rlpReader) ReadByte() (int8, error) {
	v, err := r.readInteger(math.MinInt8, math.MaxInt8)
	return int8(v), err
}

func (r *rlpReader) ReadShort() (int16, error) {
	v, err := r.readInteger(math.MinInt16, math.MaxInt16)
	return int16(v), err
}

func (r *rlpReader) ReadChar() (uint16, error) {
	v, err := r.readInteger(0, math.MaxUint16)
	return uint16(v), err
}

func (r *rlpReader) ReadInt() (int32, error) {
	v, err := r.readInteger(math.MinInt32, math.MaxInt32)
	return int32(v), err
}

func (r *rlpReader) ReadLong() (int64, error) {
	return r.readInteger(math.MinInt64, math.MaxInt64)
}

func (r *rlpReader) ReadFloat() (float32, error) {
	bs, err := r.readRLPString()
	if err != nil {
		return 0, err
	}
	if len(bs) != 4 {
		return 0, errors.Wrapf(ErrInvalidFormat, "float of %d bytes", len(bs))
	}
	return math.Float32frombits(binary.BigEndian.Uint32(bs)), nil
}

func (r *rlpReader) ReadDouble() (float64, error) {
	bs, err := r.readRLPString()
	if err != nil {
		return 0, err
	}
	if len(bs) != 8 {
		return 0, errors.Wrapf(ErrInvalidFormat, "double of %d bytes", len(bs))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(bs)), nil
}

func (r *rlpReader) ReadBigInteger() (*big.Int, error) {
	bs, err := r.readRLPString()
	if err != nil {
		return nil, err
	}
	return r.toBigInt(bs), nil
}

func (r *rlpReader) ReadString() (string, error) {
	bs, err := r.readRLPString()
	if err != nil {
		return "", err
	}
	return string(bs), nil
}

func (r *rlpReader) ReadByteArray() ([]byte, error) {
	bs, err := r.readRLPString()
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(bs))
	copy(out, bs)
	return out, nil
}

func (r *rlpReader) ReadNullity() (bool, error) {
	if !r.nullable {
		return false, errors.Wrap(ErrUnsupported, "rlp has no nullity")
	}
	if r.pos >= r.limit() {
		return false, errors.Wrapf(ErrTruncated, "no element at offset %d", r.pos)
	}
	if r.isNullMarker() {
		r.pos += 2
		return true, nil
	}
	return false, nil
}

func (r *rlpReader) ReadListHeader() error {
	it, err := r.peekItem()
	if err != nil {
		return err
	}
	if !it.list {
		return errors.Wrapf(ErrInvalidFormat, "byte string at offset %d, list expected", r.pos)
	}
	r.pos = it.offset
	r.frames = append(r.frames, it.end())
	return nil
}

func (r *rlpReader) ReadMapHeader() error {
	return r.ReadListHeader()
}

func (r *rlpReader) HasNext() bool {
	return r.pos < r.limit()
}

func (r *rlpReader) ReadFooter() error {
	if len(r.frames) < 2 {
		return errors.Wrap(ErrInvalidState, "footer without header")
	}
	r.pos = r.limit()
	r.frames = r.frames[:len(r.frames)-1]
	return nil
}

func (r *rlpReader) Skip(count int) error {
	for i := 0; i < count; i++ {
		if r.isNullMarker() {
			r.pos += 2
			continue
		}
		it, err := r.peekItem()
		if err != nil {
			return err
		}
		r.pos = it.end()
	}
	return nil
}

func (r *rlpReader) TotalReadBytes() int64 {
	return int64(r.pos)
}
