package codec

import (
	"bufio"
	"bytes"
	"io"
	"math"
	"math/big"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

type msgpackWriteFrame struct {
	declared int
	written  int
}

// MsgPackDataWriter adapts a msgpack encoder to DataWriter. Every frame
// records its declared element count; WriteFooter fails on a mismatch.
type MsgPackDataWriter struct {
	buf    *bytes.Buffer
	enc    *msgpack.Encoder
	frames []*msgpackWriteFrame
}

func NewMsgPackDataWriter() *MsgPackDataWriter {
	buf := new(bytes.Buffer)
	return &MsgPackDataWriter{
		buf: buf,
		enc: msgpack.NewEncoder(buf),
	}
}

// element accounts one element in the innermost frame.
func (w *MsgPackDataWriter) element() error {
	if len(w.frames) == 0 {
		return nil
	}
	f := w.frames[len(w.frames)-1]
	if f.written >= f.declared {
		return errors.Wrapf(ErrFrameMismatch, "frame declared %d elements", f.declared)
	}
	f.written++
	return nil
}

func (w *MsgPackDataWriter) WriteBool(v bool) error {
	if err := w.element(); err != nil {
		return err
	}
	return w.enc.EncodeBool(v)
}

func (w *MsgPackDataWriter) WriteByte(v int8) error {
	return w.WriteLong(int64(v))
}

func (w *MsgPackDataWriter) WriteShort(v int16) error {
	return w.WriteLong(int64(v))
}

func (w *MsgPackDataWriter) WriteChar(v uint16) error {
	if err := w.element(); err != nil {
		return err
	}
	return w.enc.EncodeUint(uint64(v))
}

func (w *MsgPackDataWriter) WriteInt(v int32) error {
	return w.WriteLong(int64(v))
}

func (w *MsgPackDataWriter) WriteLong(v int64) error {
	if err := w.element(); err != nil {
		return err
	}
	return w.enc.EncodeInt(v)
}

func (w *MsgPackDataWriter) WriteFloat(v float32) error {
	if err := w.element(); err != nil {
		return err
	}
	return w.enc.EncodeFloat32(v)
}

func (w *MsgPackDataWriter) WriteDouble(v float64) error {
	if err := w.element(); err != nil {
		return err
	}
	return w.enc.EncodeFloat64(v)
}

// WriteBigInteger writes v as bin of its two's-complement bytes.
func (w *MsgPackDataWriter) WriteBigInteger(v *big.Int) error {
	if v == nil {
		return errors.Wrap(ErrIllegalArgument, "nil big integer")
	}
	return w.WriteByteArray(SignedBytes(v))
}

func (w *MsgPackDataWriter) WriteString(v string) error {
	if err := w.element(); err != nil {
		return err
	}
	return w.enc.EncodeString(v)
}

// WriteByteArray always writes bin; a nil slice is an empty bin, not nil.
func (w *MsgPackDataWriter) WriteByteArray(v []byte) error {
	if err := w.element(); err != nil {
		return err
	}
	if v == nil {
		v = []byte{}
	}
	return w.enc.EncodeBytes(v)
}

func (w *MsgPackDataWriter) WriteNullity(null bool) error {
	if !null {
		return nil
	}
	if err := w.element(); err != nil {
		return err
	}
	return w.enc.EncodeNil()
}

func (w *MsgPackDataWriter) WriteListHeader(l int) error {
	if err := w.element(); err != nil {
		return err
	}
	if err := w.enc.EncodeArrayLen(l); err != nil {
		return err
	}
	w.frames = append(w.frames, &msgpackWriteFrame{declared: l})
	return nil
}

// WriteMapHeader opens a map of l entries, that is 2*l elements.
func (w *MsgPackDataWriter) WriteMapHeader(l int) error {
	if err := w.element(); err != nil {
		return err
	}
	if err := w.enc.EncodeMapLen(l); err != nil {
		return err
	}
	w.frames = append(w.frames, &msgpackWriteFrame{declared: l * 2})
	return nil
}

func (w *MsgPackDataWriter) WriteFooter() error {
	if len(w.frames) == 0 {
		return errors.Wrap(ErrInvalidState, "footer without header")
	}
	f := w.frames[len(w.frames)-1]
	w.frames = w.frames[:len(w.frames)-1]
	if f.written != f.declared {
		return errors.Wrapf(ErrFrameMismatch, "declared %d elements, wrote %d", f.declared, f.written)
	}
	return nil
}

func (w *MsgPackDataWriter) Flush() error {
	if len(w.frames) > 0 {
		return errors.Wrapf(ErrInvalidState, "%d frames open", len(w.frames))
	}
	return nil
}

func (w *MsgPackDataWriter) Bytes() []byte {
	return w.buf.Bytes()
}

func (w *MsgPackDataWriter) TotalWrittenBytes() int64 {
	return int64(w.buf.Len())
}

// countingReader counts bytes handed to the decoder.
type countingReader struct {
	r *bufio.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

func (c *countingReader) UnreadByte() error {
	err := c.r.UnreadByte()
	if err == nil {
		c.n--
	}
	return err
}

// MsgPackDataReader adapts a msgpack decoder to DataReader. Frames track the
// remaining element count; the top level is unbounded.
type MsgPackDataReader struct {
	src    *countingReader
	dec    *msgpack.Decoder
	frames []int
}

func NewMsgPackDataReader(bs []byte) *MsgPackDataReader {
	return NewMsgPackStreamReader(bytes.NewReader(bs))
}

// NewMsgPackStreamReader reads msgpack values from a byte stream, such as a
// connection.
func NewMsgPackStreamReader(r io.Reader) *MsgPackDataReader {
	src := &countingReader{r: bufio.NewReader(r)}
	return &MsgPackDataReader{
		src: src,
		dec: msgpack.NewDecoder(src),
	}
}

func (r *MsgPackDataReader) element() error {
	if len(r.frames) == 0 {
		return nil
	}
	i := len(r.frames) - 1
	if r.frames[i] <= 0 {
		return errors.Wrap(ErrTruncated, "no more elements in frame")
	}
	r.frames[i]--
	return nil
}

func wrapDecodeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Wrap(ErrTruncated, err.Error())
	}
	return errors.Wrap(ErrInvalidFormat, err.Error())
}

func (r *MsgPackDataReader) ReadBool() (bool, error) {
	if err := r.element(); err != nil {
		return false, err
	}
	v, err := r.dec.DecodeBool()
	return v, wrapDecodeErr(err)
}

func (r *MsgPackDataReader) readInteger(min, max int64) (int64, error) {
	v, err := r.ReadBigInteger()
	if err != nil {
		return 0, err
	}
	return toInt64(v, min, max)
}

func (r *MsgPackDataReader) ReadByte() (int8, error) {
	v, err := r.readInteger(math.MinInt8, math.MaxInt8)
	return int8(v), err
}

func (r *MsgPackDataReader) ReadShort() (int16, error) {
	v, err := r.readInteger(math.MinInt16, math.MaxInt16)
	return int16(v), err
}

func (r *MsgPackDataReader) ReadChar() (uint16, error) {
	v, err := r.readInteger(0, math.MaxUint16)
	return uint16(v), err
}

func (r *MsgPackDataReader) ReadInt() (int32, error) {
	v, err := r.readInteger(math.MinInt32, math.MaxInt32)
	return int32(v), err
}

func (r *MsgPackDataReader) ReadLong() (int64, error) {
	return r.readInteger(math.MinInt64, math.MaxInt64)
}

func (r *MsgPackDataReader) ReadFloat() (float32, error) {
	if err := r.element(); err != nil {
		return 0, err
	}
	v, err := r.dec.DecodeFloat32()
	return v, wrapDecodeErr(err)
}

func (r *MsgPackDataReader) ReadDouble() (float64, error) {
	if err := r.element(); err != nil {
		return 0, err
	}
	v, err := r.dec.DecodeFloat64()
	return v, wrapDecodeErr(err)
}

// ReadBigInteger accepts native integers as well as two's-complement bin.
func (r *MsgPackDataReader) ReadBigInteger() (*big.Int, error) {
	if err := r.element(); err != nil {
		return nil, err
	}
	c, err := r.dec.PeekCode()
	if err != nil {
		return nil, wrapDecodeErr(err)
	}
	switch {
	case isUintCode(c):
		v, err := r.dec.DecodeUint64()
		if err != nil {
			return nil, wrapDecodeErr(err)
		}
		return new(big.Int).SetUint64(v), nil
	case msgpcode.IsFixedNum(c) || isIntCode(c):
		v, err := r.dec.DecodeInt64()
		if err != nil {
			return nil, wrapDecodeErr(err)
		}
		return big.NewInt(v), nil
	}
	bs, err := r.dec.DecodeBytes()
	if err != nil {
		return nil, wrapDecodeErr(err)
	}
	return FromSignedBytes(bs), nil
}

func (r *MsgPackDataReader) ReadString() (string, error) {
	if err := r.element(); err != nil {
		return "", err
	}
	v, err := r.dec.DecodeString()
	return v, wrapDecodeErr(err)
}

func (r *MsgPackDataReader) ReadByteArray() ([]byte, error) {
	if err := r.element(); err != nil {
		return nil, err
	}
	v, err := r.dec.DecodeBytes()
	return v, wrapDecodeErr(err)
}

func (r *MsgPackDataReader) ReadNullity() (bool, error) {
	c, err := r.dec.PeekCode()
	if err != nil {
		return false, wrapDecodeErr(err)
	}
	if c != msgpcode.Nil {
		return false, nil
	}
	if err := r.element(); err != nil {
		return false, err
	}
	return true, wrapDecodeErr(r.dec.DecodeNil())
}

func (r *MsgPackDataReader) ReadListHeader() error {
	if err := r.element(); err != nil {
		return err
	}
	n, err := r.dec.DecodeArrayLen()
	if err != nil {
		return wrapDecodeErr(err)
	}
	if n < 0 {
		return errors.Wrap(ErrInvalidFormat, "nil where array expected")
	}
	r.frames = append(r.frames, n)
	return nil
}

func (r *MsgPackDataReader) ReadMapHeader() error {
	if err := r.element(); err != nil {
		return err
	}
	n, err := r.dec.DecodeMapLen()
	if err != nil {
		return wrapDecodeErr(err)
	}
	if n < 0 {
		return errors.Wrap(ErrInvalidFormat, "nil where map expected")
	}
	r.frames = append(r.frames, n*2)
	return nil
}

func (r *MsgPackDataReader) HasNext() bool {
	if len(r.frames) > 0 {
		return r.frames[len(r.frames)-1] > 0
	}
	_, err := r.src.r.Peek(1)
	return err == nil
}

func (r *MsgPackDataReader) ReadFooter() error {
	if len(r.frames) == 0 {
		return errors.Wrap(ErrInvalidState, "footer without header")
	}
	if err := r.Skip(r.frames[len(r.frames)-1]); err != nil {
		return err
	}
	r.frames = r.frames[:len(r.frames)-1]
	return nil
}

func (r *MsgPackDataReader) Skip(count int) error {
	for i := 0; i < count; i++ {
		if err := r.element(); err != nil {
			return err
		}
		if err := r.dec.Skip(); err != nil {
			return wrapDecodeErr(err)
		}
	}
	return nil
}

func (r *MsgPackDataReader) TotalReadBytes() int64 {
	return r.src.n
}

// ReadValue decodes one complete value into nil, bool, int64, uint64 (above
// MaxInt64 only), float64, string, []byte, []interface{} or *OrderedMap.
func (r *MsgPackDataReader) ReadValue() (interface{}, error) {
	if err := r.element(); err != nil {
		return nil, err
	}
	v, err := r.readValue(0)
	return v, wrapDecodeErr(err)
}

const (
	// maxValueDepth bounds array/map nesting accepted by ReadValue.
	maxValueDepth = 64
	// maxPrealloc caps capacity taken from a peer supplied array length.
	maxPrealloc = 1024
)

func (r *MsgPackDataReader) readValue(depth int) (interface{}, error) {
	if depth > maxValueDepth {
		return nil, errors.Wrapf(ErrInvalidFormat, "nesting deeper than %d", maxValueDepth)
	}
	c, err := r.dec.PeekCode()
	if err != nil {
		return nil, err
	}
	switch {
	case c == msgpcode.Nil:
		return nil, r.dec.DecodeNil()
	case c == msgpcode.False || c == msgpcode.True:
		return r.dec.DecodeBool()
	case msgpcode.IsFixedNum(c) || isIntCode(c):
		return r.dec.DecodeInt64()
	case isUintCode(c):
		u, err := r.dec.DecodeUint64()
		if err != nil {
			return nil, err
		}
		if u <= math.MaxInt64 {
			return int64(u), nil
		}
		return u, nil
	case c == msgpcode.Float || c == msgpcode.Double:
		return r.dec.DecodeFloat64()
	case msgpcode.IsString(c):
		return r.dec.DecodeString()
	case msgpcode.IsBin(c):
		return r.dec.DecodeBytes()
	case msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32:
		n, err := r.dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		capacity := n
		if capacity > maxPrealloc {
			capacity = maxPrealloc
		}
		list := make([]interface{}, 0, capacity)
		for i := 0; i < n; i++ {
			v, err := r.readValue(depth + 1)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case msgpcode.IsFixedMap(c) || c == msgpcode.Map16 || c == msgpcode.Map32:
		n, err := r.dec.DecodeMapLen()
		if err != nil {
			return nil, err
		}
		m := NewOrderedMap()
		for i := 0; i < n; i++ {
			k, err := r.readValue(depth + 1)
			if err != nil {
				return nil, err
			}
			v, err := r.readValue(depth + 1)
			if err != nil {
				return nil, err
			}
			if bs, ok := k.([]byte); ok {
				k = string(bs)
			}
			switch k.(type) {
			case []interface{}, *OrderedMap:
				return nil, errors.Errorf("unsupported map key type %T", k)
			}
			m.Put(k, v)
		}
		return m, nil
	}
	return nil, errors.Errorf("unsupported msgpack code 0x%02x", c)
}

func isIntCode(c byte) bool {
	return c == msgpcode.Int8 || c == msgpcode.Int16 || c == msgpcode.Int32 || c == msgpcode.Int64
}

func isUintCode(c byte) bool {
	return c == msgpcode.Uint8 || c == msgpcode.Uint16 || c == msgpcode.Uint32 || c == msgpcode.Uint64
}
