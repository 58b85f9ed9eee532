package codec

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/big"

	"github.com/pkg/errors"
)

// rlpWriter is shared by RLP and RLPN. Open lists are buffered until their
// footer is written, because the header carries the payload length.
type rlpWriter struct {
	frames   []*bytes.Buffer
	total    int64
	nullable bool
	intBytes func(v *big.Int) ([]byte, error)
}

// NewRLPDataWriter returns a writer of strict RLP: unsigned integers and no
// nullity.
func NewRLPDataWriter() DataWriter {
	return &rlpWriter{
		frames:   []*bytes.Buffer{new(bytes.Buffer)},
		intBytes: UnsignedBytes,
	}
}

// NewRLPNDataWriter returns a writer of RLPN: signed integers and the
// f8 00 absence marker.
func NewRLPNDataWriter() DataWriter {
	return &rlpWriter{
		frames:   []*bytes.Buffer{new(bytes.Buffer)},
		nullable: true,
		intBytes: func(v *big.Int) ([]byte, error) {
			return SignedBytes(v), nil
		},
	}
}

func (w *rlpWriter) top() *bytes.Buffer {
	return w.frames[len(w.frames)-1]
}

// lengthBytes returns the minimal big-endian form of l.
func lengthBytes(l int) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(l))
	i := 0
	for i < 7 && b[i] == 0 {
		i++
	}
	return b[i:]
}

func writeRLPHeader(buf *bytes.Buffer, base byte, l int) error {
	if l <= 55 {
		buf.WriteByte(base + byte(l))
		return nil
	}
	lb := lengthBytes(l)
	if len(lb) > 4 {
		return errors.Wrapf(ErrUnsupported, "length %d too large", l)
	}
	buf.WriteByte(base + 55 + byte(len(lb)))
	buf.Write(lb)
	return nil
}

func (w *rlpWriter) writeRLPString(bs []byte) error {
	buf := w.top()
	n := buf.Len()
	if len(bs) == 1 && bs[0] < 0x80 {
		buf.WriteByte(bs[0])
	} else {
		if err := writeRLPHeader(buf, 0x80, len(bs)); err != nil {
			return err
		}
		buf.Write(bs)
	}
	w.total += int64(buf.Len() - n)
	return nil
}

func (w *rlpWriter) writeInteger(v *big.Int) error {
	bs, err := w.intBytes(v)
	if err != nil {
		return err
	}
	return w.writeRLPString(bs)
}

func (w *rlpWriter) WriteBool(v bool) error {
	if v {
		return w.writeInteger(big.NewInt(1))
	}
	return w.writeInteger(big.NewInt(0))
}

func (w *rlpWriter) WriteByte(v int8) error {
	return w.writeInteger(big.NewInt(int64(v)))
}

func (w *rlpWriter) WriteShort(v int16) error {
	return w.writeInteger(big.NewInt(int64(v)))
}

func (w *rlpWriter) WriteChar(v uint16) error {
	return w.writeInteger(big.NewInt(int64(v)))
}

func (w *rlpWriter) WriteInt(v int32) error {
	return w.writeInteger(big.NewInt(int64(v)))
}

func (w *rlpWriter) WriteLong(v int64) error {
	return w.writeInteger(big.NewInt(v))
}

func (w *rlpWriter) WriteFloat(v float32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], math.Float32bits(v))
	return w.writeRLPString(b[:])
}

func (w *rlpWriter) WriteDouble(v float64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	return w.writeRLPString(b[:])
}

func (w *rlpWriter) WriteBigInteger(v *big.Int) error {
	if v == nil {
		return errors.Wrap(ErrIllegalArgument, "nil big integer")
	}
	return w.writeInteger(v)
}

func (w *rlpWriter) WriteString(v string) error {
	return w.writeRLPString([]byte(v))
}

func (w *rlpWriter) WriteByteArray(v []byte) error {
	return w.writeRLPString(v)
}

func (w *rlpWriter) WriteNullity(null bool) error {
	if !w.nullable {
		return errors.Wrap(ErrUnsupported, "rlp has no nullity")
	}
	if null {
		w.top().Write([]byte{0xf8, 0x00})
		w.total += 2
	}
	return nil
}

func (w *rlpWriter) WriteListHeader(l int) error {
	w.frames = append(w.frames, new(bytes.Buffer))
	return nil
}

func (w *rlpWriter) WriteMapHeader(l int) error {
	return w.WriteListHeader(l)
}

func (w *rlpWriter) WriteFooter() error {
	if len(w.frames) < 2 {
		return errors.Wrap(ErrInvalidState, "footer without header")
	}
	body := w.top()
	w.frames = w.frames[:len(w.frames)-1]
	parent := w.top()
	n := parent.Len()
	if err := writeRLPHeader(parent, 0xc0, body.Len()); err != nil {
		return err
	}
	w.total += int64(parent.Len() - n)
	parent.Write(body.Bytes())
	return nil
}

func (w *rlpWriter) Flush() error {
	if len(w.frames) > 1 {
		return errors.Wrapf(ErrInvalidState, "%d frames open", len(w.frames)-1)
	}
	return nil
}

func (w *rlpWriter) Bytes() []byte {
	return w.frames[0].Bytes()
}

func (w *rlpWriter) TotalWrittenBytes() int64 {
	return w.total
}
