// Package codec implements the binary primitive codecs shared by the engine
// proxy: RLP, RLPN (RLP with nullity and signed integers) and a msgpack
// adapter. All of them implement DataWriter and DataReader.
package codec

import (
	"math/big"

	"github.com/pkg/errors"
)

const (
	NameRLP     = "rlp"
	NameRLPN    = "rlpn"
	NameMsgPack = "msgpack"
)

var (
	ErrIllegalArgument = errors.New("codec: illegal argument")
	ErrUnsupported     = errors.New("codec: unsupported operation")
	ErrInvalidFormat   = errors.New("codec: invalid format")
	ErrTruncated       = errors.New("codec: truncated data")
	ErrInvalidState    = errors.New("codec: invalid state")
	ErrFrameMismatch   = errors.New("codec: frame length mismatch")
	ErrOutOfRange      = errors.New("codec: value out of range")
	ErrUnknownCodec    = errors.New("codec: unknown codec")
)

// DataWriter writes primitive values and list/map frames.
type DataWriter interface {
	WriteBool(v bool) error
	WriteByte(v int8) error
	WriteShort(v int16) error
	WriteChar(v uint16) error
	WriteInt(v int32) error
	WriteLong(v int64) error
	WriteFloat(v float32) error
	WriteDouble(v float64) error
	WriteBigInteger(v *big.Int) error
	WriteString(v string) error
	WriteByteArray(v []byte) error
	// WriteNullity writes the absence marker when null is true.
	WriteNullity(null bool) error
	WriteListHeader(l int) error
	WriteMapHeader(l int) error
	WriteFooter() error
	Flush() error

	// Bytes returns the encoded top level stream.
	Bytes() []byte
	TotalWrittenBytes() int64
}

// DataReader reads what a DataWriter of the same codec wrote.
type DataReader interface {
	ReadBool() (bool, error)
	ReadByte() (int8, error)
	ReadShort() (int16, error)
	ReadChar() (uint16, error)
	ReadInt() (int32, error)
	ReadLong() (int64, error)
	ReadFloat() (float32, error)
	ReadDouble() (float64, error)
	ReadBigInteger() (*big.Int, error)
	ReadString() (string, error)
	ReadByteArray() ([]byte, error)
	// ReadNullity consumes the absence marker and returns true if the next
	// element is one, otherwise it returns false and consumes nothing.
	ReadNullity() (bool, error)
	ReadListHeader() error
	ReadMapHeader() error
	// HasNext reports whether the innermost open frame has more elements.
	HasNext() bool
	// ReadFooter closes the innermost frame, skipping unread elements.
	ReadFooter() error
	Skip(count int) error

	TotalReadBytes() int64
}

// New returns a writer for the named codec.
func New(name string) (DataWriter, error) {
	switch name {
	case NameRLP:
		return NewRLPDataWriter(), nil
	case NameRLPN:
		return NewRLPNDataWriter(), nil
	case NameMsgPack:
		return NewMsgPackDataWriter(), nil
	default:
		return nil, errors.Wrapf(ErrUnknownCodec, "name=%s", name)
	}
}

// NewReader returns a reader of the named codec over bs.
func NewReader(name string, bs []byte) (DataReader, error) {
	switch name {
	case NameRLP:
		return NewRLPDataReader(bs), nil
	case NameRLPN:
		return NewRLPNDataReader(bs), nil
	case NameMsgPack:
		return NewMsgPackDataReader(bs), nil
	default:
		return nil, errors.Wrapf(ErrUnknownCodec, "name=%s", name)
	}
}
