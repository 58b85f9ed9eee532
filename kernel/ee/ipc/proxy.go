// Package ipc frames [type, payload] messages over the host connection. The
// envelope is always msgpack.
package ipc

import (
	"math"
	"math/big"
	"reflect"
	"strconv"

	"github.com/pkg/errors"

	"github.com/xuperchain/eeproxy/kernel/ee/codec"
	"github.com/xuperchain/eeproxy/kernel/ee/typedobj"
	"github.com/xuperchain/eeproxy/kernel/ee/types"
	"github.com/xuperchain/eeproxy/lib/metrics"
)

// MaxMessageType is the highest message tag of the host protocol.
const MaxMessageType = 15

var (
	ErrInvalidMessage      = errors.New("ipc: invalid message")
	ErrUnsupportedArgument = errors.New("ipc: unsupported argument")
)

// Message is one received envelope. Value is the generic msgpack tree of
// the payload.
type Message struct {
	Type  int
	Value interface{}
}

// Proxy sends and receives messages on one connection. It is not safe for
// concurrent use.
type Proxy struct {
	conn   Connection
	reader *codec.MsgPackDataReader
}

func NewProxy(conn Connection) *Proxy {
	return &Proxy{
		conn:   conn,
		reader: codec.NewMsgPackStreamReader(conn),
	}
}

// SendMessage writes [msgType, payload]. The payload is args[0] for a single
// argument, otherwise the array of all arguments. The message is encoded
// completely before anything is written.
func (p *Proxy) SendMessage(msgType int, args ...interface{}) error {
	w := codec.NewMsgPackDataWriter()
	if err := w.WriteListHeader(2); err != nil {
		return err
	}
	if err := w.WriteInt(int32(msgType)); err != nil {
		return err
	}
	var err error
	if len(args) == 1 {
		err = writeArg(w, args[0])
	} else {
		err = writeArg(w, args)
	}
	if err != nil {
		return errors.WithMessagef(err, "encode message type=%d", msgType)
	}
	if err := w.WriteFooter(); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	bs := w.Bytes()
	if _, err := p.conn.Write(bs); err != nil {
		return errors.Wrapf(err, "send message type=%d", msgType)
	}
	label := msgTypeLabel(int64(msgType))
	metrics.IPCMsgSendCounter.WithLabelValues(label).Inc()
	metrics.IPCMsgSendBytesCounter.WithLabelValues(label).Add(float64(len(bs)))
	return nil
}

func writeArg(w codec.DataWriter, arg interface{}) error {
	switch v := arg.(type) {
	case nil:
		return w.WriteNullity(true)
	case bool:
		return w.WriteBool(v)
	case string:
		return w.WriteString(v)
	case []byte:
		if v == nil {
			return w.WriteNullity(true)
		}
		return w.WriteByteArray(v)
	case *big.Int:
		if v == nil {
			return w.WriteNullity(true)
		}
		return w.WriteBigInteger(v)
	case types.Address:
		return w.WriteByteArray(v[:])
	case *types.Address:
		if v == nil {
			return w.WriteNullity(true)
		}
		return w.WriteByteArray(v[:])
	case *typedobj.TypedObj:
		if v == nil {
			return w.WriteNullity(true)
		}
		return v.WriteTo(w)
	case []*typedobj.TypedObj:
		if err := w.WriteListHeader(len(v)); err != nil {
			return err
		}
		for _, to := range v {
			if err := writeArg(w, to); err != nil {
				return err
			}
		}
		return w.WriteFooter()
	case []*types.Method:
		if v == nil {
			return w.WriteNullity(true)
		}
		if err := w.WriteListHeader(len(v)); err != nil {
			return err
		}
		for _, m := range v {
			if err := m.WriteTo(w); err != nil {
				return err
			}
		}
		return w.WriteFooter()
	case [][]byte:
		if err := w.WriteListHeader(len(v)); err != nil {
			return err
		}
		for _, bs := range v {
			if err := writeArg(w, bs); err != nil {
				return err
			}
		}
		return w.WriteFooter()
	case []interface{}:
		if err := w.WriteListHeader(len(v)); err != nil {
			return err
		}
		for _, e := range v {
			if err := writeArg(w, e); err != nil {
				return err
			}
		}
		return w.WriteFooter()
	}

	rv := reflect.ValueOf(arg)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return w.WriteLong(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt64 {
			return errors.Wrapf(ErrUnsupportedArgument, "%T overflows int64", arg)
		}
		return w.WriteLong(int64(rv.Uint()))
	}
	return errors.Wrapf(ErrUnsupportedArgument, "%T", arg)
}

// GetNextMessage blocks until one envelope is read. A malformed envelope is
// fatal for the channel.
func (p *Proxy) GetNextMessage() (*Message, error) {
	start := p.reader.TotalReadBytes()
	v, err := p.reader.ReadValue()
	if err != nil {
		return nil, errors.WithMessage(err, "read message")
	}
	arr, ok := v.([]interface{})
	if !ok || len(arr) < 2 {
		return nil, errors.Wrapf(ErrInvalidMessage, "envelope %T", v)
	}
	msgType, ok := arr[0].(int64)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidMessage, "message type %T", arr[0])
	}

	label := msgTypeLabel(msgType)
	metrics.IPCMsgReceivedCounter.WithLabelValues(label).Inc()
	metrics.IPCMsgReceivedBytesCounter.WithLabelValues(label).Add(float64(p.reader.TotalReadBytes() - start))
	return &Message{Type: int(msgType), Value: arr[1]}, nil
}

// msgTypeLabel keeps the metric label set bounded to the defined tags.
func msgTypeLabel(t int64) string {
	if t < 0 || t > MaxMessageType {
		return metrics.LabelOther
	}
	return strconv.FormatInt(t, 10)
}

func (p *Proxy) Close() error {
	return p.conn.Close()
}
