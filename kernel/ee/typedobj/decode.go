package typedobj

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/xuperchain/eeproxy/kernel/ee/codec"
)

// FromValue rebuilds a TypedObj from a generic msgpack value tree as
// returned by codec.MsgPackDataReader.ReadValue.
func FromValue(v interface{}) (*TypedObj, error) {
	pair, ok := v.([]interface{})
	if !ok || len(pair) != 2 {
		return nil, errors.Wrapf(ErrInvalidFormat, "typed object %T", v)
	}
	tag, err := tagOf(pair[0])
	if err != nil {
		return nil, err
	}
	payload := pair[1]
	switch tag {
	case TagNil:
		return Nil, nil
	case TagDict:
		m, ok := payload.(*codec.OrderedMap)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidFormat, "dict payload %T", payload)
		}
		dict := codec.NewOrderedMap()
		err := m.Each(func(k, e interface{}) error {
			key, ok := k.(string)
			if !ok {
				return errors.Wrapf(ErrInvalidFormat, "dict key %T", k)
			}
			child, err := FromValue(e)
			if err != nil {
				return err
			}
			dict.Put(key, child)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return &TypedObj{Tag: TagDict, Object: dict}, nil
	case TagList:
		l, ok := payload.([]interface{})
		if !ok {
			return nil, errors.Wrapf(ErrInvalidFormat, "list payload %T", payload)
		}
		list := make([]*TypedObj, len(l))
		for i, e := range l {
			child, err := FromValue(e)
			if err != nil {
				return nil, err
			}
			list[i] = child
		}
		return &TypedObj{Tag: TagList, Object: list}, nil
	case TagString:
		switch s := payload.(type) {
		case string:
			return &TypedObj{Tag: TagString, Object: s}, nil
		case []byte:
			return &TypedObj{Tag: TagString, Object: string(s)}, nil
		}
		return nil, errors.Wrapf(ErrInvalidFormat, "string payload %T", payload)
	case TagBytes, TagBool, TagAddress, TagInt:
		if payload == nil {
			return &TypedObj{Tag: tag}, nil
		}
		bs, ok := payload.([]byte)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidFormat, "payload %T of tag %d", payload, tag)
		}
		return &TypedObj{Tag: tag, Object: bs}, nil
	}
	return nil, errors.Wrapf(ErrUnknownTag, "tag=%d", tag)
}

func tagOf(v interface{}) (int, error) {
	switch t := v.(type) {
	case int64:
		return int(t), nil
	case uint64:
		return 0, errors.Wrapf(ErrUnknownTag, "tag=%d", t)
	case *big.Int:
		return int(t.Int64()), nil
	}
	return 0, errors.Wrapf(ErrInvalidFormat, "tag %T", v)
}

// DecodeAny decodes a generic msgpack value tree into native values.
func DecodeAny(v interface{}) (interface{}, error) {
	to, err := FromValue(v)
	if err != nil {
		return nil, err
	}
	return to.Decode()
}

// ReadFrom reads one [tag, payload] pair from r.
func ReadFrom(r codec.DataReader) (*TypedObj, error) {
	if err := r.ReadListHeader(); err != nil {
		return nil, err
	}
	tag, err := r.ReadInt()
	if err != nil {
		return nil, err
	}
	to := &TypedObj{Tag: int(tag)}
	switch to.Tag {
	case TagNil:
		to = Nil
		null, err := r.ReadNullity()
		if errors.Is(err, codec.ErrUnsupported) {
			err = r.Skip(1)
		} else if err == nil && !null {
			err = errors.Wrap(ErrInvalidFormat, "nil with a payload")
		}
		if err != nil {
			return nil, err
		}
	case TagDict:
		if err := r.ReadMapHeader(); err != nil {
			return nil, err
		}
		dict := codec.NewOrderedMap()
		for r.HasNext() {
			k, err := r.ReadString()
			if err != nil {
				return nil, err
			}
			child, err := ReadFrom(r)
			if err != nil {
				return nil, err
			}
			dict.Put(k, child)
		}
		if err := r.ReadFooter(); err != nil {
			return nil, err
		}
		to.Object = dict
	case TagList:
		if err := r.ReadListHeader(); err != nil {
			return nil, err
		}
		list := make([]*TypedObj, 0)
		for r.HasNext() {
			child, err := ReadFrom(r)
			if err != nil {
				return nil, err
			}
			list = append(list, child)
		}
		if err := r.ReadFooter(); err != nil {
			return nil, err
		}
		to.Object = list
	case TagString:
		s, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		to.Object = s
	case TagBytes, TagBool, TagAddress, TagInt:
		bs, err := r.ReadByteArray()
		if err != nil {
			return nil, err
		}
		if bs != nil {
			to.Object = bs
		}
	default:
		return nil, errors.Wrapf(ErrUnknownTag, "tag=%d", tag)
	}
	if err := r.ReadFooter(); err != nil {
		return nil, err
	}
	return to, nil
}

// ReadAny reads one typed value from r and decodes it.
func ReadAny(r codec.DataReader) (interface{}, error) {
	to, err := ReadFrom(r)
	if err != nil {
		return nil, err
	}
	return to.Decode()
}
