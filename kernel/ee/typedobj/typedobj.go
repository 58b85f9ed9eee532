// Package typedobj implements the self describing value encoding used for
// invoke parameters, results and call data. Every value is a [tag, payload]
// pair.
package typedobj

import (
	"math/big"
	"reflect"
	"sort"

	"github.com/pkg/errors"

	"github.com/xuperchain/eeproxy/kernel/ee/codec"
	"github.com/xuperchain/eeproxy/kernel/ee/types"
)

const (
	TagNil     = 0
	TagDict    = 1
	TagList    = 2
	TagBytes   = 3
	TagString  = 4
	TagBool    = 5
	TagAddress = 10
	TagInt     = 11
)

var (
	ErrUnsupportedType = errors.New("typedobj: unsupported type")
	ErrUnknownTag      = errors.New("typedobj: unknown tag")
	ErrInvalidFormat   = errors.New("typedobj: invalid format")
)

// TypedObj is one tagged value. Object holds nil for TagNil, an
// *codec.OrderedMap of string to *TypedObj for TagDict, []*TypedObj for
// TagList, string for TagString and raw bytes for the other tags.
type TypedObj struct {
	Tag    int
	Object interface{}
}

var Nil = &TypedObj{Tag: TagNil}

// Encode converts a native value into a TypedObj tree. Nothing is written,
// so a failure leaves no partial output behind.
func Encode(o interface{}) (*TypedObj, error) {
	switch v := o.(type) {
	case nil:
		return Nil, nil
	case *TypedObj:
		if v == nil {
			return Nil, nil
		}
		return v, nil
	case *codec.OrderedMap:
		if v == nil {
			return Nil, nil
		}
		dict := codec.NewOrderedMap()
		err := v.Each(func(k, e interface{}) error {
			key, ok := k.(string)
			if !ok {
				return errors.Wrapf(ErrUnsupportedType, "dict key %T", k)
			}
			child, err := Encode(e)
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
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		dict := codec.NewOrderedMap()
		for _, k := range keys {
			child, err := Encode(v[k])
			if err != nil {
				return nil, err
			}
			dict.Put(k, child)
		}
		return &TypedObj{Tag: TagDict, Object: dict}, nil
	case []interface{}:
		list := make([]*TypedObj, len(v))
		for i, e := range v {
			child, err := Encode(e)
			if err != nil {
				return nil, err
			}
			list[i] = child
		}
		return &TypedObj{Tag: TagList, Object: list}, nil
	case []byte:
		return &TypedObj{Tag: TagBytes, Object: v}, nil
	case string:
		return &TypedObj{Tag: TagString, Object: v}, nil
	case bool:
		if v {
			return &TypedObj{Tag: TagBool, Object: []byte{1}}, nil
		}
		return &TypedObj{Tag: TagBool, Object: []byte{0}}, nil
	case types.Address:
		return &TypedObj{Tag: TagAddress, Object: append([]byte(nil), v[:]...)}, nil
	case *types.Address:
		if v == nil {
			return Nil, nil
		}
		return &TypedObj{Tag: TagAddress, Object: append([]byte(nil), v[:]...)}, nil
	case *big.Int:
		if v == nil {
			return Nil, nil
		}
		return newInt(v), nil
	}

	rv := reflect.ValueOf(o)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return newInt(big.NewInt(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return newInt(new(big.Int).SetUint64(rv.Uint())), nil
	}
	return nil, errors.Wrapf(ErrUnsupportedType, "%T", o)
}

// MustEncode is Encode for values known to be encodable.
func MustEncode(o interface{}) *TypedObj {
	to, err := Encode(o)
	if err != nil {
		panic(err)
	}
	return to
}

func newInt(v *big.Int) *TypedObj {
	return &TypedObj{Tag: TagInt, Object: codec.SignedBytes(v)}
}

// WriteTo emits [tag, payload].
func (to *TypedObj) WriteTo(w codec.DataWriter) error {
	if err := w.WriteListHeader(2); err != nil {
		return err
	}
	if err := w.WriteInt(int32(to.Tag)); err != nil {
		return err
	}
	if err := to.writePayload(w); err != nil {
		return err
	}
	return w.WriteFooter()
}

func (to *TypedObj) writePayload(w codec.DataWriter) error {
	switch to.Tag {
	case TagNil:
		err := w.WriteNullity(true)
		if errors.Is(err, codec.ErrUnsupported) {
			return w.WriteByteArray(nil)
		}
		return err
	case TagDict:
		dict := to.Object.(*codec.OrderedMap)
		if err := w.WriteMapHeader(dict.Len()); err != nil {
			return err
		}
		err := dict.Each(func(k, v interface{}) error {
			if err := w.WriteString(k.(string)); err != nil {
				return err
			}
			return v.(*TypedObj).WriteTo(w)
		})
		if err != nil {
			return err
		}
		return w.WriteFooter()
	case TagList:
		list := to.Object.([]*TypedObj)
		if err := w.WriteListHeader(len(list)); err != nil {
			return err
		}
		for _, e := range list {
			if err := e.WriteTo(w); err != nil {
				return err
			}
		}
		return w.WriteFooter()
	case TagString:
		return w.WriteString(to.Object.(string))
	case TagBytes, TagBool, TagAddress, TagInt:
		bs, _ := to.Object.([]byte)
		return w.WriteByteArray(bs)
	}
	return errors.Wrapf(ErrUnknownTag, "tag=%d", to.Tag)
}

// Decode converts the tree back into native values.
func (to *TypedObj) Decode() (interface{}, error) {
	switch to.Tag {
	case TagNil:
		return nil, nil
	case TagDict:
		dict, ok := to.Object.(*codec.OrderedMap)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidFormat, "dict payload %T", to.Object)
		}
		out := codec.NewOrderedMap()
		err := dict.Each(func(k, v interface{}) error {
			child, ok := v.(*TypedObj)
			if !ok {
				return errors.Wrapf(ErrInvalidFormat, "dict entry %T", v)
			}
			dv, err := child.Decode()
			if err != nil {
				return err
			}
			out.Put(k, dv)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	case TagList:
		list, ok := to.Object.([]*TypedObj)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidFormat, "list payload %T", to.Object)
		}
		out := make([]interface{}, len(list))
		for i, e := range list {
			dv, err := e.Decode()
			if err != nil {
				return nil, err
			}
			out[i] = dv
		}
		return out, nil
	case TagString:
		s, ok := to.Object.(string)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidFormat, "string payload %T", to.Object)
		}
		return s, nil
	}

	bs, ok := to.Object.([]byte)
	if !ok && to.Object != nil {
		return nil, errors.Wrapf(ErrInvalidFormat, "payload %T of tag %d", to.Object, to.Tag)
	}
	switch to.Tag {
	case TagBytes:
		return bs, nil
	case TagBool:
		return len(bs) > 0 && bs[0] != 0, nil
	case TagAddress:
		return types.NewAddress(bs)
	case TagInt:
		return codec.FromSignedBytes(bs), nil
	}
	return nil, errors.Wrapf(ErrUnknownTag, "tag=%d", to.Tag)
}
