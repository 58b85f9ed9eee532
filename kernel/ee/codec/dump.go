package codec

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	hex "github.com/tmthrgd/go-hex"
)

const dumpIndent = "  "

// Dump renders bs, encoded with the named codec, as an indented tree.
func Dump(name string, bs []byte) (string, error) {
	sb := new(strings.Builder)
	switch name {
	case NameRLP, NameRLPN:
		r := newRLPReader(bs, name == NameRLPN, nil)
		if err := dumpRLP(sb, r, 0); err != nil {
			return sb.String(), err
		}
	case NameMsgPack:
		r := NewMsgPackDataReader(bs)
		for r.HasNext() {
			v, err := r.ReadValue()
			if err != nil {
				return sb.String(), err
			}
			dumpValue(sb, v, 0)
		}
	default:
		return "", errors.Wrapf(ErrUnknownCodec, "name=%s", name)
	}
	return sb.String(), nil
}

func dumpRLP(sb *strings.Builder, r *rlpReader, depth int) error {
	pad := strings.Repeat(dumpIndent, depth)
	for r.HasNext() {
		if r.isNullMarker() {
			r.pos += 2
			sb.WriteString(pad + "null\n")
			continue
		}
		it, err := r.peekItem()
		if err != nil {
			return err
		}
		if !it.list {
			r.pos = it.end()
			fmt.Fprintf(sb, "%s0x%s\n", pad, hex.EncodeToString(r.data[it.offset:it.end()]))
			continue
		}
		fmt.Fprintf(sb, "%s[ // %d bytes\n", pad, it.length)
		if err := r.ReadListHeader(); err != nil {
			return err
		}
		if err := dumpRLP(sb, r, depth+1); err != nil {
			return err
		}
		if err := r.ReadFooter(); err != nil {
			return err
		}
		sb.WriteString(pad + "]\n")
	}
	return nil
}

func dumpValue(sb *strings.Builder, v interface{}, depth int) {
	pad := strings.Repeat(dumpIndent, depth)
	switch o := v.(type) {
	case nil:
		sb.WriteString(pad + "nil\n")
	case []byte:
		fmt.Fprintf(sb, "%s0x%s\n", pad, hex.EncodeToString(o))
	case string:
		fmt.Fprintf(sb, "%s%q\n", pad, o)
	case []interface{}:
		sb.WriteString(pad + "[\n")
		for _, e := range o {
			dumpValue(sb, e, depth+1)
		}
		sb.WriteString(pad + "]\n")
	case *OrderedMap:
		sb.WriteString(pad + "{\n")
		_ = o.Each(func(k, e interface{}) error {
			fmt.Fprintf(sb, "%s%s%v:\n", pad, dumpIndent, k)
			dumpValue(sb, e, depth+2)
			return nil
		})
		sb.WriteString(pad + "}\n")
	default:
		fmt.Fprintf(sb, "%s%v\n", pad, o)
	}
}
