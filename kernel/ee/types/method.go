package types

import (
	"fmt"
	"strings"

	"github.com/xuperchain/eeproxy/kernel/ee/codec"
)

type MethodType int

const (
	MethodFunction MethodType = iota
	MethodFallback
	MethodEvent
)

func (t MethodType) String() string {
	switch t {
	case MethodFunction:
		return "function"
	case MethodFallback:
		return "fallback"
	case MethodEvent:
		return "eventlog"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

const (
	FlagReadOnly = 1 << iota
	FlagExternal
	FlagPayable
	FlagIsolated
)

type DataType int

const (
	DataNone DataType = iota
	DataInteger
	DataString
	DataBytes
	DataBool
	DataAddress
	DataList
	DataDict
)

var dataTypeNames = []string{"none", "int", "str", "bytes", "bool", "Address", "list", "dict"}

func (t DataType) String() string {
	if t >= 0 && int(t) < len(dataTypeNames) {
		return dataTypeNames[t]
	}
	return fmt.Sprintf("Unknown(%d)", int(t))
}

// Parameter describes one method input. Default is the encoded default value
// of an optional parameter.
type Parameter struct {
	Name    string
	Type    DataType
	Default []byte
}

// Method describes an entry point of a contract as reported to the host.
// For functions Indexed is the number of mandatory inputs, for events the
// number of indexed inputs.
type Method struct {
	Type    MethodType
	Name    string
	Flags   int
	Indexed int
	Inputs  []Parameter
	Outputs []DataType
}

func NewFunction(name string, flags int, optional int, inputs []Parameter, output DataType) *Method {
	m := &Method{
		Type:    MethodFunction,
		Name:    name,
		Flags:   flags,
		Indexed: len(inputs) - optional,
		Inputs:  inputs,
	}
	if output != DataNone {
		m.Outputs = []DataType{output}
	}
	return m
}

func NewFallback() *Method {
	return &Method{
		Type:  MethodFallback,
		Name:  "fallback",
		Flags: FlagPayable,
	}
}

func NewEvent(name string, indexed int, inputs []Parameter) *Method {
	return &Method{
		Type:    MethodEvent,
		Name:    name,
		Indexed: indexed,
		Inputs:  inputs,
	}
}

func (m *Method) IsPayable() bool {
	return m.Type != MethodEvent && m.Flags&FlagPayable != 0
}

func (m *Method) IsReadOnly() bool {
	return m.Type == MethodFunction && m.Flags&FlagReadOnly != 0
}

func (m *Method) IsExternal() bool {
	return m.Type == MethodFunction && m.Flags&(FlagExternal|FlagReadOnly) != 0
}

func (m *Method) IsIsolated() bool {
	return m.Type != MethodEvent && m.Flags&FlagIsolated != 0
}

func (m *Method) Signature() string {
	args := make([]string, len(m.Inputs))
	for i, p := range m.Inputs {
		args[i] = p.Type.String()
	}
	return fmt.Sprintf("%s(%s)", m.Name, strings.Join(args, ","))
}

// WriteTo writes [type, name, flags, indexed, [[name, type, default]...],
// [outputs...]].
func (m *Method) WriteTo(w codec.DataWriter) error {
	if err := w.WriteListHeader(6); err != nil {
		return err
	}
	if err := w.WriteInt(int32(m.Type)); err != nil {
		return err
	}
	if err := w.WriteString(m.Name); err != nil {
		return err
	}
	if err := w.WriteInt(int32(m.Flags)); err != nil {
		return err
	}
	if err := w.WriteInt(int32(m.Indexed)); err != nil {
		return err
	}
	if err := w.WriteListHeader(len(m.Inputs)); err != nil {
		return err
	}
	for _, p := range m.Inputs {
		if err := p.writeTo(w); err != nil {
			return err
		}
	}
	if err := w.WriteFooter(); err != nil {
		return err
	}
	if err := w.WriteListHeader(len(m.Outputs)); err != nil {
		return err
	}
	for _, o := range m.Outputs {
		if err := w.WriteInt(int32(o)); err != nil {
			return err
		}
	}
	if err := w.WriteFooter(); err != nil {
		return err
	}
	return w.WriteFooter()
}

func (p *Parameter) writeTo(w codec.DataWriter) error {
	if err := w.WriteListHeader(3); err != nil {
		return err
	}
	if err := w.WriteString(p.Name); err != nil {
		return err
	}
	if err := w.WriteInt(int32(p.Type)); err != nil {
		return err
	}
	if p.Default == nil {
		if err := w.WriteNullity(true); err != nil {
			return err
		}
	} else if err := w.WriteByteArray(p.Default); err != nil {
		return err
	}
	return w.WriteFooter()
}
