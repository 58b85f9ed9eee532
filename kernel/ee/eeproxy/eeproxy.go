// Package eeproxy drives the execution engine side of the host channel.
//
// One goroutine owns an EEProxy. Requests are strictly sequential: get
// requests block for their reply, SetValue does not and its acknowledgements
// are drained in issue order by later reads or explicitly.
package eeproxy

import (
	"math/big"

	"github.com/gammazero/deque"
	"github.com/pkg/errors"
	hex "github.com/tmthrgd/go-hex"

	"github.com/xuperchain/eeproxy/kernel/ee/ipc"
	"github.com/xuperchain/eeproxy/kernel/ee/types"
	"github.com/xuperchain/eeproxy/lib/logs"
	"github.com/xuperchain/eeproxy/lib/metrics"
)

// PrevSizeCallback receives the size of the overwritten value, or -1 when
// there was none.
type PrevSizeCallback func(prevSize int)

type Config struct {
	EngineType          string
	MaxPendingCallbacks int
}

type EEProxy struct {
	proxy      *ipc.Proxy
	log        logs.Logger
	engineType string
	maxPending int

	callbacks deque.Deque
	trace     bool

	invokeHandler InvokeHandler
	apiHandler    GetAPIHandler
}

// New wraps conn. A nil cfg or logger selects the defaults.
func New(conn ipc.Connection, cfg *Config, log logs.Logger) *EEProxy {
	p := &EEProxy{
		proxy:      ipc.NewProxy(conn),
		log:        log,
		engineType: DefaultEngineType,
		maxPending: DefaultMaxPendingCallbacks,
	}
	if cfg != nil {
		if cfg.EngineType != "" {
			p.engineType = cfg.EngineType
		}
		if cfg.MaxPendingCallbacks > 0 {
			p.maxPending = cfg.MaxPendingCallbacks
		}
	}
	if p.log == nil {
		p.log = logs.NewDiscardLogger()
	}
	return p
}

func (p *EEProxy) SetInvokeHandler(h InvokeHandler) {
	p.invokeHandler = h
}

func (p *EEProxy) SetGetAPIHandler(h GetAPIHandler) {
	p.apiHandler = h
}

// Connect sends the VERSION handshake.
func (p *EEProxy) Connect(uuid string) error {
	p.log.Trace("[VERSION]", "uuid", uuid, "type", p.engineType)
	return p.proxy.SendMessage(MsgVersion, ProtocolVersion, uuid, p.engineType)
}

// readReply drains pending acknowledgements and reads the reply to a
// request of msgType.
func (p *EEProxy) readReply(msgType int) (interface{}, error) {
	if err := p.WaitForCallbacks(); err != nil {
		return nil, err
	}
	msg, err := p.proxy.GetNextMessage()
	if err != nil {
		return nil, err
	}
	if msg.Type != msgType {
		return nil, errors.Wrapf(ErrUnexpectedMessage, "%s expected, got %s",
			MsgName(msgType), MsgName(msg.Type))
	}
	return msg.Value, nil
}

func (p *EEProxy) GetBalance(addr *types.Address) (*big.Int, error) {
	if err := p.proxy.SendMessage(MsgGetBalance, addr); err != nil {
		return nil, err
	}
	v, err := p.readReply(MsgGetBalance)
	if err != nil {
		return nil, err
	}
	balance, err := ipc.AsBigInt(v)
	if err != nil {
		return nil, errors.WithMessage(err, "GETBALANCE reply")
	}
	p.log.Trace("[GETBALANCE]", "addr", addr, "balance", balance)
	return balance, nil
}

// GetValue returns nil when key has no value.
func (p *EEProxy) GetValue(key []byte) ([]byte, error) {
	if err := p.proxy.SendMessage(MsgGetValue, key); err != nil {
		return nil, err
	}
	v, err := p.readReply(MsgGetValue)
	if err != nil {
		return nil, err
	}
	arr, err := ipc.AsArrayN(v, 2)
	if err != nil {
		return nil, errors.WithMessage(err, "GETVALUE reply")
	}
	ok, err := ipc.AsBool(arr[0])
	if err != nil {
		return nil, errors.WithMessage(err, "GETVALUE reply")
	}
	if !ok {
		p.log.Trace("[GETVALUE]", "key", hex.EncodeToString(key), "found", false)
		return nil, nil
	}
	value, err := ipc.AsBytes(arr[1])
	if err != nil {
		return nil, errors.WithMessage(err, "GETVALUE reply")
	}
	if value == nil {
		value = []byte{}
	}
	p.log.Trace("[GETVALUE]", "key", hex.EncodeToString(key), "size", len(value))
	return value, nil
}

// SetValue stores value under key, deleting it when value is nil. With a
// non-nil cb the host reports the previous size; cb runs when that
// acknowledgement is drained. SetValue never waits for a reply except to keep
// the pending queue under its limit.
func (p *EEProxy) SetValue(key, value []byte, cb PrevSizeCallback) error {
	flag := 0
	if value == nil {
		flag |= SetValueDelete
	}
	if cb != nil {
		flag |= SetValueOldValue
	}
	p.log.Trace("[SETVALUE]", "key", hex.EncodeToString(key), "flag", flag, "size", len(value))
	if err := p.proxy.SendMessage(MsgSetValue, key, flag, value); err != nil {
		return err
	}
	if cb != nil {
		p.callbacks.PushBack(cb)
		metrics.IPCPendingCallbackGauge.Set(float64(p.callbacks.Len()))
	}
	return p.LimitPendingCallbackLength()
}

// PendingCallbacks returns the number of unacknowledged SetValue requests.
func (p *EEProxy) PendingCallbacks() int {
	return p.callbacks.Len()
}

// WaitForCallback drains the oldest acknowledgement. It returns false when
// nothing is pending.
func (p *EEProxy) WaitForCallback() (bool, error) {
	if p.callbacks.Len() == 0 {
		return false, nil
	}
	msg, err := p.proxy.GetNextMessage()
	if err != nil {
		return false, err
	}
	if msg.Type != MsgSetValue {
		return false, errors.Wrapf(ErrUnexpectedMessage, "SETVALUE expected, got %s", MsgName(msg.Type))
	}
	arr, err := ipc.AsArrayN(msg.Value, 2)
	if err != nil {
		return false, errors.WithMessage(err, "SETVALUE reply")
	}
	hasOld, err := ipc.AsBool(arr[0])
	if err != nil {
		return false, errors.WithMessage(err, "SETVALUE reply")
	}
	prevSize, err := ipc.AsInt(arr[1])
	if err != nil {
		return false, errors.WithMessage(err, "SETVALUE reply")
	}
	if !hasOld {
		prevSize = -1
	}
	cb := p.callbacks.PopFront().(PrevSizeCallback)
	metrics.IPCPendingCallbackGauge.Set(float64(p.callbacks.Len()))
	p.log.Trace("[SETVALUE] ack", "prevSize", prevSize)
	cb(prevSize)
	return true, nil
}

func (p *EEProxy) WaitForCallbacks() error {
	for {
		ok, err := p.WaitForCallback()
		if err != nil || !ok {
			return err
		}
	}
}

// LimitPendingCallbackLength drains acknowledgements until at most the
// configured number remain.
func (p *EEProxy) LimitPendingCallbackLength() error {
	for p.callbacks.Len() > p.maxPending {
		if _, err := p.WaitForCallback(); err != nil {
			return err
		}
	}
	return nil
}

func (p *EEProxy) SetCode(code []byte) error {
	p.log.Trace("[SETCODE]", "size", len(code))
	return p.proxy.SendMessage(MsgSetCode, code)
}

// GetObjGraph requests the current object graph. Without includeData only
// nextHash and the graph hash are returned.
func (p *EEProxy) GetObjGraph(includeData bool) (*types.ObjectGraph, error) {
	if err := p.proxy.SendMessage(MsgGetObjGraph, boolFlag(includeData)); err != nil {
		return nil, err
	}
	v, err := p.readReply(MsgGetObjGraph)
	if err != nil {
		return nil, err
	}
	n := 2
	if includeData {
		n = 3
	}
	arr, err := ipc.AsArrayN(v, n)
	if err != nil {
		return nil, errors.WithMessage(err, "GETOBJGRAPH reply")
	}
	g := new(types.ObjectGraph)
	if g.NextHash, err = ipc.AsInt(arr[0]); err != nil {
		return nil, errors.WithMessage(err, "GETOBJGRAPH reply")
	}
	if g.GraphHash, err = ipc.AsBytes(arr[1]); err != nil {
		return nil, errors.WithMessage(err, "GETOBJGRAPH reply")
	}
	if includeData {
		if g.GraphData, err = ipc.AsBytes(arr[2]); err != nil {
			return nil, errors.WithMessage(err, "GETOBJGRAPH reply")
		}
		if g.GraphData == nil {
			g.GraphData = []byte{}
		}
	}
	p.log.Trace("[GETOBJGRAPH]", "nextHash", g.NextHash, "hash", hex.EncodeToString(g.GraphHash),
		"size", len(g.GraphData))
	return g, nil
}

// SetObjGraph stores g. Without includeData only nextHash is sent.
func (p *EEProxy) SetObjGraph(includeData bool, g *types.ObjectGraph) error {
	var data []byte
	if includeData {
		data = g.GraphData
		if data == nil {
			data = []byte{}
		}
	}
	p.log.Trace("[SETOBJGRAPH]", "includeData", includeData, "nextHash", g.NextHash, "size", len(data))
	return p.proxy.SendMessage(MsgSetObjGraph, boolFlag(includeData), g.NextHash, data)
}

func (p *EEProxy) Log(level types.LogLevel, flag int, msg string) error {
	return p.proxy.SendMessage(MsgLog, int(level), flag, msg)
}

func (p *EEProxy) Event(indexed, data [][]byte) error {
	p.log.Trace("[LOGEVENT]", "indexed", len(indexed), "data", len(data))
	if indexed == nil {
		indexed = [][]byte{}
	}
	if data == nil {
		data = [][]byte{}
	}
	return p.proxy.SendMessage(MsgEvent, indexed, data)
}

func (p *EEProxy) SetFeeSharingProportion(proportion int) error {
	p.log.Trace("[SETFEEPCT]", "proportion", proportion)
	return p.proxy.SendMessage(MsgSetFeePct, proportion)
}

// IsTrace reports whether the running invocation asked for tracing.
func (p *EEProxy) IsTrace() bool {
	return p.trace
}

// Close closes the connection. Unacknowledged SetValue requests are reported
// as ErrPendingCallbacks.
func (p *EEProxy) Close() error {
	err := p.proxy.Close()
	if n := p.callbacks.Len(); n > 0 {
		return errors.Wrapf(ErrPendingCallbacks, "%d callbacks dropped", n)
	}
	return err
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}
