package eeproxy

import (
	"math/big"
	"net"
	"testing"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb/comparer"
	"github.com/syndtr/goleveldb/leveldb/memdb"

	"github.com/xuperchain/eeproxy/kernel/ee/codec"
	"github.com/xuperchain/eeproxy/kernel/ee/ipc"
	"github.com/xuperchain/eeproxy/kernel/ee/types"
)

// asyncConn queues writes so the host never blocks on the synchronous pipe
// while the engine is still writing.
type asyncConn struct {
	net.Conn
	ch chan []byte
}

func newAsyncConn(c net.Conn) *asyncConn {
	a := &asyncConn{Conn: c, ch: make(chan []byte, 256)}
	go func() {
		for b := range a.ch {
			if _, err := c.Write(b); err != nil {
				return
			}
		}
	}()
	return a
}

func (a *asyncConn) Write(p []byte) (int, error) {
	a.ch <- append([]byte(nil), p...)
	return len(p), nil
}

// fakeHost plays the host side of the channel with storage in a memdb.
type fakeHost struct {
	proxy   *ipc.Proxy
	db      *memdb.DB
	balance *big.Int
	graph   *types.ObjectGraph
	code    []byte
	version []interface{}
	logs    []string
	events  [][]interface{}
	feePct  int
	onCall  func(h *fakeHost, call []interface{}) error
}

func newFakeHost(conn ipc.Connection) *fakeHost {
	return &fakeHost{
		proxy:   ipc.NewProxy(conn),
		db:      memdb.New(comparer.DefaultComparer, 0),
		balance: big.NewInt(0),
		graph:   types.NewObjectGraph(0, []byte{}),
	}
}

func newTestPair(t *testing.T, cfg *Config) (*EEProxy, *fakeHost) {
	ec, hc := net.Pipe()
	t.Cleanup(func() {
		ec.Close()
		hc.Close()
	})
	return New(ec, cfg, nil), newFakeHost(newAsyncConn(hc))
}

func (h *fakeHost) send(msgType int, args ...interface{}) error {
	return h.proxy.SendMessage(msgType, args...)
}

// serve answers engine requests until a RESULT or GETAPI reply arrives, or
// the engine closes the channel, in which case it returns nil.
func (h *fakeHost) serve() (*ipc.Message, error) {
	for {
		msg, err := h.proxy.GetNextMessage()
		if err != nil {
			if errors.Is(err, codec.ErrTruncated) {
				return nil, nil
			}
			return nil, err
		}
		switch msg.Type {
		case MsgResult, MsgGetAPI:
			return msg, nil
		}
		if err := h.handle(msg); err != nil {
			return nil, err
		}
	}
}

func (h *fakeHost) handle(msg *ipc.Message) error {
	switch msg.Type {
	case MsgVersion:
		arr, err := ipc.AsArrayN(msg.Value, 3)
		if err != nil {
			return err
		}
		h.version = arr
	case MsgGetValue:
		key, err := ipc.AsBytes(msg.Value)
		if err != nil {
			return err
		}
		v, err := h.db.Get(key)
		if err == memdb.ErrNotFound {
			return h.send(MsgGetValue, false, nil)
		}
		return h.send(MsgGetValue, true, v)
	case MsgSetValue:
		arr, err := ipc.AsArrayN(msg.Value, 3)
		if err != nil {
			return err
		}
		key, _ := ipc.AsBytes(arr[0])
		flag, _ := ipc.AsInt(arr[1])
		value, _ := ipc.AsBytes(arr[2])
		prev, err := h.db.Get(key)
		hasOld := err == nil
		if flag&SetValueDelete != 0 {
			h.db.Delete(key)
		} else if err := h.db.Put(key, value); err != nil {
			return err
		}
		if flag&SetValueOldValue != 0 {
			return h.send(MsgSetValue, hasOld, len(prev))
		}
	case MsgGetBalance:
		return h.send(MsgGetBalance, h.balance)
	case MsgSetCode:
		code, err := ipc.AsBytes(msg.Value)
		if err != nil {
			return err
		}
		h.code = code
	case MsgGetObjGraph:
		flag, err := ipc.AsInt(msg.Value)
		if err != nil {
			return err
		}
		if flag == 1 {
			return h.send(MsgGetObjGraph, h.graph.NextHash, h.graph.GraphHash, h.graph.GraphData)
		}
		return h.send(MsgGetObjGraph, h.graph.NextHash, h.graph.GraphHash)
	case MsgSetObjGraph:
		arr, err := ipc.AsArrayN(msg.Value, 3)
		if err != nil {
			return err
		}
		flag, _ := ipc.AsInt(arr[0])
		nextHash, _ := ipc.AsInt(arr[1])
		if flag == 1 {
			data, _ := ipc.AsBytes(arr[2])
			h.graph = types.NewObjectGraph(nextHash, data)
		} else {
			h.graph.NextHash = nextHash
		}
	case MsgLog:
		arr, err := ipc.AsArrayN(msg.Value, 3)
		if err != nil {
			return err
		}
		s, _ := ipc.AsString(arr[2])
		h.logs = append(h.logs, s)
	case MsgEvent:
		arr, err := ipc.AsArrayN(msg.Value, 2)
		if err != nil {
			return err
		}
		h.events = append(h.events, arr)
	case MsgSetFeePct:
		pct, err := ipc.AsInt(msg.Value)
		if err != nil {
			return err
		}
		h.feePct = pct
	case MsgCall:
		arr, err := ipc.AsArrayN(msg.Value, 5)
		if err != nil {
			return err
		}
		if h.onCall == nil {
			return h.send(MsgClose)
		}
		return h.onCall(h, arr)
	default:
		return errors.Errorf("host: unexpected message %s", MsgName(msg.Type))
	}
	return nil
}
