package eeproxy

import (
	"context"
	"errors"
	"math/big"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/xuperchain/eeproxy/kernel/ee/ipc"
	"github.com/xuperchain/eeproxy/kernel/ee/types"
)

func TestConnect(t *testing.T) {
	engine, host := newTestPair(t, &Config{EngineType: "go"})
	var g errgroup.Group
	g.Go(func() error {
		_, err := host.serve()
		return err
	})

	require.NoError(t, engine.Connect("uuid-1"))
	require.NoError(t, engine.Close())
	require.NoError(t, g.Wait())
	assert.Equal(t, []interface{}{int64(ProtocolVersion), "uuid-1", "go"}, host.version)
}

func TestStorageCallbacks(t *testing.T) {
	engine, host := newTestPair(t, nil)
	var g errgroup.Group
	g.Go(func() error {
		_, err := host.serve()
		return err
	})

	var sizes []int
	record := func(size int) {
		sizes = append(sizes, size)
	}
	k1, k2 := []byte("k1"), []byte("k2")
	require.NoError(t, engine.SetValue(k1, []byte("v1"), record))
	require.NoError(t, engine.SetValue(k1, []byte("value2"), record))
	require.NoError(t, engine.SetValue(k2, []byte("x"), nil))
	require.NoError(t, engine.SetValue(k2, nil, record))
	assert.Equal(t, 3, engine.PendingCallbacks())
	assert.Empty(t, sizes)

	v, err := engine.GetValue(k1)
	require.NoError(t, err)
	assert.Equal(t, []byte("value2"), v)
	assert.Equal(t, []int{-1, 2, 1}, sizes)
	assert.Zero(t, engine.PendingCallbacks())

	v, err = engine.GetValue(k2)
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, engine.SetValue([]byte("empty"), []byte{}, nil))
	v, err = engine.GetValue([]byte("empty"))
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.Empty(t, v)

	require.NoError(t, engine.Close())
	require.NoError(t, g.Wait())
}

func TestBackpressure(t *testing.T) {
	engine, host := newTestPair(t, &Config{MaxPendingCallbacks: 2})
	var g errgroup.Group
	g.Go(func() error {
		_, err := host.serve()
		return err
	})

	var sizes []int
	for i := 0; i < 6; i++ {
		value := make([]byte, i+1)
		require.NoError(t, engine.SetValue([]byte("k"), value, func(size int) {
			sizes = append(sizes, size)
		}))
		assert.LessOrEqual(t, engine.PendingCallbacks(), 2)
	}
	require.NoError(t, engine.WaitForCallbacks())
	assert.Equal(t, []int{-1, 1, 2, 3, 4, 5}, sizes)

	ok, err := engine.WaitForCallback()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, engine.Close())
	require.NoError(t, g.Wait())
}

func TestOutboundRequests(t *testing.T) {
	engine, host := newTestPair(t, nil)
	host.balance = big.NewInt(-300)
	host.graph = types.NewObjectGraph(7, []byte("graph"))
	var g errgroup.Group
	g.Go(func() error {
		_, err := host.serve()
		return err
	})

	addr, err := types.ParseAddress("hx0000000000000000000000000000000000000001")
	require.NoError(t, err)
	balance, err := engine.GetBalance(addr)
	require.NoError(t, err)
	assert.Equal(t, int64(-300), balance.Int64())

	og, err := engine.GetObjGraph(false)
	require.NoError(t, err)
	assert.Equal(t, 7, og.NextHash)
	assert.Equal(t, host.graph.GraphHash, og.GraphHash)
	assert.False(t, og.HasData())

	next := types.NewObjectGraph(9, []byte("next graph"))
	require.NoError(t, engine.SetObjGraph(true, next))
	og, err = engine.GetObjGraph(true)
	require.NoError(t, err)
	assert.Equal(t, 9, og.NextHash)
	assert.Equal(t, []byte("next graph"), og.GraphData)
	assert.True(t, og.EqualGraphData(next))

	require.NoError(t, engine.SetObjGraph(false, &types.ObjectGraph{NextHash: 10}))
	og, err = engine.GetObjGraph(true)
	require.NoError(t, err)
	assert.Equal(t, 10, og.NextHash)
	assert.Equal(t, []byte("next graph"), og.GraphData)

	require.NoError(t, engine.SetCode([]byte{0xca, 0xfe}))
	require.NoError(t, engine.Log(types.LogInfo, types.LogFlagTrace, "hello"))
	require.NoError(t, engine.Event([][]byte{[]byte("Transfer(Address)")}, nil))
	require.NoError(t, engine.SetFeeSharingProportion(50))

	require.NoError(t, engine.Close())
	require.NoError(t, g.Wait())
	assert.Equal(t, []byte{0xca, 0xfe}, host.code)
	assert.Equal(t, []string{"hello"}, host.logs)
	require.Len(t, host.events, 1)
	assert.Equal(t, []interface{}{[]byte("Transfer(Address)")}, host.events[0][0])
	assert.Equal(t, []interface{}{}, host.events[0][1])
	assert.Equal(t, 50, host.feePct)
}

func TestUnexpectedReply(t *testing.T) {
	ec, hc := net.Pipe()
	defer ec.Close()
	defer hc.Close()
	engine := New(ec, nil, nil)
	hp := ipc.NewProxy(newAsyncConn(hc))

	var g errgroup.Group
	g.Go(func() error {
		if _, err := hp.GetNextMessage(); err != nil {
			return err
		}
		return hp.SendMessage(MsgGetValue, false, nil)
	})
	_, err := engine.GetBalance(nil)
	assert.True(t, errors.Is(err, ErrUnexpectedMessage), "got %v", err)
	require.NoError(t, g.Wait())
}

func TestClosePendingCallbacks(t *testing.T) {
	engine, host := newTestPair(t, nil)
	var g errgroup.Group
	g.Go(func() error {
		_, err := host.serve()
		return err
	})

	require.NoError(t, engine.SetValue([]byte("k"), []byte("v"), func(int) {}))
	err := engine.Close()
	assert.True(t, errors.Is(err, ErrPendingCallbacks), "got %v", err)
	require.NoError(t, g.Wait())
}

func TestFromContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	p := New(nil, nil, nil)
	got, ok := FromContext(WithProxy(context.Background(), p))
	assert.True(t, ok)
	assert.Same(t, p, got)
	assert.Equal(t, DefaultEngineType, p.engineType)
	assert.Equal(t, DefaultMaxPendingCallbacks, p.maxPending)
}

func TestMsgName(t *testing.T) {
	assert.Equal(t, "GETOBJGRAPH", MsgName(MsgGetObjGraph))
	assert.Equal(t, "SETFEEPCT", MsgName(15))
	assert.Equal(t, "UNKNOWN(99)", MsgName(99))
}
