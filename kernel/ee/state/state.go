// Package state is the contract facing view of host state for one
// invocation. Every access goes through the EEProxy of the invocation.
package state

import (
	"context"
	"math/big"

	units "github.com/docker/go-units"
	"github.com/pkg/errors"
	hex "github.com/tmthrgd/go-hex"

	"github.com/xuperchain/eeproxy/kernel/ee/eeproxy"
	"github.com/xuperchain/eeproxy/kernel/ee/types"
	"github.com/xuperchain/eeproxy/lib/logs"
	"github.com/xuperchain/eeproxy/lib/metrics"
)

var ErrCodeNotFound = errors.New("state: transformed code not found")

const (
	cacheHit  = "hit"
	cacheMiss = "miss"
	cacheSkip = "skip_put"
)

type ExternalState struct {
	proxy      *eeproxy.EEProxy
	graphs     *GraphCache
	log        logs.Logger
	contractID []byte

	code          []byte
	feeProportion int
}

// New returns the state of contractID. graphs may be nil, then object graphs
// are always transferred in full.
func New(proxy *eeproxy.EEProxy, graphs *GraphCache, contractID []byte, log logs.Logger) *ExternalState {
	if log == nil {
		log = logs.NewDiscardLogger()
	}
	return &ExternalState{
		proxy:      proxy,
		graphs:     graphs,
		log:        log,
		contractID: contractID,
	}
}

// FromContext builds the state of req on the proxy carried by ctx.
func FromContext(ctx context.Context, graphs *GraphCache, req *eeproxy.InvokeRequest, log logs.Logger) (*ExternalState, error) {
	proxy, ok := eeproxy.FromContext(ctx)
	if !ok {
		return nil, errors.New("state: no proxy in context")
	}
	return New(proxy, graphs, req.ContractID, log), nil
}

func (s *ExternalState) ContractID() []byte {
	return s.contractID
}

// GetStorage returns nil when key has no value.
func (s *ExternalState) GetStorage(key []byte) ([]byte, error) {
	value, err := s.proxy.GetValue(key)
	if err != nil {
		s.log.Debug("getStorage failed", "key", hex.EncodeToString(key), "err", err)
		return nil, err
	}
	s.log.Trace("getStorage", "key", hex.EncodeToString(key), "size", len(value))
	return value, nil
}

// PutStorage stores value; a nil value is stored as empty. cb, if set,
// receives the previous size once the host acknowledges the write.
func (s *ExternalState) PutStorage(key, value []byte, cb eeproxy.PrevSizeCallback) error {
	if value == nil {
		value = []byte{}
	}
	s.log.Trace("putStorage", "key", hex.EncodeToString(key), "size", len(value))
	return s.proxy.SetValue(key, value, cb)
}

func (s *ExternalState) RemoveStorage(key []byte, cb eeproxy.PrevSizeCallback) error {
	s.log.Trace("removeStorage", "key", hex.EncodeToString(key))
	return s.proxy.SetValue(key, nil, cb)
}

func (s *ExternalState) WaitForCallback() (bool, error) {
	return s.proxy.WaitForCallback()
}

func (s *ExternalState) WaitForCallbacks() error {
	return s.proxy.WaitForCallbacks()
}

func (s *ExternalState) GetBalance(addr *types.Address) (*big.Int, error) {
	return s.proxy.GetBalance(addr)
}

// GetObjectGraph returns the graph of the contract. With a cached graph only
// the hash is requested first and the data is transferred again only if the
// hashes differ.
func (s *ExternalState) GetObjectGraph() (*types.ObjectGraph, error) {
	if cached, ok := s.cachedGraph(); ok {
		g, err := s.proxy.GetObjGraph(false)
		if err != nil {
			return nil, err
		}
		if cached.EqualGraphData(g) {
			metrics.GraphCacheCounter.WithLabelValues(cacheHit).Inc()
			s.log.Trace("getObjectGraph cached", "size", units.HumanSize(float64(len(cached.GraphData))))
			return &types.ObjectGraph{
				NextHash:  g.NextHash,
				GraphHash: cached.GraphHash,
				GraphData: cached.GraphData,
			}, nil
		}
	}

	metrics.GraphCacheCounter.WithLabelValues(cacheMiss).Inc()
	g, err := s.proxy.GetObjGraph(true)
	if err != nil {
		return nil, err
	}
	s.cacheGraph(g)
	s.log.Trace("getObjectGraph", "size", units.HumanSize(float64(len(g.GraphData))))
	return g, nil
}

// PutObjectGraph stores g, sending the data only when it differs from the
// cached graph.
func (s *ExternalState) PutObjectGraph(g *types.ObjectGraph) error {
	includeData := true
	if cached, ok := s.cachedGraph(); ok && cached.EqualGraphData(g) {
		includeData = false
		metrics.GraphCacheCounter.WithLabelValues(cacheSkip).Inc()
	}
	s.log.Trace("putObjectGraph", "includeData", includeData,
		"size", units.HumanSize(float64(len(g.GraphData))))
	if err := s.proxy.SetObjGraph(includeData, g); err != nil {
		return err
	}
	s.cacheGraph(g)
	return nil
}

func (s *ExternalState) cachedGraph() (*types.ObjectGraph, bool) {
	if s.graphs == nil {
		return nil, false
	}
	return s.graphs.Get(s.contractID)
}

func (s *ExternalState) cacheGraph(g *types.ObjectGraph) {
	if s.graphs != nil {
		s.graphs.Add(s.contractID, g)
	}
}

// SetTransformedCode sends code to the host and keeps it for GetCode.
func (s *ExternalState) SetTransformedCode(code []byte) error {
	s.log.Trace("setTransformedCode", "size", units.HumanSize(float64(len(code))))
	if err := s.proxy.SetCode(code); err != nil {
		return err
	}
	s.code = code
	return nil
}

func (s *ExternalState) GetCode() ([]byte, error) {
	if s.code == nil {
		return nil, ErrCodeNotFound
	}
	return s.code, nil
}

func (s *ExternalState) Event(indexed, data [][]byte) error {
	return s.proxy.Event(indexed, data)
}

func (s *ExternalState) Log(level types.LogLevel, msg string) error {
	flag := 0
	if s.proxy.IsTrace() {
		flag |= types.LogFlagTrace
	}
	return s.proxy.Log(level, flag, msg)
}

func (s *ExternalState) GetFeeSharingProportion() int {
	return s.feeProportion
}

func (s *ExternalState) SetFeeSharingProportion(proportion int) error {
	s.feeProportion = proportion
	return s.proxy.SetFeeSharingProportion(proportion)
}

func (s *ExternalState) Call(ctx context.Context, addr *types.Address, value *big.Int, stepLimit int64,
	dataType string, dataObj interface{}) (*types.Result, error) {
	res, err := s.proxy.Call(ctx, addr, value, stepLimit, dataType, dataObj)
	if err != nil {
		s.log.Debug("call failed", "to", addr, "err", err)
		return nil, err
	}
	return res, nil
}
