package types

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// ObjectGraph is a snapshot of a contract's persistent object graph.
// GraphData is nil when only the hash was transferred.
type ObjectGraph struct {
	NextHash  int
	GraphHash []byte
	GraphData []byte
}

// NewObjectGraph builds a graph from its data, hashing it with SHA3-256.
func NewObjectGraph(nextHash int, data []byte) *ObjectGraph {
	h := sha3.Sum256(data)
	return &ObjectGraph{
		NextHash:  nextHash,
		GraphHash: h[:],
		GraphData: data,
	}
}

// ObjectGraphFromRaw parses nextHash(4 bytes BE) || graphData.
func ObjectGraphFromRaw(raw []byte) (*ObjectGraph, error) {
	if len(raw) < 4 {
		return nil, errors.Errorf("object graph of %d bytes", len(raw))
	}
	nextHash := int(int32(binary.BigEndian.Uint32(raw[:4])))
	return NewObjectGraph(nextHash, raw[4:]), nil
}

// RawData returns nextHash(4 bytes BE) || graphData.
func (g *ObjectGraph) RawData() []byte {
	raw := make([]byte, 4+len(g.GraphData))
	binary.BigEndian.PutUint32(raw, uint32(int32(g.NextHash)))
	copy(raw[4:], g.GraphData)
	return raw
}

// EqualGraphData reports whether both graphs carry the same data. Hashes are
// compared when both are present, the data otherwise.
func (g *ObjectGraph) EqualGraphData(o *ObjectGraph) bool {
	if g == nil || o == nil {
		return false
	}
	if len(g.GraphHash) > 0 && len(o.GraphHash) > 0 {
		return bytes.Equal(g.GraphHash, o.GraphHash)
	}
	if !g.HasData() || !o.HasData() {
		return false
	}
	return bytes.Equal(g.GraphData, o.GraphData)
}

// HasData reports whether GraphData was transferred.
func (g *ObjectGraph) HasData() bool {
	return g.GraphData != nil
}
