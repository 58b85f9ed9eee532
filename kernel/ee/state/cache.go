package state

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/xuperchain/eeproxy/kernel/ee/types"
)

const DefaultGraphCacheSize = 256

// GraphCache keeps the last object graph seen for each contract. It is
// shared by the states of successive invocations.
type GraphCache struct {
	cache *lru.Cache
}

func NewGraphCache(size int) (*GraphCache, error) {
	if size <= 0 {
		size = DefaultGraphCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &GraphCache{cache: cache}, nil
}

func (c *GraphCache) Get(contractID []byte) (*types.ObjectGraph, bool) {
	v, ok := c.cache.Get(string(contractID))
	if !ok {
		return nil, false
	}
	return v.(*types.ObjectGraph), true
}

func (c *GraphCache) Add(contractID []byte, g *types.ObjectGraph) {
	c.cache.Add(string(contractID), g)
}

func (c *GraphCache) Remove(contractID []byte) {
	c.cache.Remove(string(contractID))
}

func (c *GraphCache) Len() int {
	return c.cache.Len()
}
