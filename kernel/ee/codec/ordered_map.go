package codec

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// OrderedMap keeps entries in insertion order. Keys must be comparable.
type OrderedMap struct {
	m *linkedhashmap.Map
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{m: linkedhashmap.New()}
}

// Put sets the value of k. An existing key keeps its position.
func (om *OrderedMap) Put(k, v interface{}) {
	om.m.Put(k, v)
}

func (om *OrderedMap) Get(k interface{}) (interface{}, bool) {
	return om.m.Get(k)
}

func (om *OrderedMap) Len() int {
	return om.m.Size()
}

func (om *OrderedMap) Keys() []interface{} {
	return om.m.Keys()
}

func (om *OrderedMap) Values() []interface{} {
	return om.m.Values()
}

// Each visits entries in order and stops at the first error.
func (om *OrderedMap) Each(fn func(k, v interface{}) error) error {
	it := om.m.Iterator()
	for it.Next() {
		if err := fn(it.Key(), it.Value()); err != nil {
			return err
		}
	}
	return nil
}

// StringMap copies entries with string keys into a plain map.
func (om *OrderedMap) StringMap() map[string]interface{} {
	out := make(map[string]interface{}, om.Len())
	om.m.Each(func(k, v interface{}) {
		if s, ok := k.(string); ok {
			out[s] = v
		}
	})
	return out
}
