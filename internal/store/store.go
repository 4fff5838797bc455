// Package store holds application state as a flat byte key space and provides the write
// buffering that makes an operation atomic.
package store

import (
	"sort"
	"strings"
	"sync"
)

// Reader reads state.
type Reader interface {
	Get(key string) []byte
	Has(key string) bool
}

// KVStore reads and writes state. A nil or empty value is stored as present-but-empty;
// use Delete to remove a key.
type KVStore interface {
	Reader
	Set(key string, value []byte)
	Delete(key string)
}

// Write is one buffered mutation.
type Write struct {
	Key     string
	Value   []byte
	Deleted bool
}

// MemStore is the in-memory committed state.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (m *MemStore) Get(key string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil
	}
	return append([]byte(nil), v...)
}

func (m *MemStore) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok
}

func (m *MemStore) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte{}, value...)
}

func (m *MemStore) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

// Apply writes a batch of mutations.
func (m *MemStore) Apply(writes []Write) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range writes {
		if w.Deleted {
			delete(m.data, w.Key)
			continue
		}
		m.data[w.Key] = append([]byte{}, w.Value...)
	}
}

// Snapshot returns every key with its value, ordered by key.
func (m *MemStore) Snapshot() []Write {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Write, 0, len(m.data))
	for k, v := range m.data {
		out = append(out, Write{Key: k, Value: append([]byte{}, v...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Cache buffers writes over a parent store until Write is called. Reads see buffered writes.
type Cache struct {
	parent KVStore
	writes map[string]Write
}

func NewCache(parent KVStore) *Cache {
	return &Cache{parent: parent, writes: make(map[string]Write)}
}

func (c *Cache) Get(key string) []byte {
	if w, ok := c.writes[key]; ok {
		if w.Deleted {
			return nil
		}
		return append([]byte{}, w.Value...)
	}
	return c.parent.Get(key)
}

func (c *Cache) Has(key string) bool {
	if w, ok := c.writes[key]; ok {
		return !w.Deleted
	}
	return c.parent.Has(key)
}

func (c *Cache) Set(key string, value []byte) {
	c.writes[key] = Write{Key: key, Value: append([]byte{}, value...)}
}

func (c *Cache) Delete(key string) {
	c.writes[key] = Write{Key: key, Deleted: true}
}

// Writes returns the buffered mutations ordered by key.
func (c *Cache) Writes() []Write {
	out := make([]Write, 0, len(c.writes))
	for _, w := range c.writes {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Write flushes the buffered mutations to the parent and clears the buffer.
func (c *Cache) Write() {
	for _, w := range c.Writes() {
		if w.Deleted {
			c.parent.Delete(w.Key)
			continue
		}
		c.parent.Set(w.Key, w.Value)
	}
	c.Discard()
}

// Discard drops the buffered mutations.
func (c *Cache) Discard() {
	c.writes = make(map[string]Write)
}

// PrefixStore scopes a store to one namespace.
type PrefixStore struct {
	parent KVStore
	prefix string
}

// Prefix returns a view of parent where every key is prefixed. A trailing "/" is added when
// missing.
func Prefix(parent KVStore, prefix string) *PrefixStore {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &PrefixStore{parent: parent, prefix: prefix}
}

func (p *PrefixStore) Get(key string) []byte        { return p.parent.Get(p.prefix + key) }
func (p *PrefixStore) Has(key string) bool          { return p.parent.Has(p.prefix + key) }
func (p *PrefixStore) Set(key string, value []byte) { p.parent.Set(p.prefix+key, value) }
func (p *PrefixStore) Delete(key string)            { p.parent.Delete(p.prefix + key) }

// AppPrefix is the namespace of an application's state.
func AppPrefix(app string) string {
	return "app/" + app + "/"
}
