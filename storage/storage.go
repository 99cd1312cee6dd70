// Package storage implements the synchronous string-keyed store that playback state is persisted to.
package storage

import (
	"sort"
	"sync"

	"github.com/feedcast/feedcast/filesystem"
	"github.com/feedcast/feedcast/log"
	"github.com/metafates/gache"
	"github.com/samber/lo"
)

// Storage is a synchronous key-value store with last-write-wins semantics.
type Storage interface {
	// Get returns the value stored under key.
	Get(key string) (string, bool)

	// Set stores value under key.
	Set(key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error

	// Keys returns every stored key in lexical order.
	Keys() []string

	// Clear removes every key.
	Clear() error
}

type cacher interface {
	Get() (map[string]string, bool, error)
	Set(map[string]string) error
}

// File is a Storage persisted as a single JSON object on the active filesystem.
// The whole map is kept in memory and written through on every mutation.
type File struct {
	mu     sync.Mutex
	path   string
	cache  cacher
	values map[string]string
}

// NewFile returns a File storage backed by path. Nothing is read until first use.
func NewFile(path string) *File {
	return &File{
		path: path,
		cache: gache.New[map[string]string](&gache.Options{
			Path:       path,
			FileSystem: &filesystem.GacheFs{},
		}),
	}
}

// load reads the persisted map on first access. A broken file starts over empty.
func (f *File) load() {
	if f.values != nil {
		return
	}

	cached, expired, err := f.cache.Get()
	if err != nil {
		log.Warnf("state file %s is unreadable, starting with empty state: %s", f.path, err)
	}
	if err != nil || expired || cached == nil {
		cached = make(map[string]string)
	}

	f.values = cached
}

func (f *File) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.load()
	v, ok := f.values[key]
	return v, ok
}

func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.load()
	if old, ok := f.values[key]; ok && old == value {
		return nil
	}

	f.values[key] = value
	return f.cache.Set(f.values)
}

func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.load()
	if _, ok := f.values[key]; !ok {
		return nil
	}

	delete(f.values, key)
	return f.cache.Set(f.values)
}

func (f *File) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.load()
	keys := lo.Keys(f.values)
	sort.Strings(keys)
	return keys
}

func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values = make(map[string]string)
	return f.cache.Set(f.values)
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// Memory is a volatile Storage.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory returns an empty in-memory storage.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := lo.Keys(m.values)
	sort.Strings(keys)
	return keys
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values = make(map[string]string)
	return nil
}
