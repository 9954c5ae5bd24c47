package transducer

import (
	"iter"
)

// Hashable Keys of a HashMap.
type Hashable interface {
	Hash() uint64
	Equals(other Hashable) bool
}

// HashMap A chained hash table keyed by Hashable values. Unlike a Go map it accepts keys
// holding slices, which is what state signatures are. Not safe for concurrent use.
type HashMap[T any] struct {
	buckets    []*Entry[T]
	size       int
	mask       uint64
	emptyValue T
	loadFactor float64
}

// Entry A hash table entry.
type Entry[T any] struct {
	key   Hashable
	value T
	next  *Entry[T]
}

type optionsHashMap struct {
	capacity   int
	loadFactor float64
}

func newOptionsHashMap(opts ...OptionsHashMap) *optionsHashMap {
	options := &optionsHashMap{
		capacity:   1,
		loadFactor: 0.75,
	}

	for _, opt := range opts {
		opt(options)
	}

	realCap := 1
	for realCap < options.capacity {
		realCap <<= 1
	}
	options.capacity = realCap

	return options
}

type OptionsHashMap func(hashMap *optionsHashMap)

// WithCapacity Initial bucket count, rounded up to a power of two.
func WithCapacity(capacity int) OptionsHashMap {
	return func(hashMap *optionsHashMap) {
		hashMap.capacity = capacity
	}
}

func WithLoadFactor(loadFactor float64) OptionsHashMap {
	return func(hashMap *optionsHashMap) {
		hashMap.loadFactor = loadFactor
	}
}

func NewHashMap[T any](options ...OptionsHashMap) *HashMap[T] {
	opt := newOptionsHashMap(options...)

	return &HashMap[T]{
		buckets:    make([]*Entry[T], opt.capacity),
		mask:       uint64(opt.capacity - 1),
		loadFactor: opt.loadFactor,
	}
}

// Set Inserts or replaces the value for key.
func (m *HashMap[T]) Set(key Hashable, value T) {
	if e := m.find(key); e != nil {
		e.value = value
		return
	}
	m.insert(key, value)
}

// GetOrSet Returns the value stored for key, storing value first if key is absent.
// The boolean reports whether key was already present.
func (m *HashMap[T]) GetOrSet(key Hashable, value T) (T, bool) {
	if e := m.find(key); e != nil {
		return e.value, true
	}
	m.insert(key, value)
	return value, false
}

func (m *HashMap[T]) Get(key Hashable) (T, bool) {
	if e := m.find(key); e != nil {
		return e.value, true
	}
	return m.emptyValue, false
}

func (m *HashMap[T]) Delete(key Hashable) {
	index := key.Hash() & m.mask

	var prev *Entry[T]
	for e := m.buckets[index]; e != nil; prev, e = e, e.next {
		if e.key.Equals(key) {
			if prev == nil {
				m.buckets[index] = e.next
			} else {
				prev.next = e.next
			}
			m.size--
			return
		}
	}
}

func (m *HashMap[T]) find(key Hashable) *Entry[T] {
	index := key.Hash() & m.mask
	for e := m.buckets[index]; e != nil; e = e.next {
		if e.key.Equals(key) {
			return e
		}
	}
	return nil
}

func (m *HashMap[T]) insert(key Hashable, value T) {
	index := key.Hash() & m.mask
	m.buckets[index] = &Entry[T]{
		key:   key,
		value: value,
		next:  m.buckets[index],
	}
	m.size++

	if float64(m.size)/float64(len(m.buckets)) > m.loadFactor {
		m.resize()
	}
}

func (m *HashMap[T]) resize() {
	newCap := len(m.buckets) << 1
	newBuckets := make([]*Entry[T], newCap)
	newMask := uint64(newCap - 1)

	for _, head := range m.buckets {
		for e := head; e != nil; {
			next := e.next
			newIndex := e.key.Hash() & newMask
			e.next = newBuckets[newIndex]
			newBuckets[newIndex] = e
			e = next
		}
	}

	m.buckets = newBuckets
	m.mask = newMask
}

// Size How many keys are stored.
func (m *HashMap[T]) Size() int {
	return m.size
}

// Clear Removes all keys, keeping the bucket array.
func (m *HashMap[T]) Clear() {
	clear(m.buckets)
	m.size = 0
}

func (m *HashMap[T]) Iterator() iter.Seq2[Hashable, T] {
	return func(yield func(Hashable, T) bool) {
		for _, bucket := range m.buckets {
			for e := bucket; e != nil; e = e.next {
				if !yield(e.key, e.value) {
					return
				}
			}
		}
	}
}
