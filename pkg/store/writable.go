package store

import "sync"

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Writable is a mutable observable value. Every mutation and the notification
// that follows it form one critical section, so subscribers observe changes
// in the order they were made and always before the mutating call returns.
// Subscribers may call Get but must not mutate or subscribe to the same
// Writable from inside the callback.
type Writable[T any] struct {
	writeMu sync.Mutex

	mu     sync.RWMutex
	value  T
	subs   []subscriber[T]
	nextID uint64
}

// NewWritable creates a Writable holding initial.
func NewWritable[T any](initial T) *Writable[T] {
	return &Writable[T]{value: initial}
}

// Get returns the current value.
func (w *Writable[T]) Get() T {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.value
}

// Subscribe registers fn and calls it immediately with the current value.
func (w *Writable[T]) Subscribe(fn func(T)) func() {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.Lock()
	w.nextID++
	id := w.nextID
	w.subs = append(w.subs, subscriber[T]{id: id, fn: fn})
	current := w.value
	w.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() { w.unsubscribe(id) })
	}
}

// Set replaces the value and notifies subscribers.
func (w *Writable[T]) Set(v T) {
	w.Update(func(T) T { return v })
}

// Update replaces the value with fn(current) and notifies subscribers.
// fn must not modify slices or maps reachable from its argument in place;
// earlier snapshots handed to subscribers share them.
func (w *Writable[T]) Update(fn func(T) T) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.Lock()
	next := fn(w.value)
	w.value = next
	subs := make([]subscriber[T], len(w.subs))
	copy(subs, w.subs)
	w.mu.Unlock()

	for _, s := range subs {
		s.fn(next)
	}
}

func (w *Writable[T]) unsubscribe(id uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, s := range w.subs {
		if s.id == id {
			w.subs = append(w.subs[:i:i], w.subs[i+1:]...)
			return
		}
	}
}
