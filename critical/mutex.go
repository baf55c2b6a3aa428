package critical

import "omibyte.io/cmrt/machine"

// Mutex holds data shared between a handler and the code it preempts. The
// data is only reachable while a critical section is held.
type Mutex[T any] struct {
	data T
}

func NewMutex[T any](data T) *Mutex[T] {
	return &Mutex[T]{data: data}
}

// Borrow returns the protected data. The pointer must not outlive the critical
// section represented by cs.
func (m *Mutex[T]) Borrow(cs CS) *T {
	return &m.data
}

// Lock runs fn with the protected data inside a fresh critical section.
func (m *Mutex[T]) Lock(p machine.Primitives, fn func(data *T)) {
	Do(p, func(cs CS) {
		fn(m.Borrow(cs))
	})
}

// Singleton hands out its value at most once for the lifetime of the program.
type Singleton[T any] struct {
	taken bool
	value T
}

func NewSingleton[T any](value T) *Singleton[T] {
	return &Singleton[T]{value: value}
}

// Take returns the value the first time it is called. Every later call
// returns false.
func (s *Singleton[T]) Take(p machine.Primitives) (value *T, ok bool) {
	Do(p, func(cs CS) {
		if s.taken {
			return
		}
		s.taken = true
		value, ok = &s.value, true
	})
	return value, ok
}

// Steal returns the value and marks it taken without checking the flag. The
// caller must guarantee no other reference is live.
func (s *Singleton[T]) Steal() *T {
	s.taken = true
	return &s.value
}

// Taken reports whether the value has been handed out.
func (s *Singleton[T]) Taken() bool {
	return s.taken
}
