// Package rt holds the run-time support referenced by code generated from
// handler declarations.
package rt

import (
	"errors"
	"sync/atomic"
)

var ErrAliasedStorage = errors.New("handler storage borrowed while already borrowed")

var debugAssertions atomic.Bool

func init() {
	debugAssertions.Store(true)
}

// SetDebug toggles the aliasing assertion performed by Slot.Borrow.
func SetDebug(enable bool) {
	debugAssertions.Store(enable)
}

// Slot is the storage cell backing one persistent handler-local variable. A
// slot is declared at package level with a constant initializer so that it
// lives in the program image:
//
//	var __rt_SysTick_count = rt.Slot[uint32]{Value: 0}
//
// Only the wrapper generated for the owning handler borrows it. Because a
// vector cannot preempt itself, at most one borrow is ever live.
type Slot[T any] struct {
	Value    T
	borrowed atomic.Bool
}

// Borrow hands out the exclusive reference for one handler invocation.
func (s *Slot[T]) Borrow() *T {
	if s.borrowed.Swap(true) && debugAssertions.Load() {
		panic(ErrAliasedStorage)
	}
	return &s.Value
}

// Return ends the borrow started by Borrow.
func (s *Slot[T]) Return() {
	s.borrowed.Store(false)
}

// Static borrows the storage of the entry point. The entry point runs exactly
// once and never returns, so the reference is never given back.
func (s *Slot[T]) Static() *T {
	return s.Borrow()
}
