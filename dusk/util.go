package dusk

import (
	"sync"
	"time"

	"golang.org/x/exp/slices"
)

type callbackEntry[T any] struct {
	callbackId int
	callback   T
}

// makes a copy of the list on update, so `Get` can be iterated without a lock
type CallbackList[T any] struct {
	mutex          sync.Mutex
	nextCallbackId int
	callbacks      []*callbackEntry[T]
}

func NewCallbackList[T any]() *CallbackList[T] {
	return &CallbackList[T]{
		callbacks: []*callbackEntry[T]{},
	}
}

func (self *CallbackList[T]) Get() []T {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	callbacks := make([]T, 0, len(self.callbacks))
	for _, entry := range self.callbacks {
		callbacks = append(callbacks, entry.callback)
	}
	return callbacks
}

func (self *CallbackList[T]) Add(callback T) int {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	self.nextCallbackId += 1
	callbackId := self.nextCallbackId
	nextCallbacks := slices.Clone(self.callbacks)
	nextCallbacks = append(nextCallbacks, &callbackEntry[T]{
		callbackId: callbackId,
		callback:   callback,
	})
	self.callbacks = nextCallbacks
	return callbackId
}

func (self *CallbackList[T]) Remove(callbackId int) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	i := slices.IndexFunc(self.callbacks, func(entry *callbackEntry[T]) bool {
		return entry.callbackId == callbackId
	})
	if i < 0 {
		// not present
		return
	}
	nextCallbacks := slices.Clone(self.callbacks)
	nextCallbacks = slices.Delete(nextCallbacks, i, i+1)
	self.callbacks = nextCallbacks
}

type Reconnect struct {
	startTime time.Time
	timeout   time.Duration
}

func NewReconnect(timeout time.Duration) *Reconnect {
	return &Reconnect{
		startTime: time.Now(),
		timeout:   timeout,
	}
}

// fires `timeout` after the reconnect was created
func (self *Reconnect) After() <-chan time.Time {
	remaining := self.timeout - time.Since(self.startTime)
	if remaining <= 0 {
		remaining = 0
	}
	return time.After(remaining)
}
