package board

import (
	"fmt"
	"runtime/debug"
	"slices"
	"sync"

	"github.com/golang/glog"
)

type callbackListEntry[T any] struct {
	callbackId int
	callback   T
}

// makes a copy of the list on update.
// callbacks are keyed by id since function values cannot be compared.
type CallbackList[T any] struct {
	mutex          sync.Mutex
	nextCallbackId int
	entries        []callbackListEntry[T]
}

func NewCallbackList[T any]() *CallbackList[T] {
	return &CallbackList[T]{}
}

func (self *CallbackList[T]) Get() []T {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	callbacks := make([]T, len(self.entries))
	for i, entry := range self.entries {
		callbacks[i] = entry.callback
	}
	return callbacks
}

func (self *CallbackList[T]) Add(callback T) int {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	callbackId := self.nextCallbackId
	self.nextCallbackId += 1
	nextEntries := slices.Clone(self.entries)
	nextEntries = append(nextEntries, callbackListEntry[T]{
		callbackId: callbackId,
		callback:   callback,
	})
	self.entries = nextEntries
	return callbackId
}

func (self *CallbackList[T]) Remove(callbackId int) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	i := slices.IndexFunc(self.entries, func(entry callbackListEntry[T]) bool {
		return entry.callbackId == callbackId
	})
	if i < 0 {
		// not present
		return
	}
	nextEntries := slices.Clone(self.entries)
	nextEntries = slices.Delete(nextEntries, i, i+1)
	self.entries = nextEntries
}

// a change signal for waiters.
// the notify channel is closed on each update and replaced with a fresh one,
// so a waiter never misses an update that happened while it was working.
type Monitor struct {
	mutex  sync.Mutex
	update chan struct{}
}

func NewMonitor() *Monitor {
	return &Monitor{
		update: make(chan struct{}),
	}
}

func (self *Monitor) NotifyChannel() <-chan struct{} {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	return self.update
}

func (self *Monitor) NotifyAll() {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	close(self.update)
	self.update = make(chan struct{})
}

// runs `do`, suppressing a panic so that one misbehaving callback
// cannot take down the dispatching loop
func HandleError(do func(), handlers ...func(error)) (r any) {
	defer func() {
		if r = recover(); r != nil {
			glog.Warningf("[u]unexpected error = %s\n%s\n", r, string(debug.Stack()))
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%s", r)
			}
			for _, handler := range handlers {
				handler(err)
			}
		}
	}()
	do()
	return
}
