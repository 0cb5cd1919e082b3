package dusk

import (
	"sync"
)

// per-session flags shared with every handler invocation of the session.
// This is the only way a handler influences the session loop.
type SessionContext struct {
	exitLock sync.Mutex
	exit     bool

	suppressLock       sync.Mutex
	suppressNextRender bool
}

func NewSessionContext() *SessionContext {
	return &SessionContext{}
}

// the loop closes before the next render
func (self *SessionContext) Finish() {
	self.exitLock.Lock()
	defer self.exitLock.Unlock()
	self.exit = true
}

func (self *SessionContext) IsFinished() bool {
	self.exitLock.Lock()
	defer self.exitLock.Unlock()
	return self.exit
}

// the loop waits again on the current message without rendering or publishing an update
func (self *SessionContext) SuppressNextRender() {
	self.suppressLock.Lock()
	defer self.suppressLock.Unlock()
	self.suppressNextRender = true
}

// reads and resets the suppress flag
func (self *SessionContext) takeSuppressNextRender() bool {
	self.suppressLock.Lock()
	defer self.suppressLock.Unlock()
	suppress := self.suppressNextRender
	self.suppressNextRender = false
	return suppress
}
