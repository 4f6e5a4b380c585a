// Copyright 2024 The llio Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package llio

import (
	"sync/atomic"
	"time"

	"github.com/jacobsa/syncutil"
)

// Service is a single-threaded cooperative reactor: exactly one goroutine
// (the one that constructs it) may call RunUntil/Run, submit async
// operations against it, or close it. This is the Go rendition of the
// design's io_service; see DESIGN.md for why goroutine+channel dispatch
// stands in for POSIX aio_suspend/Windows alertable-APC delivery — Go
// exposes neither without cgo, so a worker goroutine performs the blocking
// syscall and the owning goroutine only ever observes its result through
// a channel, preserving "completion handlers run only on the owning
// thread" at the API level.
type Service struct {
	owner int64

	mu        syncutil.InvariantMutex
	postQueue []func()
	wake      chan struct{}

	workQueued int32 // atomic
	closed     int32 // atomic
}

// NewService constructs a Service owned by the calling goroutine.
func NewService() *Service {
	s := &Service{owner: goroutineID(), wake: make(chan struct{}, 1)}
	s.mu = syncutil.NewInvariantMutex(s.checkInvariants)
	return s
}

// checkInvariants enforces that postQueue never holds more entries than
// workQueued reports outstanding: every postQueue entry is one unit of
// work that hasn't had its workQueued decrement run yet, so the queue
// can never be longer than the counter that accounts for it.
func (s *Service) checkInvariants() {
	if len(s.postQueue) > int(atomic.LoadInt32(&s.workQueued)) {
		panic("llio.Service: postQueue longer than workQueued")
	}
}

func (s *Service) checkOwner(op string) error {
	if goroutineID() != s.owner {
		return newError(KindOperationNotSupported, op, nil)
	}
	return nil
}

// Post schedules fn to run on the owning goroutine during a future
// RunUntil/Run call. It is the sole operation safe to call from any
// goroutine.
func (s *Service) Post(fn func()) {
	atomic.AddInt32(&s.workQueued, 1)
	s.enqueue(fn)
}

// beginWork records one more in-flight item before its goroutine is
// started, so RunUntil correctly reports work_queued != 0 even before the
// goroutine's first result arrives.
func (s *Service) beginWork() {
	atomic.AddInt32(&s.workQueued, 1)
}

// deliver is how a completed async operation's worker goroutine hands its
// result back: fn is queued to run on the owning goroutine during the next
// RunUntil round, and decrements workQueued once it has.
func (s *Service) deliver(fn func()) {
	s.enqueue(fn)
}

func (s *Service) enqueue(fn func()) {
	s.mu.Lock()
	s.postQueue = append(s.postQueue, func() {
		fn()
		atomic.AddInt32(&s.workQueued, -1)
	})
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// WorkQueued reports the number of outstanding posted or in-flight async
// items.
func (s *Service) WorkQueued() int { return int(atomic.LoadInt32(&s.workQueued)) }

// RunUntil pumps one round of work, per the design's run_until algorithm:
// drain whatever is already queued, and if nothing was queued, block
// (honouring deadline) until something is posted or an async operation's
// worker goroutine delivers a result.
func (s *Service) RunUntil(deadline Deadline) (bool, error) {
	if err := s.checkOwner("run_until"); err != nil {
		return false, err
	}
	if atomic.LoadInt32(&s.workQueued) == 0 {
		return false, nil
	}

	expiry, _ := deadline.Expiry(realClock)
	for {
		s.mu.Lock()
		queue := s.postQueue
		s.postQueue = nil
		s.mu.Unlock()

		if len(queue) > 0 {
			for _, fn := range queue {
				fn()
			}
			return atomic.LoadInt32(&s.workQueued) != 0, nil
		}

		if atomic.LoadInt32(&s.workQueued) == 0 {
			return false, nil
		}

		var timeout <-chan time.Time
		if deadline.IsSet() {
			remaining := expiry.Sub(realClock.Now())
			if remaining <= 0 {
				return false, newError(KindTimedOut, "run_until", nil)
			}
			timer := time.NewTimer(remaining)
			defer timer.Stop()
			timeout = timer.C
		}
		select {
		case <-s.wake:
			continue
		case <-timeout:
			return false, newError(KindTimedOut, "run_until", nil)
		}
	}
}

// Run pumps rounds of work indefinitely until none remains.
func (s *Service) Run() error {
	for {
		more, err := s.RunUntil(NoDeadline())
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Close drains any in-flight async operations (their worker goroutines
// still run to completion; Close just pumps their results so no handler
// invocation ever reaches a Service that has stopped being referenced)
// before marking the service closed. This is the Go analogue of the
// design's per-state-destructor cancel-then-drain: without aio_cancel or
// CancelIoEx, the blocking syscalls already in flight cannot be
// interrupted, so Close's only correct option is to wait them out.
func (s *Service) Close() error {
	if err := s.checkOwner("close"); err != nil {
		return err
	}
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	return s.Run()
}
