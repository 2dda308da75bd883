// Copyright 2019 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package debounce provides a single-shot delayed trigger that is re-armed by
// every new request.
package debounce

import (
	"sync"
	"time"
)

// DefaultQuietPeriod is the delay used when none is configured.
const DefaultQuietPeriod = 2 * time.Second

// Trigger runs a function once no new request has arrived for a quiet
// period.  It is safe for concurrent use.  Runs of the function never
// overlap: a run that comes due while the previous one is still going waits
// for it, and is dropped if a newer request arrived meanwhile.
type Trigger struct {
	quiet time.Duration
	fn    func()

	// running is held for the duration of fn.
	running sync.Mutex

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// New returns a trigger that calls fn after quiet has elapsed since the last
// call to Schedule.  A non-positive quiet selects DefaultQuietPeriod.
func New(quiet time.Duration, fn func()) *Trigger {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Trigger{quiet: quiet, fn: fn}
}

// Schedule cancels any pending run and arms a new one.  It is a no-op after
// Stop.
func (t *Trigger) Schedule() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = time.AfterFunc(t.quiet, func() { t.fire(gen) })
}

// fire runs fn unless the run it was armed for has been superseded.  A timer
// whose Stop raced with its expiry still reaches here, hence the generation
// check, which is made once the previous run has returned.
func (t *Trigger) fire(gen uint64) {
	t.running.Lock()
	defer t.running.Unlock()

	t.mu.Lock()
	if t.stopped || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.mu.Unlock()

	t.fn()
}

// Cancel drops the pending run, if any.  Later calls to Schedule arm the
// trigger again.  It reports whether a run was pending.
func (t *Trigger) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer == nil {
		return false
	}
	t.timer.Stop()
	t.timer = nil
	t.gen++
	return true
}

// Pending reports whether a run is armed.
func (t *Trigger) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

// Stop cancels the pending run without firing it, disables the trigger and
// waits for a run in progress to return.  It must not be called from fn.
func (t *Trigger) Stop() {
	t.Cancel()

	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()

	t.running.Lock()
	t.running.Unlock()
}
