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
	"time"

	"github.com/jacobsa/timeutil"
)

// Deadline is a tagged union bounding a blocking call. The zero value,
// NoDeadline(), means wait indefinitely. Immediate() means try once and
// fail without blocking. Steady deadlines are relative durations measured
// from the moment the blocking call begins, not from Deadline construction;
// non-steady deadlines are absolute UTC points in time.
type Deadline struct {
	set    bool
	steady bool
	d      time.Duration
	utc    time.Time
}

// NoDeadline returns a Deadline meaning "wait forever".
func NoDeadline() Deadline { return Deadline{} }

// After returns a steady Deadline of d, measured from the call site of the
// blocking operation it is passed to. Negative durations clamp to zero.
func After(d time.Duration) Deadline {
	if d < 0 {
		d = 0
	}
	return Deadline{set: true, steady: true, d: d}
}

// Immediate returns a Deadline meaning "try once and fail rather than
// block", i.e. After(0).
func Immediate() Deadline { return After(0) }

// At returns a non-steady Deadline: an absolute UTC point in time.
func At(t time.Time) Deadline { return Deadline{set: true, steady: false, utc: t.UTC()} }

// IsSet reports whether the deadline is anything other than NoDeadline.
func (d Deadline) IsSet() bool { return d.set }

// IsSteady reports whether the deadline is a relative duration (true) or an
// absolute UTC time (false). Only meaningful when IsSet is true.
func (d Deadline) IsSteady() bool { return d.steady }

// IsImmediate reports whether this deadline demands a non-blocking attempt.
func (d Deadline) IsImmediate() bool { return d.set && d.steady && d.d == 0 }

// Expiry resolves the deadline to an absolute expiry time as of clock.Now(),
// the same way the design's run_until resolves a steady deadline against
// steady_clock::now() once per call. ok is false for NoDeadline.
func (d Deadline) Expiry(clock timeutil.Clock) (expiry time.Time, ok bool) {
	if !d.set {
		return time.Time{}, false
	}
	if d.steady {
		return clock.Now().Add(d.d), true
	}
	return d.utc, true
}

// Remaining returns how much time is left before the deadline expires, as of
// clock.Now(). A non-positive result means the deadline has already passed.
// ok is false for NoDeadline, in which case Remaining is meaningless.
func (d Deadline) Remaining(clock timeutil.Clock) (remaining time.Duration, ok bool) {
	expiry, ok := d.Expiry(clock)
	if !ok {
		return 0, false
	}
	return expiry.Sub(clock.Now()), true
}

var realClock = timeutil.RealClock()
