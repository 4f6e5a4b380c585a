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
	"runtime"
	"strconv"
)

// goroutineID stands in for the pthread_self() / GetCurrentThreadId()
// identity capture the design calls for: Service binds to one owning
// goroutine, and error path capture is scoped to the capturing goroutine.
// Go exposes no public goroutine-id API, so this parses the id out of the
// runtime.Stack header the same way goroutine-leak detectors in the wild do.
// It runs on every Service owner check, every withActiveHandle scope (each
// Read/Write/Barrier/Lock) and every Error construction.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]

	// Expect "goroutine 123 [running]:\n..."
	const prefix = "goroutine "
	if len(b) < len(prefix) {
		return -1
	}
	b = b[len(prefix):]

	i := 0
	for i < len(b) && b[i] != ' ' {
		i++
	}

	id, err := strconv.ParseInt(string(b[:i]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
