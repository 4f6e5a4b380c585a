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

//go:build darwin

package llio

import "golang.org/x/sys/unix"

// mapPopulate has no Darwin equivalent; VM_PREFAULT_READ is not exposed by
// golang.org/x/sys/unix, so SectionPrefault has no effect on Darwin. Pages
// are not touched in advance; Prefetch only issues madvise(MADV_WILLNEED).
func mapPopulate() int { return 0 }

// madviseRemove: Darwin has no MADV_REMOVE; returning an error routes the
// caller to its memset fallback, which is correct.
func madviseRemove(sub []byte) error { return errNotSupportedHere }

func madviseFree(sub []byte) error {
	return unix.Madvise(sub, unix.MADV_FREE)
}

var errNotSupportedHere = unix.ENOTSUP
