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

//go:build linux

package llio

import "golang.org/x/sys/unix"

func mapPopulate() int { return unix.MAP_POPULATE }

// madviseRemove punches a hole in the page cache/backing store for sub,
// per the design's Linux zero_memory path. Returning an error here makes
// the caller fall back to memset, which is always correct, just slower
// and non-hole-punching.
func madviseRemove(sub []byte) error {
	return unix.Madvise(sub, unix.MADV_REMOVE)
}

func madviseFree(sub []byte) error {
	return unix.Madvise(sub, unix.MADV_FREE)
}
