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

//go:build freebsd

package llio

// platformCurrentPath on FreeBSD has no equivalent of Linux's /proc/self/fd
// symlink or Darwin's F_GETPATH that this module can rely on without a
// kernel name cache lookup that itself returns empty whenever the cache has
// simply evicted the entry — indistinguishable from the inode having been
// unlinked. We surface that ambiguity as-is rather than paper over it with
// a false positive/negative: the empty return here means exactly what
// Handle.CurrentPath's doc says it can mean on this platform.
func (h *Handle) platformCurrentPath() (string, error) {
	return "", nil
}
