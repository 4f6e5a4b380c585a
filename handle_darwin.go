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

import (
	"bytes"
	"unsafe"

	"golang.org/x/sys/unix"
)

// platformCurrentPath uses F_GETPATH, the macOS fcntl that returns the
// kernel's current path for an open descriptor. We additionally lstat the
// result: if it no longer names the same inode, the file has been unlinked
// (or replaced) since open, and we report no path rather than a stale one.
func (h *Handle) platformCurrentPath() (string, error) {
	var buf [unix.PathMax]byte
	_, _, errno := unix.Syscall(unix.SYS_FCNTL, uintptr(h.fd()), uintptr(unix.F_GETPATH), uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return "", mapErrno(errno, "current_path")
	}

	i := bytes.IndexByte(buf[:], 0)
	if i < 0 {
		i = len(buf)
	}
	p := string(buf[:i])

	var st unix.Stat_t
	if err := unix.Lstat(p, &st); err != nil {
		return "", nil
	}
	var fst unix.Stat_t
	if err := unix.Fstat(h.fd(), &fst); err == nil {
		if st.Dev != fst.Dev || st.Ino != fst.Ino {
			return "", nil
		}
	}
	return p, nil
}
