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

func directIOFlag() int { return unix.O_DIRECT }

// applyDirectIO is a no-op on Linux: O_DIRECT was already set at open time.
func applyDirectIO(fd int, caching Caching) error { return nil }

// tempInodeNative opens an anonymous, unlinked inode inside dir using
// O_TMPFILE, per the design's Linux temp-inode strategy. The result carries
// no path; FlagAnonymousInode is forced on so Close's safety fsync takes
// platformFsync's anonymous-inode branch.
func tempInodeNative(dir *PathHandle, mode Mode, caching Caching, flag Flag) (*Handle, error) {
	flag |= FlagAnonymousInode
	flags := openFlags(mode, CreationIfNeeded, caching, flag, false)
	flags = (flags &^ unix.O_CREAT) | unix.O_TMPFILE

	dirfd := dirfdOf(dir)
	var active activeHandle
	if dir != nil {
		active = &dir.Handle
	}
	var h *Handle
	var err error
	withActiveHandle(active, func() {
		fd, openErr := unix.Openat(dirfd, ".", flags, 0o600)
		if openErr != nil {
			err = mapErrno(openErr, "temp_inode")
			return
		}
		h = &Handle{
			native:  nativeHandle{disposition: dispositionFor(mode, false), raw: rawHandle(fd)},
			caching: caching,
			flag:    flag,
		}
	})
	return h, err
}
