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

// directIOFlag is 0 on Darwin: there is no O_DIRECT. Uncached caching modes
// are applied post-open via fcntl(F_NOCACHE) in applyDirectIO, called from
// openNative in open_posix.go after a successful open.
func directIOFlag() int { return 0 }

func applyDirectIO(fd int, caching Caching) error {
	if caching != CachingNone && caching != CachingOnlyMetadata {
		return nil
	}
	_, err := unix.FcntlInt(uintptr(fd), unix.F_NOCACHE, 1)
	return err
}

// tempInodeNative has no O_TMPFILE equivalent on Darwin: create the file
// under a random name and unlink it immediately, matching the design's BSD
// strategy.
func tempInodeNative(dir *PathHandle, mode Mode, caching Caching, flag Flag) (*Handle, error) {
	h, name, err := RandomFile(dir, mode, caching, flag|FlagAnonymousInode)
	if err != nil {
		return nil, err
	}
	dirfd := dirfdOf(dir)
	if unlinkErr := unix.Unlinkat(dirfd, name, 0); unlinkErr != nil {
		_ = h.Close()
		return nil, mapErrno(unlinkErr, "temp_inode")
	}
	return &h.Handle, nil
}
