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

import "golang.org/x/sys/unix"

func directIOFlag() int { return unix.O_DIRECT }

// applyDirectIO is a no-op on FreeBSD: O_DIRECT was already set at open time.
func applyDirectIO(fd int, caching Caching) error { return nil }

// tempInodeNative has no O_TMPFILE equivalent on FreeBSD: create the file
// under a random name and unlink it immediately, racily but only visible as
// a name flash, matching the design's BSD strategy.
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
