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

//go:build linux || darwin || freebsd

package llio

import (
	"os"
	"time"

	fallocate "github.com/detailyang/go-fallocate"
	"golang.org/x/sys/unix"
)

func (fh *FileHandle) platformStatInode() (dev, ino uint64, ok bool) {
	var st unix.Stat_t
	if err := unix.Fstat(fh.fd(), &st); err != nil {
		return 0, 0, false
	}
	return uint64(st.Dev), uint64(st.Ino), true
}

func (fh *FileHandle) platformLength() (int64, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fh.fd(), &st); err != nil {
		return 0, mapErrno(err, "length")
	}
	return st.Size, nil
}

// platformTruncate grows or shrinks the file. Growing goes through
// go-fallocate so the new extent is actually allocated (not just a sparse
// hole some filesystems would otherwise leave, surprising later Write
// callers expecting ENOSPC up front rather than mid-write).
func (fh *FileHandle) platformTruncate(newSize int64) error {
	cur, err := fh.platformLength()
	if err != nil {
		return err
	}
	if newSize > cur {
		if err := growWithFallocate(fh.fd(), newSize); err != nil {
			if err := unix.Ftruncate(fh.fd(), newSize); err != nil {
				return mapErrno(err, "truncate")
			}
		}
		return nil
	}
	if err := unix.Ftruncate(fh.fd(), newSize); err != nil {
		return mapErrno(err, "truncate")
	}
	return nil
}

// growWithFallocate allocates the extent through detailyang/go-fallocate,
// which wants an *os.File. We hand it a dup'd descriptor rather than
// os.NewFile(fd) directly: *os.File registers a GC finalizer that closes
// its fd, and fd is still owned by fh's own Handle, not by us.
func growWithFallocate(fd int, size int64) error {
	dupFd, err := unix.Dup(fd)
	if err != nil {
		return err
	}
	f := os.NewFile(uintptr(dupFd), "")
	defer f.Close()
	return fallocate.Fallocate(f, 0, size)
}

// containingDirectoryRetryLoop is the race-free dance behind Relink/Unlink:
// ask the kernel for the handle's current path, open its parent, and verify
// the parent's idea of the leaf name still resolves to this handle's
// (dev, ino). Retries until deadline because CurrentPath and the directory
// open are two independent syscalls and a third party can rename the file
// in between; only a dev/ino match means the race didn't happen.
func (fh *FileHandle) containingDirectoryRetryLoop(deadline Deadline) (dir *PathHandle, leaf string, err error) {
	if !fh.hasInode {
		return nil, "", newError(KindOperationNotSupported, "containing_directory", nil)
	}
	expiry, _ := deadline.Expiry(realClock)
	for {
		p, cpErr := fh.CurrentPath()
		if cpErr != nil {
			return nil, "", cpErr
		}
		if p == "" {
			return nil, "", newError(KindNoSuchFileOrDirectory, "containing_directory", nil)
		}
		view := NewPathView(p)
		parent, leafView := view.Split()

		d, openErr := OpenPathHandle(nil, parent.String())
		if openErr == nil {
			var st unix.Stat_t
			statErr := unix.Fstatat(d.fd(), leafView.String(), &st, unix.AT_SYMLINK_NOFOLLOW)
			if statErr == nil && uint64(st.Dev) == fh.dev && uint64(st.Ino) == fh.ino {
				return d, leafView.String(), nil
			}
			_ = d.Close()
		}

		if !deadline.IsSet() {
			time.Sleep(1 * time.Millisecond)
			continue
		}
		remaining := expiry.Sub(realClock.Now())
		if remaining <= 0 {
			return nil, "", newError(KindTimedOut, "containing_directory", nil)
		}
		sleep := 1 * time.Millisecond
		if remaining < sleep {
			sleep = remaining
		}
		time.Sleep(sleep)
	}
}

// Relink atomically renames the file to newpath relative to base, first
// re-deriving and verifying its current containing directory so a
// concurrent rename of the old path cannot cause this call to silently
// operate on the wrong directory entry.
func (fh *FileHandle) Relink(base *PathHandle, newpath string, deadline Deadline) error {
	oldDir, oldLeaf, err := fh.containingDirectoryRetryLoop(deadline)
	if err != nil {
		return err
	}
	defer oldDir.Close()

	newDirfd := dirfdOf(base)
	if err := unix.Renameat(oldDir.fd(), oldLeaf, newDirfd, newpath); err != nil {
		return mapErrno(err, "relink")
	}
	return nil
}

// Unlink removes the file's current directory entry, verified the same
// race-free way as Relink.
func (fh *FileHandle) Unlink(deadline Deadline) error {
	dir, leaf, err := fh.containingDirectoryRetryLoop(deadline)
	if err != nil {
		return err
	}
	defer dir.Close()

	if err := unix.Unlinkat(dir.fd(), leaf, 0); err != nil {
		return mapErrno(err, "unlink")
	}
	return nil
}
