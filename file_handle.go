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
	"crypto/rand"
	"encoding/hex"
)

// FileHandle is a Handle plus the (device, inode) pair captured at open
// time (when FlagDisableSafetyUnlinks is not set), used to make Relink and
// Unlink race-free against a third party replacing the path out from under
// an open descriptor.
type FileHandle struct {
	Handle

	dev, ino uint64
	hasInode bool
	service  *Service // bound reactor, if this handle was opened for async use
}

// Open opens a file relative to base (or absolute/cwd-relative when base is
// nil), per the mode×creation×caching×flag table in the design.
func Open(base *PathHandle, p string, mode Mode, creation Creation, caching Caching, flag Flag) (*FileHandle, error) {
	h, err := openNative(base, p, mode, creation, caching, flag, false)
	if err != nil {
		return nil, err
	}
	fh := &FileHandle{Handle: *h}
	if !flag.Has(FlagDisableSafetyUnlinks) {
		fh.dev, fh.ino, fh.hasInode = fh.platformStatInode()
	}
	return fh, nil
}

// TempInode creates an anonymous file with no directory entry inside dir,
// using whatever race-free mechanism the platform offers (O_TMPFILE on
// Linux, create-then-unlink on the BSDs and Darwin, a hidden
// delete-on-close file on Windows). The result carries FlagAnonymousInode;
// Relink/Unlink against it return KindOperationNotSupported, since it has
// no directory entry for containingDirectoryRetryLoop to verify against
// (giving it a first name via linkat(AT_EMPTY_PATH) on Linux would lift
// this, but that path is not implemented here).
func TempInode(dir *PathHandle, mode Mode, caching Caching, flag Flag) (*FileHandle, error) {
	h, err := tempInodeNative(dir, mode, caching, flag)
	if err != nil {
		return nil, err
	}
	return &FileHandle{Handle: *h}, nil
}

// RandomFile creates a new file with a randomly generated 64-hex-character
// name plus a ".random" suffix, relative to base, retrying on collision.
func RandomFile(base *PathHandle, mode Mode, caching Caching, flag Flag) (fh *FileHandle, name string, err error) {
	for {
		var raw [32]byte
		if _, err := rand.Read(raw[:]); err != nil {
			return nil, "", newError(KindNotEnoughMemory, "random_file", err)
		}
		candidate := hex.EncodeToString(raw[:]) + ".random"

		fh, err = Open(base, candidate, mode, CreationOnlyIfNotExist, caching, flag)
		if err == nil {
			return fh, candidate, nil
		}
		if e, ok := err.(*Error); ok && e.Kind == KindFileExists {
			continue
		}
		return nil, "", err
	}
}

// Length reports the file's current size.
func (fh *FileHandle) Length() (int64, error) {
	return fh.platformLength()
}

// Truncate sets the file's length. Growing the file does not zero-fill on
// every platform identically, but never exposes prior unrelated disk
// contents (the OS guarantees this, not llio).
func (fh *FileHandle) Truncate(newSize int64) (int64, error) {
	if err := fh.platformTruncate(newSize); err != nil {
		return 0, err
	}
	if fh.areSafetyFsyncsIssued() {
		if err := fh.platformFsync(); err != nil {
			return 0, err
		}
	}
	return fh.Length()
}
