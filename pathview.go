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
	"path"
	"sync"
)

// PathView is a non-owning view of a UTF-8 path, with a lazily-computed,
// cached, zero-copy-on-reuse NUL-terminated form for kernel-facing calls.
// It is the Go rendition of the source's path_view + "c_str shim": here
// "zero-copy" means "computed once and reused across repeated syscalls with
// the same PathView", since Go strings cannot themselves be handed to a
// syscall without an allocation.
type PathView struct {
	s string

	once sync.Once
	cstr []byte // s + a trailing NUL
}

// NewPathView wraps s. An empty s denotes "no path" (e.g. an anonymous
// inode, or an absolute open with no base).
func NewPathView(s string) PathView { return PathView{s: s} }

// String returns the path as given.
func (p PathView) String() string { return p.s }

// Empty reports whether this view carries no path.
func (p PathView) Empty() bool { return p.s == "" }

// CStr returns a byte slice containing the path's UTF-8 bytes followed by a
// single NUL terminator, suitable for passing to a raw syscall that wants a
// C string. The backing array is computed once per PathView value and
// reused on every subsequent call.
func (p *PathView) CStr() []byte {
	p.once.Do(func() {
		b := make([]byte, len(p.s)+1)
		copy(b, p.s)
		p.cstr = b
	})
	return p.cstr
}

// Split divides the view into (parent, leaf), the way containing_directory
// needs to in order to open the parent separately from the leaf it
// verifies.
func (p PathView) Split() (parent, leaf PathView) {
	dir, base := path.Split(p.s)
	if len(dir) > 1 && dir[len(dir)-1] == '/' {
		dir = dir[:len(dir)-1]
	}
	return NewPathView(dir), NewPathView(base)
}

// PathHandle is a directory-only Handle opened with no read/write rights,
// used purely as a relative-open anchor for FileHandle.Open and friends.
type PathHandle struct {
	Handle
}

// OpenPathHandle opens dir as a relative-open anchor. base may be nil for
// an absolute or cwd-relative open.
func OpenPathHandle(base *PathHandle, dir string) (*PathHandle, error) {
	h, err := openNative(base, dir, ModeAttrRead, CreationOpenExisting, CachingNone, 0, true)
	if err != nil {
		return nil, err
	}
	return &PathHandle{Handle: *h}, nil
}
