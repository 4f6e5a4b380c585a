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

import "sync/atomic"

// Caching selects how a Handle's I/O interacts with the OS page/buffer
// cache. Values above CachingOnlyMetadata request data be cached; the ones
// at or above CachingReadsAndMetadata additionally make Close (and
// FileHandle.Truncate) issue a durability barrier unless Flag.DisableSafetyFsyncs is set — see
// Caching.impliesSafetyFsyncs.
type Caching int

const (
	CachingUnchanged Caching = iota
	CachingNone                // uncached; writes already hit storage (O_DIRECT|O_SYNC-ish)
	CachingOnlyMetadata        // uncached data, cached metadata (O_DIRECT)
	CachingReads               // cached reads; writes not guaranteed durable without a barrier
	CachingReadsAndMetadata
	CachingAll // normal buffered cache
	CachingSafetyFsyncs
	CachingTemporary // like All, hints the OS this file is short-lived
)

// impliesSafetyFsyncs reports whether this caching mode's Close/Truncate
// should fsync absent Flag.DisableSafetyFsyncs. CachingNone and
// CachingOnlyMetadata already push data through to storage synchronously,
// so an additional fsync on close would be redundant. CachingUnchanged and
// CachingReads issue none either; CachingReadsAndMetadata, CachingAll,
// CachingSafetyFsyncs and CachingTemporary do.
func (c Caching) impliesSafetyFsyncs() bool {
	switch c {
	case CachingReadsAndMetadata, CachingAll, CachingSafetyFsyncs, CachingTemporary:
		return true
	default:
		return false
	}
}

// Mode is the read/write/append access requested at open time.
type Mode int

const (
	ModeUnchanged Mode = iota
	ModeNone
	ModeAttrRead
	ModeAttrWrite
	ModeRead
	ModeWrite
	ModeAppend
)

// Creation selects what Open does about an existing or missing path entry.
type Creation int

const (
	CreationOpenExisting Creation = iota
	CreationOnlyIfNotExist
	CreationIfNeeded
	CreationTruncate
)

// Flag is a bitset of handle behaviour toggles.
type Flag uint32

const (
	FlagUnlinkOnClose Flag = 1 << iota
	FlagDisableSafetyFsyncs
	FlagDisableSafetyUnlinks
	FlagDisablePrefetching
	FlagMaximumPrefetching
	FlagWinDisableUnlinkEmulation
	FlagWinDisableSparseFileCreation
	FlagOverlapped
	FlagByteLockInsanity
	FlagAnonymousInode
)

func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

// Handle owns one nativeHandle, plus the caching mode and flags that
// govern its lifetime semantics. It is not copyable; Clone produces an
// independent OS descriptor, and the zero value is not usable (use Open /
// one of the typed constructors).
type Handle struct {
	native  nativeHandle
	caching Caching
	flag    Flag

	// closed is set atomically so a concurrent CurrentPath/Error path
	// capture never dereferences a descriptor that Close is tearing down.
	closed int32
}

// NativeHandle returns the underlying tagged descriptor. The result is a
// value type: dropping it has no effect on h.
func (h *Handle) NativeHandle() nativeHandle { return h.native }

// Disposition reports the capability bits of the underlying descriptor.
func (h *Handle) Disposition() Disposition { return h.native.disposition }

// Caching reports the handle's caching mode.
func (h *Handle) Caching() Caching { return h.caching }

// Flag reports the handle's flag bitset.
func (h *Handle) Flag() Flag { return h.flag }

// IsValid reports whether the handle has an open, non-sentinel descriptor.
func (h *Handle) IsValid() bool {
	return atomic.LoadInt32(&h.closed) == 0 && h.native.IsValid()
}

// areSafetyFsyncsIssued reports whether Close/Truncate should fsync: the
// caching mode implies it and FlagDisableSafetyFsyncs is not set.
func (h *Handle) areSafetyFsyncsIssued() bool {
	return h.caching.impliesSafetyFsyncs() && !h.flag.Has(FlagDisableSafetyFsyncs)
}

// Close closes the underlying OS descriptor, first issuing an fsync iff
// areSafetyFsyncsIssued. Any I/O error encountered while closing is
// treated as fatal per the design: silently losing durability on close is
// worse than terminating, so a close-time error logs and panics rather
// than returning to the caller to be ignored.
func (h *Handle) Close() error {
	if !atomic.CompareAndSwapInt32(&h.closed, 0, 1) {
		return nil
	}
	if h.areSafetyFsyncsIssued() {
		if err := h.platformFsync(); err != nil {
			getLogger().Panicf("llio: fsync on close failed, aborting: %v", err)
		}
	}
	if err := h.platformClose(); err != nil {
		getLogger().Panicf("llio: close failed, aborting: %v", err)
	}
	return nil
}

// Clone produces an independent OS descriptor referring to the same open
// file description (POSIX F_DUPFD_CLOEXEC/dup; Windows DuplicateHandle).
// Cloned handles share the file pointer and locks on POSIX.
func (h *Handle) Clone() (*Handle, error) {
	withActiveHandle(h, func() {})
	n, err := h.platformClone()
	if err != nil {
		return nil, err
	}
	return &Handle{native: n, caching: h.caching, flag: h.flag}, nil
}

// CurrentPath asks the OS for its current name for the open inode. It
// returns "" when the inode is unlinked, and always on FreeBSD, where no
// lookup is attempted (an unlinked inode and an unknown name look alike).
// It is expensive and racy; callers with a fixed anchor should hold a
// PathHandle instead.
func (h *Handle) CurrentPath() (string, error) {
	return h.platformCurrentPath()
}

// currentPathBestEffort implements activeHandle for the TLS path-capture
// hook: any error is swallowed, since a path lookup failing while
// constructing a diagnostic for an unrelated error must never itself
// surface.
func (h *Handle) currentPathBestEffort() string {
	p, err := h.CurrentPath()
	if err != nil {
		return ""
	}
	return p
}

// SetAppendOnly toggles the append disposition. On POSIX this is
// fcntl(F_SETFL, O_APPEND). Windows has no equivalent toggle, so the
// implementation only flips the disposition bit; the Windows write path
// (writeOneOverlapped in io_windows.go) checks that bit and submits with
// Offset = 0xffffffff:0xffffffff, which Windows itself treats as append.
func (h *Handle) SetAppendOnly(on bool) error {
	return h.platformSetAppendOnly(on)
}
