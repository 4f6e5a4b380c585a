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

//go:build windows

package llio

import (
	"path/filepath"

	"golang.org/x/sys/windows"
)

func accessMaskFor(mode Mode) uint32 {
	switch mode {
	case ModeAttrRead:
		return windows.FILE_READ_ATTRIBUTES
	case ModeAttrWrite:
		return windows.FILE_WRITE_ATTRIBUTES | windows.DELETE
	case ModeRead:
		return windows.GENERIC_READ
	case ModeWrite:
		return windows.GENERIC_READ | windows.GENERIC_WRITE | windows.DELETE
	case ModeAppend:
		return windows.GENERIC_READ | windows.FILE_APPEND_DATA | windows.DELETE
	default:
		return 0
	}
}

func creationDispositionFor(c Creation) uint32 {
	switch c {
	case CreationOnlyIfNotExist:
		return windows.CREATE_NEW
	case CreationIfNeeded:
		return windows.OPEN_ALWAYS
	case CreationTruncate:
		return windows.CREATE_ALWAYS
	default:
		return windows.OPEN_EXISTING
	}
}

func flagsAndAttributesFor(caching Caching, flag Flag, isDir bool) uint32 {
	a := uint32(windows.FILE_ATTRIBUTE_NORMAL)
	if isDir {
		a |= windows.FILE_FLAG_BACKUP_SEMANTICS
	}
	if flag.Has(FlagOverlapped) {
		a |= windows.FILE_FLAG_OVERLAPPED
	}
	switch caching {
	case CachingNone:
		a |= windows.FILE_FLAG_NO_BUFFERING | windows.FILE_FLAG_WRITE_THROUGH
	case CachingOnlyMetadata:
		a |= windows.FILE_FLAG_NO_BUFFERING
	}
	if flag.Has(FlagUnlinkOnClose) {
		a |= windows.FILE_FLAG_DELETE_ON_CLOSE | windows.FILE_ATTRIBUTE_HIDDEN
	}
	if flag.Has(FlagDisablePrefetching) {
		a |= windows.FILE_FLAG_RANDOM_ACCESS
	}
	if flag.Has(FlagMaximumPrefetching) {
		a |= windows.FILE_FLAG_SEQUENTIAL_SCAN
	}
	return a
}

// fullPathFor resolves p relative to base's own current path, since
// CreateFile has no dirfd-relative open on older Windows; NT's
// OBJECT_ATTRIBUTES-based relative open (NtCreateFile) would avoid this
// TOCTOU window, but golang.org/x/sys/windows does not expose it, so this
// is a documented platform limitation rather than full parity with the
// POSIX openat path.
func fullPathFor(base *PathHandle, p string) (string, error) {
	if base == nil || filepath.IsAbs(p) {
		return p, nil
	}
	baseDir, err := base.CurrentPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(baseDir, p), nil
}

func dispositionForWin(mode Mode, isDir bool) Disposition {
	d := Disposition(0)
	if isDir {
		d |= DispositionDirectory
	} else {
		d |= DispositionFile | DispositionSeekable
	}
	switch mode {
	case ModeRead, ModeAttrRead:
		d |= DispositionReadable
	case ModeWrite, ModeAppend:
		d |= DispositionReadable | DispositionWritable
		if mode == ModeAppend {
			d |= DispositionAppendOnly
		}
	}
	return d
}

func openNative(base *PathHandle, p string, mode Mode, creation Creation, caching Caching, flag Flag, isDir bool) (*Handle, error) {
	full, err := fullPathFor(base, p)
	if err != nil {
		return nil, err
	}
	p16, err := windows.UTF16PtrFromString(full)
	if err != nil {
		return nil, newError(KindInvalidArgument, "open", err)
	}

	share := uint32(windows.FILE_SHARE_READ | windows.FILE_SHARE_WRITE | windows.FILE_SHARE_DELETE)
	h, err := windows.CreateFile(
		p16,
		accessMaskFor(mode),
		share,
		nil,
		creationDispositionFor(creation),
		flagsAndAttributesFor(caching, flag, isDir),
		0,
	)
	if err != nil {
		return nil, mapWinError(err, "open")
	}
	return &Handle{
		native:  nativeHandle{disposition: dispositionForWin(mode, isDir), raw: rawHandle(h)},
		caching: caching,
		flag:    flag,
	}, nil
}

// tempInodeNative creates the file with a random name, hidden and marked
// delete-on-close, inside dir: the closest Windows analogue to an
// unlinked-but-open POSIX inode.
func tempInodeNative(dir *PathHandle, mode Mode, caching Caching, flag Flag) (*Handle, error) {
	fh, _, err := RandomFile(dir, mode, caching, flag|FlagUnlinkOnClose|FlagAnonymousInode)
	if err != nil {
		return nil, err
	}
	return &fh.Handle, nil
}
