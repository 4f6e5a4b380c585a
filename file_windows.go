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
	"unsafe"

	"golang.org/x/sys/windows"
)

func (fh *FileHandle) platformStatInode() (dev, ino uint64, ok bool) {
	var info windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(fh.winHandle(), &info); err != nil {
		return 0, 0, false
	}
	ino = uint64(info.FileIndexHigh)<<32 | uint64(info.FileIndexLow)
	return uint64(info.VolumeSerialNumber), ino, true
}

func (fh *FileHandle) platformLength() (int64, error) {
	var info windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(fh.winHandle(), &info); err != nil {
		return 0, mapWinError(err, "length")
	}
	return int64(info.FileSizeHigh)<<32 | int64(info.FileSizeLow), nil
}

// platformTruncate relies on SetEndOfFile after repositioning the file
// pointer: Windows has no pwrite-style one-shot truncate-to-offset call.
// Unlike POSIX, growth here is sparse rather than routed through
// go-fallocate — NTFS has its own FSCTL_SET_ZERO_DATA for this, which is
// out of scope for this port; callers that need preallocated extents
// should use MappedFileHandle.Reserve instead.
func (fh *FileHandle) platformTruncate(newSize int64) error {
	lo := int32(newSize)
	hi := int32(newSize >> 32)
	if _, err := windows.SetFilePointer(fh.winHandle(), lo, &hi, windows.FILE_BEGIN); err != nil {
		return mapWinError(err, "truncate")
	}
	if err := windows.SetEndOfFile(fh.winHandle()); err != nil {
		return mapWinError(err, "truncate")
	}
	return nil
}

// FILE_INFO_BY_HANDLE_CLASS values SetFileInformationByHandle expects.
// golang.org/x/sys/windows does not export these, so they are named
// locally rather than invented as a third-party symbol.
const (
	winFileRenameInfo       = 3
	winFileDispositionInfo  = 4
)

type fileRenameInfo struct {
	ReplaceIfExists uint8
	_               [7]byte
	RootDirectory   windows.Handle
	FileNameLength  uint32
	FileName        [1]uint16
}

// Relink renames the file in place via SetFileInformationByHandle with
// FileRenameInfo, which NTFS performs against the open handle's own file
// object rather than a re-resolved path, making it inherently race-free
// with no containing-directory dance needed (unlike the POSIX port).
func (fh *FileHandle) Relink(base *PathHandle, newpath string, deadline Deadline) error {
	if fh.Flag().Has(FlagAnonymousInode) {
		return newError(KindOperationNotSupported, "relink", nil)
	}
	full, err := fullPathFor(base, newpath)
	if err != nil {
		return err
	}
	full, err = filepath.Abs(full)
	if err != nil {
		return newError(KindInvalidArgument, "relink", err)
	}
	p16, err := windows.UTF16FromString(full)
	if err != nil {
		return newError(KindInvalidArgument, "relink", err)
	}

	size := int(unsafe.Sizeof(fileRenameInfo{})) + (len(p16)-1)*2
	buf := make([]byte, size)
	info := (*fileRenameInfo)(unsafe.Pointer(&buf[0]))
	info.ReplaceIfExists = 1
	info.FileNameLength = uint32((len(p16) - 1) * 2)
	dst := unsafe.Slice((*uint16)(unsafe.Pointer(&info.FileName[0])), len(p16)-1)
	copy(dst, p16[:len(p16)-1])

	if err := windows.SetFileInformationByHandle(
		fh.winHandle(),
		winFileRenameInfo,
		&buf[0],
		uint32(len(buf)),
	); err != nil {
		return mapWinError(err, "relink")
	}
	return nil
}

type fileDispositionInfo struct {
	DeleteFile uint8
}

// Unlink marks the file for deletion via FileDispositionInfo, which NTFS
// completes when the last handle to it closes; like Relink, this needs no
// containing-directory verification because it operates on the handle's
// file object directly.
func (fh *FileHandle) Unlink(deadline Deadline) error {
	if fh.Flag().Has(FlagAnonymousInode) {
		return newError(KindOperationNotSupported, "unlink", nil)
	}
	info := fileDispositionInfo{DeleteFile: 1}
	if err := windows.SetFileInformationByHandle(
		fh.winHandle(),
		winFileDispositionInfo,
		(*byte)(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)),
	); err != nil {
		return mapWinError(err, "unlink")
	}
	return nil
}
