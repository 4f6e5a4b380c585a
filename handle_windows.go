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
	"strings"

	"golang.org/x/sys/windows"
)

const deletedMarker = `\$Extend\$Deleted\`

func (h *Handle) platformFsync() error {
	return windows.FlushFileBuffers(h.winHandle())
}

func (h *Handle) platformClose() error {
	return windows.CloseHandle(h.winHandle())
}

func (h *Handle) platformClone() (nativeHandle, error) {
	proc := windows.CurrentProcess()
	var dup windows.Handle
	err := windows.DuplicateHandle(proc, h.winHandle(), proc, &dup, 0, false, windows.DUPLICATE_SAME_ACCESS)
	if err != nil {
		return nativeHandle{}, mapWinError(err, "clone")
	}
	return nativeHandle{disposition: h.native.disposition, raw: rawHandle(dup)}, nil
}

// platformCurrentPath asks the kernel for its current path for the handle
// via GetFinalPathNameByHandle. A "\$Extend\$Deleted\" component, present
// since Windows 10 1709, marks an NTFS inode whose last link has been
// removed but that remains open; we treat that the same way Linux's
// "(deleted)" suffix is treated.
func (h *Handle) platformCurrentPath() (string, error) {
	buf := make([]uint16, 4096)
	n, err := windows.GetFinalPathNameByHandle(h.winHandle(), &buf[0], uint32(len(buf)), windows.VOLUME_NAME_DOS)
	if err != nil {
		return "", mapWinError(err, "current_path")
	}
	p := windows.UTF16ToString(buf[:n])
	if strings.Contains(p, deletedMarker) {
		return "", nil
	}
	return p, nil
}

// platformSetAppendOnly flips only the disposition bit: Windows has no
// per-handle append-mode toggle syscall. The write path checks
// DispositionAppendOnly and submits with Offset = Offset_High = 0xffffffff
// when set, which is what makes this a correct substitute rather than a
// no-op — see platformWrite and writeOneOverlapped in io_windows.go.
func (h *Handle) platformSetAppendOnly(on bool) error {
	if on {
		h.native.disposition |= DispositionAppendOnly
	} else {
		h.native.disposition &^= DispositionAppendOnly
	}
	return nil
}

// mapWinError translates a golang.org/x/sys/windows error into the Kind
// taxonomy, capturing the active handle's path per §4.7.
func mapWinError(err error, op string) error {
	var kind Kind
	switch err {
	case windows.ERROR_FILE_EXISTS, windows.ERROR_ALREADY_EXISTS:
		kind = KindFileExists
	case windows.ERROR_FILE_NOT_FOUND, windows.ERROR_PATH_NOT_FOUND:
		kind = KindNoSuchFileOrDirectory
	case windows.ERROR_ACCESS_DENIED:
		kind = KindPermissionDenied
	case windows.ERROR_DIRECTORY:
		kind = KindNotADirectory
	case windows.ERROR_TIMEOUT, windows.WAIT_TIMEOUT:
		kind = KindTimedOut
	case windows.ERROR_OPERATION_ABORTED, windows.ERROR_CANCELLED:
		kind = KindOperationCanceled
	case windows.ERROR_INVALID_PARAMETER:
		kind = KindInvalidArgument
	case windows.ERROR_NOT_ENOUGH_MEMORY, windows.ERROR_OUTOFMEMORY:
		kind = KindNotEnoughMemory
	case windows.ERROR_NOT_SUPPORTED:
		kind = KindNotSupported
	case windows.ERROR_SHARING_VIOLATION, windows.ERROR_LOCK_VIOLATION:
		kind = KindResourceUnavailableTryAgain
	default:
		kind = KindRaw
	}
	return newError(kind, op, err)
}
