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

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

const deletedSuffix = " (deleted)"

// platformCurrentPath reads /proc/self/fd/N, the only portable way on
// Linux to ask the kernel for its current name of an open inode. A
// "(deleted)" suffix means the inode has been unlinked; we report that as
// no path at all rather than a lie with a trailing annotation.
func (h *Handle) platformCurrentPath() (string, error) {
	link := fmt.Sprintf("/proc/self/fd/%d", h.fd())
	buf := make([]byte, 4096)
	n, err := unix.Readlink(link, buf)
	if err != nil {
		return "", mapErrno(err, "current_path")
	}
	p := string(buf[:n])
	if strings.HasSuffix(p, deletedSuffix) {
		return "", nil
	}
	return p, nil
}
