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

import "golang.org/x/sys/unix"

// newSectionNative clones the backing file's descriptor: POSIX has no
// kernel object distinct from a file description to represent a "section",
// so the clone just carries the remembered flag/length for map time.
func newSectionNative(backing *FileHandle, maxSize int64, flag SectionFlag) (*SectionHandle, error) {
	cloned, err := backing.Clone()
	if err != nil {
		return nil, err
	}
	cloned.native.disposition |= DispositionSection
	return &SectionHandle{
		Handle:  *cloned,
		backing: backing,
		length:  maxSize,
		flag:    flag,
	}, nil
}

func (s *SectionHandle) platformTruncate(newSize int64) error {
	if err := unix.Ftruncate(s.fd(), newSize); err != nil {
		return mapErrno(err, "section_truncate")
	}
	return nil
}
