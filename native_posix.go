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

// rawHandle is a POSIX file descriptor. -1 is the sentinel "no descriptor".
type rawHandle int

const invalidRawHandle rawHandle = -1

func rawHandleValid(r rawHandle) bool { return r != invalidRawHandle }

func (h *Handle) fd() int { return int(h.native.raw) }
