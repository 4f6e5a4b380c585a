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

// Package llio provides a portable, race-free abstraction over the native
// file, directory, section and mapped-memory primitives of POSIX and
// Windows, together with a single-threaded cooperative reactor that
// multiplexes asynchronous scatter/gather I/O against those primitives.
//
// The primary elements of interest are:
//
//  *  Handle, which owns a native OS descriptor and enforces lifetime,
//     cloning and close-with-barrier semantics.
//
//  *  FileHandle, SectionHandle, MapHandle and MappedFileHandle, which build
//     on Handle to provide files, kernel memory sections, mapped views, and
//     the combination of the two that auto-remaps across truncation.
//
//  *  Service, the reactor that binds AsyncFileHandle operations to a single
//     owning goroutine and delivers their completions cooperatively.
//
// Synchronous operations flow directly through the host OS's syscalls.
// Asynchronous operations are submitted to a Service and their completions
// are delivered only when that Service's RunUntil is pumped from its owning
// goroutine.
package llio
