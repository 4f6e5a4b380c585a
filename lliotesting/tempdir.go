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

// Package lliotesting holds helpers for testing code built on llio.
package lliotesting

import (
	"os"

	"github.com/polyfio/llio"
)

// TempDir creates a fresh temporary directory and opens it as a
// llio.PathHandle, returning a cleanup func that closes the handle and
// removes the directory tree. Callers typically `defer cleanup()`
// immediately.
func TempDir(prefix string) (dir *llio.PathHandle, path string, cleanup func(), err error) {
	path, err = os.MkdirTemp("", prefix)
	if err != nil {
		return nil, "", nil, err
	}
	dir, err = llio.OpenPathHandle(nil, path)
	if err != nil {
		os.RemoveAll(path)
		return nil, "", nil, err
	}
	cleanup = func() {
		dir.Close()
		os.RemoveAll(path)
	}
	return dir, path, cleanup, nil
}
