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

package llio_test

import (
	"os"
	"testing"

	. "github.com/jacobsa/ogletest"
	"github.com/kylelemons/godebug/pretty"
	"github.com/polyfio/llio"
	"github.com/polyfio/llio/lliotesting"
)

func TestFileHandle(t *testing.T) { RunTests(t) }

type FileHandleTest struct {
	dir     *llio.PathHandle
	dirPath string
	cleanup func()
}

func init() { RegisterTestSuite(&FileHandleTest{}) }

func (t *FileHandleTest) SetUp(ti *TestInfo) {
	var err error
	t.dir, t.dirPath, t.cleanup, err = lliotesting.TempDir("llio_file_handle_test")
	AssertEq(nil, err)
}

func (t *FileHandleTest) TearDown() {
	t.cleanup()
}

// S1: temp-inode round trip.
func (t *FileHandleTest) TempInodeRoundTrip() {
	h, err := llio.TempInode(t.dir, llio.ModeWrite, llio.CachingAll, 0)
	AssertEq(nil, err)
	defer h.Close()

	p, err := h.CurrentPath()
	AssertEq(nil, err)
	ExpectEq("", p)

	msg := []byte("Hello, world!\n")
	wres := h.Write(llio.IORequest[llio.ConstBuffers]{
		Buffers: llio.ConstBuffers{msg},
		Offset:  0,
	}, llio.NoDeadline())
	AssertEq(nil, wres.Err)
	ExpectEq(int64(len(msg)), wres.BytesTransferred())

	buf := make([]byte, len(msg))
	rres := h.Read(llio.IORequest[llio.Buffers]{
		Buffers: llio.Buffers{buf},
		Offset:  0,
	}, llio.NoDeadline())
	AssertEq(nil, rres.Err)
	ExpectEq(string(msg), string(rres.Buffers[0]))

	entries, err := os.ReadDir(t.dirPath)
	AssertEq(nil, err)
	ExpectEq(0, len(entries))
}

// S2: truncate preserves identity.
func (t *FileHandleTest) TruncatePreservesIdentity() {
	f, err := llio.Open(t.dir, "data", llio.ModeWrite, llio.CreationIfNeeded, llio.CachingAll, 0)
	AssertEq(nil, err)
	defer f.Close()

	data := make([]byte, 1024)
	wres := f.Write(llio.IORequest[llio.ConstBuffers]{Buffers: llio.ConstBuffers{data}}, llio.NoDeadline())
	AssertEq(nil, wres.Err)

	info1, err := os.Stat(t.dirPath + "/data")
	AssertEq(nil, err)
	AssertEq(nil, f.Close())

	f2, err := llio.Open(t.dir, "data", llio.ModeWrite, llio.CreationTruncate, llio.CachingAll, 0)
	AssertEq(nil, err)
	defer f2.Close()

	length, err := f2.Length()
	AssertEq(nil, err)
	ExpectEq(int64(0), length)

	info2, err := os.Stat(t.dirPath + "/data")
	AssertEq(nil, err)
	ExpectTrue(os.SameFile(info1, info2))
}

// S3: scatter read.
func (t *FileHandleTest) ScatterRead() {
	f, err := llio.Open(t.dir, "scatter", llio.ModeWrite, llio.CreationIfNeeded, llio.CachingAll, 0)
	AssertEq(nil, err)
	defer f.Close()

	wres := f.Write(llio.IORequest[llio.ConstBuffers]{
		Buffers: llio.ConstBuffers{[]byte("ABCDEFGHIJKL")},
	}, llio.NoDeadline())
	AssertEq(nil, wres.Err)

	b1, b2, b3 := make([]byte, 4), make([]byte, 4), make([]byte, 4)
	rres := f.Read(llio.IORequest[llio.Buffers]{
		Buffers: llio.Buffers{b1, b2, b3},
	}, llio.NoDeadline())
	AssertEq(nil, rres.Err)
	ExpectEq(int64(12), rres.BytesTransferred())

	want := []string{"ABCD", "EFGH", "IJKL"}
	got := []string{string(rres.Buffers[0]), string(rres.Buffers[1]), string(rres.Buffers[2])}
	if diff := pretty.Compare(want, got); diff != "" {
		AssertTrue(false, "scatter read mismatch (-want +got):\n%s", diff)
	}
}

// S4: lock timeout.
func (t *FileHandleTest) LockTimeout() {
	a, err := llio.Open(t.dir, "locked", llio.ModeWrite, llio.CreationIfNeeded, llio.CachingAll, 0)
	AssertEq(nil, err)
	defer a.Close()
	if _, err := a.Truncate(4096); err != nil {
		AssertEq(nil, err)
	}

	b, err := llio.Open(t.dir, "locked", llio.ModeWrite, llio.CreationOpenExisting, llio.CachingAll, 0)
	AssertEq(nil, err)
	defer b.Close()

	guardA, err := a.Lock(0, 1024, true, llio.NoDeadline())
	AssertEq(nil, err)

	_, err = b.Lock(0, 1024, true, llio.Immediate())
	AssertNe(nil, err)
	ExpectThat(err, lliotesting.HasKind(llio.KindTimedOut))

	guardA.Unlock()

	guardB, err := b.Lock(0, 1024, true, llio.Immediate())
	AssertEq(nil, err)
	guardB.Unlock()
}
