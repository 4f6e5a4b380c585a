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
	"testing"

	. "github.com/jacobsa/ogletest"
	"github.com/polyfio/llio"
	"github.com/polyfio/llio/lliotesting"
)

func TestMappedFileHandle(t *testing.T) { RunTests(t) }

type MappedFileHandleTest struct {
	dir     *llio.PathHandle
	dirPath string
	cleanup func()
}

func init() { RegisterTestSuite(&MappedFileHandleTest{}) }

func (t *MappedFileHandleTest) SetUp(ti *TestInfo) {
	var err error
	t.dir, t.dirPath, t.cleanup, err = lliotesting.TempDir("llio_mapped_test")
	AssertEq(nil, err)
}

func (t *MappedFileHandleTest) TearDown() {
	t.cleanup()
}

// A zero-length file has no map; Reserve over it must fail with
// invalid_seek rather than succeed on an empty window.
func (t *MappedFileHandleTest) ZeroLengthFileHasNoMap() {
	mfh, err := llio.OpenMapped(t.dir, "empty", llio.ModeWrite, llio.CreationIfNeeded,
		llio.CachingAll, 0, llio.SectionRead|llio.SectionWrite)
	AssertEq(nil, err)
	defer mfh.Close()

	ExpectEq(0, len(mfh.Bytes()))

	_, err = mfh.Reserve(4096)
	AssertNe(nil, err)
	ExpectThat(err, lliotesting.HasKind(llio.KindInvalidSeek))
}

// S6: map-of-file mutation. Writing through the mapping's bytes must be
// observable via a normal Read.
func (t *MappedFileHandleTest) MapOfFileMutation() {
	fh, err := llio.Open(t.dir, "mapped", llio.ModeWrite, llio.CreationIfNeeded, llio.CachingAll, 0)
	AssertEq(nil, err)
	_, err = fh.Truncate(4096)
	AssertEq(nil, err)
	AssertEq(nil, fh.Close())

	mfh, err := llio.OpenMapped(t.dir, "mapped", llio.ModeWrite, llio.CreationOpenExisting,
		llio.CachingAll, 0, llio.SectionRead|llio.SectionWrite)
	AssertEq(nil, err)
	defer mfh.Close()

	b := mfh.Bytes()
	AssertEq(4096, len(b))
	copy(b, []byte("mutated via map"))

	buf := make([]byte, len("mutated via map"))
	rres := mfh.Read(llio.IORequest[llio.Buffers]{Buffers: llio.Buffers{buf}}, llio.NoDeadline())
	AssertEq(nil, rres.Err)
	ExpectEq("mutated via map", string(buf))
}

// Growing a mapped file past its current reservation must re-map and
// extend the observed window; the new tail should be visible in Bytes().
func (t *MappedFileHandleTest) GrowPastReservation() {
	mfh, err := llio.OpenMapped(t.dir, "grows", llio.ModeWrite, llio.CreationIfNeeded,
		llio.CachingAll, 0, llio.SectionRead|llio.SectionWrite)
	AssertEq(nil, err)
	defer mfh.Close()

	_, err = mfh.Truncate(4096)
	AssertEq(nil, err)
	ExpectEq(4096, len(mfh.Bytes()))

	_, err = mfh.Truncate(2 * 4096)
	AssertEq(nil, err)
	ExpectEq(2*4096, len(mfh.Bytes()))

	length, err := mfh.Length()
	AssertEq(nil, err)
	ExpectEq(int64(2*4096), length)
}

// Shrinking a mapped file should shrink the observed window without
// disturbing the surviving prefix's contents.
func (t *MappedFileHandleTest) ShrinkPreservesPrefix() {
	mfh, err := llio.OpenMapped(t.dir, "shrinks", llio.ModeWrite, llio.CreationIfNeeded,
		llio.CachingAll, 0, llio.SectionRead|llio.SectionWrite)
	AssertEq(nil, err)
	defer mfh.Close()

	_, err = mfh.Truncate(8192)
	AssertEq(nil, err)
	copy(mfh.Bytes(), []byte("keepme"))

	_, err = mfh.Truncate(4096)
	AssertEq(nil, err)
	ExpectEq(4096, len(mfh.Bytes()))
	ExpectEq("keepme", string(mfh.Bytes()[:6]))
}
