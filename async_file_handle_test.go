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

func TestAsyncFileHandle(t *testing.T) { RunTests(t) }

type AsyncFileHandleTest struct {
	dir     *llio.PathHandle
	dirPath string
	cleanup func()
}

func init() { RegisterTestSuite(&AsyncFileHandleTest{}) }

func (t *AsyncFileHandleTest) SetUp(ti *TestInfo) {
	var err error
	t.dir, t.dirPath, t.cleanup, err = lliotesting.TempDir("llio_async_test")
	AssertEq(nil, err)
}

func (t *AsyncFileHandleTest) TearDown() {
	t.cleanup()
}

// S5: async two writes.
func (t *AsyncFileHandleTest) TwoWrites() {
	fh, err := llio.Open(t.dir, "async", llio.ModeWrite, llio.CreationIfNeeded, llio.CachingAll, 0)
	AssertEq(nil, err)

	svc := llio.NewService()
	a := llio.NewAsyncFileHandle(fh, svc)
	defer a.Close()

	buf0 := make([]byte, 4096)
	buf1 := make([]byte, 4096)
	for i := range buf0 {
		buf0[i] = 'a'
	}
	for i := range buf1 {
		buf1[i] = 'b'
	}

	f0 := a.WriteAsync(llio.IORequest[llio.ConstBuffers]{
		Buffers: llio.ConstBuffers{buf0},
		Offset:  0,
	})
	f1 := a.WriteAsync(llio.IORequest[llio.ConstBuffers]{
		Buffers: llio.ConstBuffers{buf1},
		Offset:  4096,
	})

	for {
		more, err := svc.RunUntil(llio.NoDeadline())
		AssertEq(nil, err)
		if !more {
			break
		}
	}

	AssertTrue(f0.Ready())
	AssertTrue(f1.Ready())

	res0, err := f0.Get(svc, llio.Immediate())
	AssertEq(nil, err)
	ExpectEq(int64(4096), res0.BytesTransferred())

	res1, err := f1.Get(svc, llio.Immediate())
	AssertEq(nil, err)
	ExpectEq(int64(4096), res1.BytesTransferred())

	length, err := a.Length()
	AssertEq(nil, err)
	ExpectEq(int64(8192), length)
}

// Property 8: Service.Post is the sole safe cross-goroutine call, and a
// posted handler only runs once the owning goroutine pumps RunUntil.
func (t *AsyncFileHandleTest) CrossGoroutinePost() {
	svc := llio.NewService()
	ran := make(chan struct{}, 1)

	go func() {
		svc.Post(func() { ran <- struct{}{} })
	}()

	for svc.WorkQueued() == 0 {
		// Spin until the other goroutine's Post lands; RunUntil called
		// with none queued yet would just return immediately.
	}
	more, err := svc.RunUntil(llio.NoDeadline())
	AssertEq(nil, err)
	ExpectFalse(more)

	select {
	case <-ran:
	default:
		AssertTrue(false, "posted handler did not run during RunUntil")
	}
}
