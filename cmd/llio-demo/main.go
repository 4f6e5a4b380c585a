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

// Command llio-demo walks through the scenarios llio's package doc
// describes: a temp inode that never touches the directory, a scatter
// write and gather read, two overlapping async writes driven by one
// io_service, and a mapped file that grows across a truncate. It exists
// as a runnable companion to the package doc, the same role samples/
// played for the FUSE server this module started from.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/polyfio/llio"
)

func main() {
	flag.Parse()

	dir, err := os.MkdirTemp("", "llio-demo")
	if err != nil {
		log.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(dir)

	base, err := llio.OpenPathHandle(nil, dir)
	if err != nil {
		log.Fatalf("OpenPathHandle: %v", err)
	}
	defer base.Close()

	tempInodeDemo(base)
	scatterGatherDemo(base)
	asyncTwoWritesDemo(base)
	mappedGrowthDemo(base)
}

func tempInodeDemo(base *llio.PathHandle) {
	h, err := llio.TempInode(base, llio.ModeWrite, llio.CachingAll, 0)
	if err != nil {
		log.Fatalf("TempInode: %v", err)
	}
	defer h.Close()

	msg := []byte("Hello, world!\n")
	res := h.Write(llio.IORequest[llio.ConstBuffers]{Buffers: llio.ConstBuffers{msg}}, llio.NoDeadline())
	if res.Err != nil {
		log.Fatalf("Write: %v", res.Err)
	}

	p, err := h.CurrentPath()
	if err != nil {
		log.Fatalf("CurrentPath: %v", err)
	}
	fmt.Printf("temp inode: current_path=%q (empty means no directory entry)\n", p)
}

func scatterGatherDemo(base *llio.PathHandle) {
	f, err := llio.Open(base, "scatter", llio.ModeWrite, llio.CreationIfNeeded, llio.CachingAll, 0)
	if err != nil {
		log.Fatalf("Open: %v", err)
	}
	defer f.Close()

	wres := f.Write(llio.IORequest[llio.ConstBuffers]{
		Buffers: llio.ConstBuffers{[]byte("ABCD"), []byte("EFGH"), []byte("IJKL")},
	}, llio.NoDeadline())
	if wres.Err != nil {
		log.Fatalf("Write: %v", wres.Err)
	}

	b1, b2, b3 := make([]byte, 4), make([]byte, 4), make([]byte, 4)
	rres := f.Read(llio.IORequest[llio.Buffers]{Buffers: llio.Buffers{b1, b2, b3}}, llio.NoDeadline())
	if rres.Err != nil {
		log.Fatalf("Read: %v", rres.Err)
	}
	fmt.Printf("scatter/gather: %s %s %s (%d bytes)\n", b1, b2, b3, rres.BytesTransferred())
}

func asyncTwoWritesDemo(base *llio.PathHandle) {
	fh, err := llio.Open(base, "async", llio.ModeWrite, llio.CreationIfNeeded, llio.CachingAll, 0)
	if err != nil {
		log.Fatalf("Open: %v", err)
	}

	svc := llio.NewService()
	a := llio.NewAsyncFileHandle(fh, svc)
	defer a.Close()

	buf0, buf1 := make([]byte, 4096), make([]byte, 4096)
	f0 := a.WriteAsync(llio.IORequest[llio.ConstBuffers]{Buffers: llio.ConstBuffers{buf0}, Offset: 0})
	f1 := a.WriteAsync(llio.IORequest[llio.ConstBuffers]{Buffers: llio.ConstBuffers{buf1}, Offset: 4096})

	if err := svc.Run(); err != nil {
		log.Fatalf("Run: %v", err)
	}

	r0, _ := f0.Get(svc, llio.Immediate())
	r1, _ := f1.Get(svc, llio.Immediate())
	length, _ := a.Length()
	fmt.Printf("async writes: %d + %d bytes, file length %d\n",
		r0.BytesTransferred(), r1.BytesTransferred(), length)
}

func mappedGrowthDemo(base *llio.PathHandle) {
	mfh, err := llio.OpenMapped(base, "mapped", llio.ModeWrite, llio.CreationIfNeeded,
		llio.CachingAll, 0, llio.SectionRead|llio.SectionWrite)
	if err != nil {
		log.Fatalf("OpenMapped: %v", err)
	}
	defer mfh.Close()

	if _, err := mfh.Truncate(4096); err != nil {
		log.Fatalf("Truncate: %v", err)
	}
	copy(mfh.Bytes(), []byte("written through the map"))

	if _, err := mfh.Truncate(8192); err != nil {
		log.Fatalf("Truncate: %v", err)
	}
	fmt.Printf("mapped file grew to %d bytes, prefix still reads %q\n",
		len(mfh.Bytes()), string(mfh.Bytes()[:24]))
}
