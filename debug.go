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

package llio

import (
	"flag"
	"io"
	"log"
	"os"
	"sync"
)

var fEnableDebug = flag.Bool(
	"llio.debug",
	false,
	"Write llio debugging messages (reactor submission/completion, lock "+
		"contention, relink/unlink races) to stderr.")

// CapturePaths controls whether Error construction pulls the active
// handle's CurrentPath into the per-goroutine TLS-style ring (§4.7). It
// defaults to on; disabling it makes Error construction cheaper at the cost
// of losing the .Path() diagnostic.
var CapturePaths = true

var gLogger *log.Logger
var gLoggerOnce sync.Once

func initLogger() {
	if !flag.Parsed() {
		panic("llio: getLogger called before flag.Parse; call flag.Parse " +
			"in main before performing any llio I/O if -llio.debug matters to you")
	}

	var writer io.Writer = io.Discard
	if *fEnableDebug {
		writer = os.Stderr
	}

	const flags = log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile
	gLogger = log.New(writer, "llio: ", flags)
}

func getLogger() *log.Logger {
	gLoggerOnce.Do(initLogger)
	return gLogger
}
