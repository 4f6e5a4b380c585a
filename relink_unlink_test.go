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
	"github.com/polyfio/llio"
	"github.com/polyfio/llio/lliotesting"
)

func TestRelinkUnlink(t *testing.T) { RunTests(t) }

type RelinkUnlinkTest struct {
	dir     *llio.PathHandle
	dirPath string
	cleanup func()
}

func init() { RegisterTestSuite(&RelinkUnlinkTest{}) }

func (t *RelinkUnlinkTest) SetUp(ti *TestInfo) {
	var err error
	t.dir, t.dirPath, t.cleanup, err = lliotesting.TempDir("llio_relink_test")
	AssertEq(nil, err)
}

func (t *RelinkUnlinkTest) TearDown() {
	t.cleanup()
}

// Property 3: Relink/Unlink verify the handle's own identity against the
// directory entry before acting, so a concurrent rename-away of the
// original path does not cause the wrong file to be renamed or removed.
func (t *RelinkUnlinkTest) RelinkFollowsIdentityNotPath() {
	fh, err := llio.Open(t.dir, "original", llio.ModeWrite, llio.CreationIfNeeded, llio.CachingAll, 0)
	AssertEq(nil, err)
	defer fh.Close()

	// Somebody else renames the path out from under us before we relink.
	AssertEq(nil, os.Rename(t.dirPath+"/original", t.dirPath+"/renamed-by-someone-else"))

	AssertEq(nil, fh.Relink(t.dir, "final-name", llio.After(0)))

	_, statErr := os.Stat(t.dirPath + "/final-name")
	ExpectEq(nil, statErr)
	_, statErr = os.Stat(t.dirPath + "/renamed-by-someone-else")
	ExpectTrue(os.IsNotExist(statErr))
}

func (t *RelinkUnlinkTest) UnlinkRemovesTheRightInode() {
	fh, err := llio.Open(t.dir, "todelete", llio.ModeWrite, llio.CreationIfNeeded, llio.CachingAll, 0)
	AssertEq(nil, err)
	defer fh.Close()

	AssertEq(nil, fh.Unlink(llio.After(0)))

	_, statErr := os.Stat(t.dirPath + "/todelete")
	ExpectTrue(os.IsNotExist(statErr))
}

// Temp inodes have no directory entry to verify identity against, so
// Relink/Unlink are rejected outright rather than silently no-op'ing.
func (t *RelinkUnlinkTest) TempInodeRelinkUnsupported() {
	h, err := llio.TempInode(t.dir, llio.ModeWrite, llio.CachingAll, 0)
	AssertEq(nil, err)
	defer h.Close()

	err = h.Relink(t.dir, "named-now", llio.NoDeadline())
	AssertNe(nil, err)
	ExpectThat(err, lliotesting.HasKind(llio.KindOperationNotSupported))
}
