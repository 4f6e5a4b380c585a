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

package lliotesting

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/jacobsa/oglematchers"
	"github.com/polyfio/llio"
)

// HasKind matches *llio.Error values (and values implementing error that
// unwrap to one) whose Kind equals the expected one.
func HasKind(expected llio.Kind) oglematchers.Matcher {
	return oglematchers.NewMatcher(
		func(c interface{}) error { return hasKind(c, expected) },
		fmt.Sprintf("has kind %v", expected))
}

func hasKind(c interface{}, expected llio.Kind) error {
	err, ok := c.(error)
	if !ok {
		return fmt.Errorf("which is of type %v", reflect.TypeOf(c))
	}
	var e *llio.Error
	if !errors.As(err, &e) {
		return fmt.Errorf("which is not a *llio.Error: %v", err)
	}
	if e.Kind != expected {
		return fmt.Errorf("which has kind %v", e.Kind)
	}
	return nil
}

// LocksContend probes whether a second, independent lock over the same
// [offset, offset+length) range on path would block, by opening path
// again and attempting a non-blocking lock with the given exclusivity.
// It is meant for tests asserting that one handle's lock is actually
// visible to another.
func LocksContend(dir *llio.PathHandle, name string, offset, length int64, exclusive bool) (bool, error) {
	probe, err := llio.Open(dir, name, llio.ModeWrite, llio.CreationOpenExisting, llio.CachingAll, 0)
	if err != nil {
		return false, err
	}
	defer probe.Close()

	guard, err := probe.Lock(offset, length, exclusive, llio.Immediate())
	if err != nil {
		if e, ok := err.(*llio.Error); ok && e.Kind == llio.KindTimedOut {
			return true, nil
		}
		return false, err
	}
	guard.Unlock()
	return false, nil
}
