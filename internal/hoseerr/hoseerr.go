// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package hoseerr holds the sentinel shared by every hose error type.
package hoseerr

import "errors"

// ErrHose is matched by every error returned from hose, regardless of
// which package produced it.
var ErrHose = errors.New("hose error")

// Kind can be embedded in error types so that errors.Is(err, ErrHose)
// reports true for them.
type Kind struct{}

// Is implements the implicit interface used by errors.Is.
func (Kind) Is(target error) bool {
	return target == ErrHose
}
