// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package parser

import (
	"errors"
	"io"
	"os"
)

var errNotMapping = errors.New("parsed content is not a key value mapping")

func readFile(uri string) (b []byte, err error) {
	f, err := os.Open(uri)
	if err != nil {
		return nil, err
	}
	defer func() {
		cerr := f.Close()
		if cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	return io.ReadAll(f)
}
