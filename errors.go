/**
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error categories. Match them with errors.Is.
var (
	ErrSourceOpen      = errors.New("source open failure")
	ErrDecode          = errors.New("decode failure")
	ErrInvalidInput    = errors.New("invalid input")
	ErrDegenerateInput = errors.New("degenerate input")
	ErrOutput          = errors.New("output failure")
)

// PlaybackError ties a failure to its category and the operation that hit it.
type PlaybackError struct {
	Kind error
	Op   string
	Err  error
}

func (e *PlaybackError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *PlaybackError) Unwrap() error { return e.Err }

func (e *PlaybackError) Is(target error) bool { return target == e.Kind }

func newError(kind error, op string, err error) error {
	return errors.WithStack(&PlaybackError{Kind: kind, Op: op, Err: err})
}

func invalidInput(op, format string, args ...interface{}) error {
	return newError(ErrInvalidInput, op, errors.Errorf(format, args...))
}
