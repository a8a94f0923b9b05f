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
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/go-test/deep"
	"github.com/pkg/errors"
)

func TestMediaSourceNext(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"end of stream", nil, io.EOF},
		{"read failure", newError(ErrDecode, "read packet", errors.New("truncated file")), ErrDecode},
	}
	for _, test := range tests {
		ch := make(chan Frame, 1)
		ch <- Frame{Width: 8, Height: 8, Channels: 1, Pix: make([]uint8, 64)}
		close(ch)
		src := &MediaSource{frameBuffer: ch, err: test.err}

		f, err := src.Next()
		if err != nil {
			t.Fatalf("%s: first frame: %v", test.name, err)
		}
		if f.Width != 8 || f.Height != 8 {
			t.Errorf("%s: got %dx%d frame want 8x8", test.name, f.Width, f.Height)
		}
		for i := 0; i < 2; i++ {
			_, err = src.Next()
			if !errors.Is(err, test.wantErr) {
				t.Errorf("%s: read %d after the last frame: got %v want %v", test.name, i, err, test.wantErr)
			}
		}
		if test.wantErr == ErrDecode && err == io.EOF {
			t.Errorf("%s: decode failure reported as end of stream", test.name)
		}
	}
}

func TestPushSamples(t *testing.T) {
	want := [][2]float64{{0.5, -0.5}, {0.25, -1}}
	var buf bytes.Buffer
	for _, s := range want {
		if err := binary.Write(&buf, binary.LittleEndian, s); err != nil {
			t.Fatal(err)
		}
	}
	// A trailing half sample is dropped.
	buf.Write([]byte{1, 2, 3, 4, 5, 6, 7, 8})

	src := &MediaSource{sampleBuffer: make(chan [2]float64, 4), done: make(chan struct{})}
	if !src.pushSamples(buf.Bytes()) {
		t.Fatal("pushSamples stopped early")
	}
	close(src.sampleBuffer)
	var got [][2]float64
	for s := range src.sampleBuffer {
		got = append(got, s)
	}
	if diff := deep.Equal(got, want); diff != nil {
		t.Errorf("got %v want %v: %v", got, want, diff)
	}
}

func TestPushSamplesStopped(t *testing.T) {
	src := &MediaSource{sampleBuffer: make(chan [2]float64), done: make(chan struct{})}
	close(src.done)
	if src.pushSamples(make([]byte, 32)) {
		t.Error("pushSamples kept going after the source was closed")
	}
}
