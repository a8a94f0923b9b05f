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
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshotRasterize(t *testing.T) {
	s, err := NewSnapshot("", 0, "", MoonPalette())
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	img, err := s.Rasterize("ab\ncd\n\n")
	if err != nil {
		t.Fatal(err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		t.Errorf("empty canvas %v", b)
	}
	dark := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] < 128 {
			dark++
		}
	}
	if dark == 0 {
		t.Error("no ink on the canvas")
	}
}

func TestSnapshotOnFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	s, err := NewSnapshot(path, 2, "", MoonPalette())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := s.OnFrame(i, Frame{}, []byte("xy\n\n")); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("snapshot written before its frame: %v", err)
	}
	if err := s.OnFrame(2, Frame{}, []byte("xy\nzw\n\n")); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("snapshot is not a PNG: %v", err)
	}
}

func TestSnapshotBadFont(t *testing.T) {
	if _, err := NewSnapshot("out.png", 0, filepath.Join(t.TempDir(), "missing.ttf"), nil); err == nil {
		t.Error("got nil error for a missing font")
	}
}

func TestSnapshotMoonGlyphs(t *testing.T) {
	s, err := NewSnapshot("", 0, "", MoonPalette())
	if err != nil {
		t.Fatal(err)
	}
	full, err := s.Rasterize("🌕\n")
	if err != nil {
		t.Fatal(err)
	}
	dark, err := s.Rasterize("🌑\n")
	if err != nil {
		t.Fatal(err)
	}
	half, err := s.Rasterize("🌗\n")
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(full.Pix, dark.Pix) {
		t.Error("full and new moon rasterize identically")
	}
	if bytes.Equal(full.Pix, half.Pix) || bytes.Equal(dark.Pix, half.Pix) {
		t.Error("half moon rasterizes like full or new moon")
	}
	// The half moon cell is lit on the left and dark on the right. The canvas
	// holds the cell plus one cell of margin.
	w := half.Bounds().Dx() / 2
	h := w / 2
	tests := []struct {
		name string
		x    int
		want color.RGBA
	}{
		{"left band", 1, color.RGBA{0xff, 0xff, 0xff, 0xff}},
		{"right band", w - 2, color.RGBA{0, 0, 0, 0xff}},
	}
	for _, test := range tests {
		if got := half.RGBAAt(test.x, h); got != test.want {
			t.Errorf("%s: got %v want %v", test.name, got, test.want)
		}
	}
	if got := dark.RGBAAt(1, h); got != (color.RGBA{0, 0, 0, 0xff}) {
		t.Errorf("new moon: got %v want black", got)
	}
}
