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
	"bufio"
	"image"
	"image/draw"
	"image/png"
	"io/ioutil"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	snapshotDPI      = 72
	snapshotFontSize = 12
)

// Snapshot rasterises the glyph text of one chosen frame into a PNG.
type Snapshot struct {
	path    string
	frame   int
	font    *truetype.Font
	palette *Palette
	done    bool
}

// NewSnapshot loads fontFile, or Go Regular when it is empty. Palette glyphs
// the font has no outline for are drawn from their reference vectors.
func NewSnapshot(path string, frame int, fontFile string, palette *Palette) (*Snapshot, error) {
	ttf := goregular.TTF
	if fontFile != "" {
		b, err := ioutil.ReadFile(fontFile)
		if err != nil {
			return nil, errors.Wrap(err, "reading font")
		}
		ttf = b
	}
	font, err := truetype.Parse(ttf)
	if err != nil {
		return nil, errors.Wrap(err, "parsing font")
	}
	return &Snapshot{path: path, frame: frame, font: font, palette: palette}, nil
}

func (s *Snapshot) OnFrame(index int, _ Frame, glyphs []byte) error {
	if s.done || index != s.frame {
		return nil
	}
	s.done = true
	rgba, err := s.Rasterize(string(glyphs))
	if err != nil {
		return err
	}
	f, err := os.Create(s.path)
	if err != nil {
		return errors.Wrap(err, "creating snapshot")
	}
	w := bufio.NewWriter(f)
	if err := png.Encode(w, rgba); err != nil {
		f.Close()
		return errors.Wrap(err, "encoding snapshot")
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrap(err, "writing snapshot")
	}
	log.WithFields(log.Fields{"file": s.path, "frame": index}).Info("snapshot written")
	return f.Close()
}

// Rasterize draws text black on white, one line per text line. The canvas is
// sized from the longest line in runes and the font's line height.
// A palette glyph missing from the font becomes a cell of vertical bands,
// white where its reference vector is lit and black where it is dark.
func (s *Snapshot) Rasterize(text string) (*image.RGBA, error) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	cols := 0
	for _, l := range lines {
		if n := utf8.RuneCountInString(l); n > cols {
			cols = n
		}
	}
	c := freetype.NewContext()
	c.SetDPI(snapshotDPI)
	c.SetFont(s.font)
	c.SetFontSize(snapshotFontSize)
	lineHeight := c.PointToFixed(snapshotFontSize).Ceil()
	advance := lineHeight
	rgba := image.NewRGBA(image.Rect(0, 0, cols*advance+advance, len(lines)*lineHeight+lineHeight))
	draw.Draw(rgba, rgba.Bounds(), image.White, image.Point{}, draw.Src)
	c.SetClip(rgba.Bounds())
	c.SetDst(rgba)
	c.SetSrc(image.Black)
	for i, l := range lines {
		x := 0
		for _, r := range l {
			cell := image.Rect(x*advance, i*lineHeight, (x+1)*advance, (i+1)*lineHeight)
			if s.drawBands(rgba, cell, r) {
				x++
				continue
			}
			pt := freetype.Pt(x*advance, (i+1)*lineHeight)
			if _, err := c.DrawString(string(r), pt); err != nil {
				return nil, errors.Wrap(err, "drawing glyph")
			}
			x++
		}
	}
	return rgba, nil
}

func (s *Snapshot) drawBands(dst *image.RGBA, cell image.Rectangle, r rune) bool {
	if s.palette == nil || s.font.Index(r) != 0 {
		return false
	}
	i := s.palette.IndexOf(r)
	if i < 0 {
		return false
	}
	ref := s.palette.Ref(i)
	w := cell.Dx()
	for b, v := range ref {
		band := image.Rect(cell.Min.X+b*w/len(ref), cell.Min.Y, cell.Min.X+(b+1)*w/len(ref), cell.Max.Y)
		src := image.Black
		if v >= 0.5 {
			src = image.White
		}
		draw.Draw(dst, band, src, image.Point{}, draw.Src)
	}
	return true
}
