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
	"image"
	"math"
	"time"

	log "github.com/sirupsen/logrus"
)

const maxSample = 255

// Frame is one decoded picture: Height rows of Width pixels, each pixel
// Channels interleaved 8-bit samples.
type Frame struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// Sample returns channel c of the pixel at (x, y).
func (f Frame) Sample(x, y, c int) uint8 {
	return f.Pix[(y*f.Width+x)*f.Channels+c]
}

// FrameFromRGBA copies a decoded image into a four channel frame.
func FrameFromRGBA(img *image.RGBA) Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	f := Frame{Width: w, Height: h, Channels: 4, Pix: make([]uint8, w*h*4)}
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		copy(f.Pix[y*w*4:], row)
	}
	return f
}

// extractFeatures normalises a cell row of 2*featureLen samples and keeps the
// even positions, dropping 7, 5, 3 and 1.
func extractFeatures(samples []uint8) (Vector, error) {
	var v Vector
	if len(samples) != 2*featureLen {
		return v, invalidInput("extract", "cell row has %d samples, want %d", len(samples), 2*featureLen)
	}
	for i := range v {
		v[i] = float32(samples[2*i]) / maxSample
	}
	return v, nil
}

func distance(a, b Vector) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return float32(math.Sqrt(float64(sum)))
}

// nearest returns the index of the palette entry closest to v. Equal
// distances resolve to the lowest index.
func nearest(v Vector, p *Palette) (int, error) {
	best := -1
	var bestDist float32
	for i := 0; i < p.Len(); i++ {
		d := distance(v, p.Ref(i))
		if math.IsNaN(float64(d)) {
			return 0, newError(ErrDegenerateInput, "match", nil)
		}
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, nil
}

// Renderer turns frames into glyph text, one glyph per cell.
type Renderer struct {
	cfg     Config
	row     []uint8
	warned  bool
	scratch bytes.Buffer
}

func NewRenderer(cfg Config) (*Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Renderer{cfg: cfg, row: make([]uint8, cfg.Cell)}, nil
}

// cellRow fills r.row with the samples for the cell at (row, col).
func (r *Renderer) cellRow(f Frame, row, col int) {
	cell := r.cfg.Cell
	x0, y0 := col*cell, row*cell
	switch r.cfg.Sampling {
	case SampleAverage:
		for x := 0; x < cell; x++ {
			sum := 0
			for y := 0; y < cell; y++ {
				sum += int(f.Sample(x0+x, y0+y, 0))
			}
			r.row[x] = uint8((sum + cell/2) / cell)
		}
	default:
		y := y0 + cell/2
		for x := 0; x < cell; x++ {
			r.row[x] = f.Sample(x0+x, y, 0)
		}
	}
}

// Render appends the glyph grid for f to a fresh slice. Every grid line ends
// in a newline and the frame ends with one blank line.
func (r *Renderer) Render(f Frame) ([]byte, error) {
	defer trackTime(time.Now(), "render")
	cfg := r.cfg
	if f.Channels < 1 || len(f.Pix) < f.Width*f.Height*f.Channels {
		return nil, invalidInput("render", "frame buffer holds %d bytes for %dx%dx%d", len(f.Pix), f.Width, f.Height, f.Channels)
	}
	if f.Width < cfg.Width || f.Height < cfg.Height {
		return nil, invalidInput("render", "frame %dx%d is smaller than %dx%d", f.Width, f.Height, cfg.Width, cfg.Height)
	}
	if !r.warned && (f.Width != cfg.Width || f.Height != cfg.Height) {
		r.warned = true
		log.WithFields(log.Fields{
			"frame": [2]int{f.Width, f.Height},
			"grid":  [2]int{cfg.Width, cfg.Height},
		}).Warn("frame larger than grid, rendering top left region")
	}
	buf := &r.scratch
	buf.Reset()
	for row := 0; row < cfg.Rows(); row++ {
		for col := 0; col < cfg.Columns(); col++ {
			r.cellRow(f, row, col)
			v, err := extractFeatures(r.row)
			if err != nil {
				return nil, err
			}
			i, err := nearest(v, cfg.Palette)
			if err != nil {
				return nil, err
			}
			buf.WriteRune(cfg.Palette.Glyph(i))
		}
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func trackTime(start time.Time, name string) {
	if log.IsLevelEnabled(log.DebugLevel) {
		log.Debugf("event=%s duration=%s", name, time.Since(start))
	}
}
