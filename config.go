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
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	videoWidth    = 480
	videoHeight   = 360
	cellSize      = 8
	featureLen    = 4
	moonAlphabet  = "🌕🌖🌗🌘🌑🌒🌓🌔"
	defaultVideo  = "resources/bad apple.mp4"
	defaultAudio  = "resources/bad apple.mp3"
	frameInterval = time.Second / 30
)

// Vector is a cell's feature vector, each component in [0, 1].
type Vector [featureLen]float32

// Palette binds each reference vector to the glyph printed for it.
// It is never mutated once built.
type Palette struct {
	glyphs []rune
	refs   []Vector
}

// NewPalette pairs glyphs with reference vectors by position.
func NewPalette(glyphs string, refs []Vector) (*Palette, error) {
	g := []rune(glyphs)
	if len(g) == 0 {
		return nil, invalidInput("palette", "empty alphabet")
	}
	if len(g) != len(refs) {
		return nil, invalidInput("palette", "%d glyphs for %d reference vectors", len(g), len(refs))
	}
	r := make([]Vector, len(refs))
	copy(r, refs)
	return &Palette{glyphs: g, refs: r}, nil
}

// MoonPalette is the reference palette: eight moon phases, from full to
// waning crescent, each standing for a pattern of lit and dark samples.
func MoonPalette() *Palette {
	p, err := NewPalette(moonAlphabet, []Vector{
		{1, 1, 1, 1},
		{1, 1, 1, 0},
		{1, 1, 0, 0},
		{1, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 1},
		{0, 0, 1, 1},
		{0, 1, 1, 1},
	})
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Palette) Len() int { return len(p.refs) }

func (p *Palette) Glyph(i int) rune { return p.glyphs[i] }

func (p *Palette) Ref(i int) Vector { return p.refs[i] }

// IndexOf returns the palette position of glyph g, or -1.
func (p *Palette) IndexOf(g rune) int {
	for i, r := range p.glyphs {
		if r == g {
			return i
		}
	}
	return -1
}

// Sampling selects how a cell is reduced to its row of samples.
type Sampling int

const (
	// SampleMidpoint reads the cell's vertical midpoint row.
	SampleMidpoint Sampling = iota
	// SampleAverage averages every column over all rows of the cell.
	SampleAverage
)

func (s Sampling) String() string {
	switch s {
	case SampleMidpoint:
		return "midpoint"
	case SampleAverage:
		return "average"
	}
	return "unknown"
}

// ParseSampling maps a flag value onto a Sampling mode.
func ParseSampling(s string) (Sampling, error) {
	switch strings.ToLower(s) {
	case "midpoint", "":
		return SampleMidpoint, nil
	case "average", "avg":
		return SampleAverage, nil
	}
	return 0, errors.Errorf("unknown sampling mode %q", s)
}

// Config holds the fixed rendering geometry and cadence. It is built once
// and passed to whatever needs it.
type Config struct {
	Width    int
	Height   int
	Cell     int
	Interval time.Duration
	Sampling Sampling
	Palette  *Palette
}

func DefaultConfig() Config {
	return Config{
		Width:    videoWidth,
		Height:   videoHeight,
		Cell:     cellSize,
		Interval: frameInterval,
		Sampling: SampleMidpoint,
		Palette:  MoonPalette(),
	}
}

// Columns is the number of glyphs per output line.
func (c Config) Columns() int { return c.Width / c.Cell }

// Rows is the number of output lines per frame.
func (c Config) Rows() int { return c.Height / c.Cell }

func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return invalidInput("config", "frame size %dx%d", c.Width, c.Height)
	case c.Cell != 2*featureLen:
		return invalidInput("config", "cell size %d, want %d", c.Cell, 2*featureLen)
	case c.Width%c.Cell != 0 || c.Height%c.Cell != 0:
		return invalidInput("config", "frame size %dx%d is not a multiple of cell %d", c.Width, c.Height, c.Cell)
	case c.Interval <= 0:
		return invalidInput("config", "frame interval %v", c.Interval)
	case c.Palette == nil || c.Palette.Len() == 0:
		return invalidInput("config", "no palette")
	}
	return nil
}

// Options are the runtime choices made on the command line.
type Options struct {
	Video         string
	Audio         string
	EmbeddedAudio bool
	Mute          bool
	Sampling      string
	Preview       bool
	Snapshot      string
	SnapshotFrame int
	Font          string
	Debug         bool
}
