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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const speakerBuffer = time.Second / 10

// FileAudio plays a standalone audio file through the default output device.
type FileAudio struct {
	path     string
	streamer beep.StreamSeekCloser
	format   beep.Format
}

// OpenAudio decodes the header of path and initialises the speaker at its
// sample rate. The decoder is picked by file extension.
func OpenAudio(path string) (*FileAudio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newError(ErrSourceOpen, "open "+path, err)
	}
	streamer, format, err := decodeAudio(f, filepath.Ext(path))
	if err != nil {
		f.Close()
		return nil, newError(ErrSourceOpen, "decode "+path, err)
	}
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(speakerBuffer)); err != nil {
		streamer.Close()
		return nil, newError(ErrSourceOpen, "speaker", err)
	}
	log.WithFields(log.Fields{
		"file":       path,
		"sampleRate": format.SampleRate,
		"channels":   format.NumChannels,
	}).Debug("audio opened")
	return &FileAudio{path: path, streamer: streamer, format: format}, nil
}

func decodeAudio(f *os.File, ext string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(ext) {
	case ".mp3":
		return mp3.Decode(f)
	case ".wav":
		return wav.Decode(f)
	case ".flac":
		return flac.Decode(f)
	case ".ogg":
		return vorbis.Decode(f)
	}
	return nil, beep.Format{}, errors.Errorf("unsupported audio format %q", ext)
}

// Play hands the stream to the speaker and returns immediately.
func (a *FileAudio) Play() error {
	speaker.Play(a.streamer)
	return nil
}

func (a *FileAudio) Close() error {
	speaker.Clear()
	return a.streamer.Close()
}

// StreamAudio plays the soundtrack demuxed from the video container.
type StreamAudio struct {
	samples <-chan [2]float64
}

// NewStreamAudio initialises the speaker for samples arriving at sampleRate.
func NewStreamAudio(samples <-chan [2]float64, sampleRate int) (*StreamAudio, error) {
	if samples == nil || sampleRate <= 0 {
		return nil, newError(ErrSourceOpen, "embedded audio", errors.New("no audio stream decoded"))
	}
	sr := beep.SampleRate(sampleRate)
	if err := speaker.Init(sr, sr.N(speakerBuffer)); err != nil {
		return nil, newError(ErrSourceOpen, "speaker", err)
	}
	return &StreamAudio{samples: samples}, nil
}

func (a *StreamAudio) Play() error {
	speaker.Play(streamSamples(a.samples))
	return nil
}

func (a *StreamAudio) Close() error {
	speaker.Clear()
	return nil
}

// streamSamples adapts a sample channel to a beep.Streamer. The streamer
// drains once the channel is closed.
func streamSamples(sampleSource <-chan [2]float64) beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		for n < len(samples) {
			sample, more := <-sampleSource
			if !more {
				return n, n > 0
			}
			samples[n] = sample
			n++
		}
		return n, true
	})
}
