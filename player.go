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
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// FrameSource yields decoded frames in order. Next returns io.EOF once the
// stream is exhausted.
type FrameSource interface {
	Next() (Frame, error)
	Close() error
}

// AudioSink plays a soundtrack on its own once started.
type AudioSink interface {
	Play() error
	Close() error
}

// FrameHook observes every emitted frame after it was written.
type FrameHook interface {
	OnFrame(index int, f Frame, glyphs []byte) error
}

// Stop reasons reported in Stats.
const (
	StopEndOfStream = "end of stream"
	StopDecodeError = "decode error"
	StopCancelled   = "cancelled"
	StopFailed      = "failed"
)

// Stats summarises one playback.
type Stats struct {
	Frames  int
	Started time.Time
	Reason  string
}

// Player drives the decode, render, write cycle at a fixed cadence while the
// audio plays on its own.
type Player struct {
	cfg      Config
	source   FrameSource
	audio    AudioSink
	out      io.Writer
	renderer *Renderer
	pacer    *Pacer
	hooks    []FrameHook
	closed   bool

	perSecond        time.Time
	videoPlaybackFPS int
}

// NewPlayer takes ownership of source and audio; both are closed when Play
// returns. audio may be nil.
func NewPlayer(cfg Config, source FrameSource, audio AudioSink, out io.Writer, clock Clock) (*Player, error) {
	r, err := NewRenderer(cfg)
	if err != nil {
		return nil, err
	}
	return &Player{
		cfg:      cfg,
		source:   source,
		audio:    audio,
		out:      out,
		renderer: r,
		pacer:    NewPacer(clock, cfg.Interval),
	}, nil
}

func (player *Player) AddHook(h FrameHook) {
	player.hooks = append(player.hooks, h)
}

// start is the synchronisation point: audio begins and the pacing baseline
// is taken right after it.
func (player *Player) start() (time.Time, error) {
	if player.audio != nil {
		if err := player.audio.Play(); err != nil {
			return time.Time{}, newError(ErrSourceOpen, "audio play", err)
		}
	}
	started := player.pacer.Start()
	player.perSecond = started
	return started, nil
}

// trackRate logs the achieved frame rate about once a second.
func (player *Player) trackRate(total int) {
	now := player.pacer.clock.Now()
	elapsed := now.Sub(player.perSecond)
	if elapsed < time.Second {
		return
	}
	log.WithFields(log.Fields{
		"fps":    float64(player.videoPlaybackFPS) / elapsed.Seconds(),
		"frames": total,
	}).Debug("playback rate")
	player.perSecond = now
	player.videoPlaybackFPS = 0
}

// Play runs until the source ends, ctx is cancelled or a frame cannot be
// rendered or written. Running out of frames and decode errors are a normal
// end of playback and return a nil error.
func (player *Player) Play(ctx context.Context) (Stats, error) {
	defer func() {
		if err := player.Close(); err != nil {
			log.WithError(err).Warn("releasing media")
		}
	}()
	var stats Stats
	started, err := player.start()
	if err != nil {
		stats.Reason = StopFailed
		return stats, err
	}
	stats.Started = started
	log.WithFields(log.Fields{
		"grid":     [2]int{player.cfg.Columns(), player.cfg.Rows()},
		"interval": player.cfg.Interval,
		"sampling": player.cfg.Sampling,
	}).Info("playback started")
	for {
		if err := player.pacer.Wait(ctx); err != nil {
			stats.Reason = StopCancelled
			return stats, nil
		}
		player.trackRate(stats.Frames)
		frame, err := player.source.Next()
		if err == io.EOF {
			stats.Reason = StopEndOfStream
			return stats, nil
		}
		if err != nil {
			log.WithError(err).WithField("frame", stats.Frames).Warn("decoding stopped")
			stats.Reason = StopDecodeError
			return stats, nil
		}
		if err := player.emit(stats.Frames, frame); err != nil {
			stats.Reason = StopFailed
			return stats, err
		}
		stats.Frames++
		player.videoPlaybackFPS++
	}
}

func (player *Player) emit(index int, frame Frame) error {
	defer trackTime(time.Now(), "frame")
	glyphs, err := player.renderer.Render(frame)
	if err != nil {
		return err
	}
	if _, err := player.out.Write(glyphs); err != nil {
		return newError(ErrOutput, "write", err)
	}
	for _, h := range player.hooks {
		if err := h.OnFrame(index, frame, glyphs); err != nil {
			log.WithError(err).WithField("frame", index).Warn("frame hook failed")
		}
	}
	return nil
}

// Close releases the source and the audio sink. It is safe to call twice.
func (player *Player) Close() error {
	if player.closed {
		return nil
	}
	player.closed = true
	var first error
	if player.audio != nil {
		if err := player.audio.Close(); err != nil {
			first = errors.Wrap(err, "closing audio")
		}
	}
	if err := player.source.Close(); err != nil && first == nil {
		first = errors.Wrap(err, "closing video")
	}
	return first
}
