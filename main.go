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
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "moonart [VIDEO [AUDIO]]",
		Short: "Play a video as moon phase glyphs in the terminal",
		Long: "moonart decodes VIDEO, turns every frame into a grid of moon phase glyphs\n" +
			"and prints it to stdout at 30 frames per second while AUDIO plays.",
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Video, opts.Audio = defaultVideo, defaultAudio
			if len(args) > 0 {
				opts.Video = args[0]
			}
			if len(args) > 1 {
				opts.Audio = args[1]
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.Sampling, "sampling", "midpoint", "cell sampling: midpoint (one row per cell) or average (whole cell)")
	flags.BoolVar(&opts.EmbeddedAudio, "embedded-audio", false, "play the video's own audio track instead of AUDIO")
	flags.BoolVar(&opts.Mute, "mute", false, "play without sound")
	flags.BoolVar(&opts.Preview, "preview", false, "show the decoded video in a window")
	flags.StringVar(&opts.Snapshot, "snapshot", "", "write one rendered frame as PNG to this path")
	flags.IntVar(&opts.SnapshotFrame, "snapshot-frame", 0, "index of the frame written by --snapshot")
	flags.StringVar(&opts.Font, "font", "", "TTF font for --snapshot, Go Regular if empty")
	flags.BoolVar(&opts.Debug, "debug", false, "log per frame timings")
	return cmd
}

func run(ctx context.Context, opts *Options) error {
	if opts.Debug {
		log.SetLevel(log.DebugLevel)
	}
	cfg := DefaultConfig()
	sampling, err := ParseSampling(opts.Sampling)
	if err != nil {
		return err
	}
	cfg.Sampling = sampling
	if err := cfg.Validate(); err != nil {
		return err
	}

	source, audio, err := openSources(opts)
	if err != nil {
		return err
	}
	checkTerminal(os.Stdout, cfg)
	player, err := NewPlayer(cfg, source, audio, os.Stdout, nil)
	if err != nil {
		closeLogged("video", source)
		if audio != nil {
			closeLogged("audio", audio)
		}
		return err
	}
	if opts.Snapshot != "" {
		snap, err := NewSnapshot(opts.Snapshot, opts.SnapshotFrame, opts.Font, cfg.Palette)
		if err != nil {
			closeLogged("player", player)
			return err
		}
		player.AddHook(snap)
	}

	var stats Stats
	if opts.Preview {
		stats, err = playWithPreview(ctx, cfg, player)
	} else {
		stats, err = player.Play(ctx)
	}
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"frames": stats.Frames, "reason": stats.Reason}).Info("playback finished")
	return nil
}

// openSources acquires the video and, unless muted, the audio. Nothing is
// left open when it fails.
func openSources(opts *Options) (*MediaSource, AudioSink, error) {
	source, err := OpenMedia(opts.Video, opts.EmbeddedAudio && !opts.Mute)
	if err != nil {
		return nil, nil, err
	}
	var audio AudioSink
	switch {
	case opts.Mute:
	case opts.EmbeddedAudio:
		audio, err = NewStreamAudio(source.Samples(), source.SampleRate())
	default:
		audio, err = OpenAudio(opts.Audio)
	}
	if err != nil {
		closeLogged("video", source)
		return nil, nil, err
	}
	log.WithFields(log.Fields{"video": opts.Video, "audio": audioName(opts)}).Info("media ready")
	return source, audio, nil
}

func closeLogged(name string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.WithError(err).WithField("resource", name).Warn("releasing media")
	}
}

func audioName(opts *Options) string {
	switch {
	case opts.Mute:
		return "muted"
	case opts.EmbeddedAudio:
		return "embedded"
	}
	return opts.Audio
}

// playWithPreview keeps the window on the main goroutine and playback on
// another. Closing the window stops playback.
func playWithPreview(ctx context.Context, cfg Config, player *Player) (Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	preview := NewPreview(cfg)
	player.AddHook(preview)
	type result struct {
		stats Stats
		err   error
	}
	done := make(chan result, 1)
	go func() {
		stats, err := player.Play(ctx)
		preview.Finish()
		done <- result{stats, err}
	}()
	if err := preview.Run(); err != nil {
		log.WithError(err).Warn("preview closed")
	}
	cancel()
	res := <-done
	return res.stats, res.err
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.WithError(err).Fatal("moonart")
	}
}

func init() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
