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
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zergon321/reisen"
)

const (
	frameBufferSize  = 64
	channelCount     = 2
	sampleBufferSize = 32 * channelCount * 1024
)

// MediaSource decodes a video container with libav. A demux goroutine reads
// packets ahead of playback, pushing frames onto one channel and, when asked
// for, stereo samples of the first audio stream onto another.
type MediaSource struct {
	media        *reisen.Media
	videoStream  *reisen.VideoStream
	audioStream  *reisen.AudioStream
	frameBuffer  chan Frame
	sampleBuffer chan [2]float64
	done         chan struct{}
	wg           sync.WaitGroup
	err          error
	once         sync.Once
}

// OpenMedia opens fname and starts decoding. With withAudio set the first
// audio stream is decoded as well and exposed through Samples.
func OpenMedia(fname string, withAudio bool) (*MediaSource, error) {
	media, err := reisen.NewMedia(fname)
	if err != nil {
		return nil, newError(ErrSourceOpen, "open "+fname, err)
	}
	if err := media.OpenDecode(); err != nil {
		return nil, newError(ErrSourceOpen, "decode "+fname, err)
	}
	videoStreams := media.VideoStreams()
	if len(videoStreams) == 0 {
		media.CloseDecode()
		return nil, newError(ErrSourceOpen, "open "+fname, errors.New("no video stream"))
	}
	src := &MediaSource{
		media:       media,
		videoStream: videoStreams[0],
		frameBuffer: make(chan Frame, frameBufferSize),
		done:        make(chan struct{}),
	}
	if err := src.videoStream.Open(); err != nil {
		media.CloseDecode()
		return nil, newError(ErrSourceOpen, "video stream", err)
	}
	if withAudio {
		audioStreams := media.AudioStreams()
		if len(audioStreams) == 0 {
			src.videoStream.Close()
			media.CloseDecode()
			return nil, newError(ErrSourceOpen, "open "+fname, errors.New("no audio stream"))
		}
		src.audioStream = audioStreams[0]
		if err := src.audioStream.Open(); err != nil {
			src.videoStream.Close()
			media.CloseDecode()
			return nil, newError(ErrSourceOpen, "audio stream", err)
		}
		src.sampleBuffer = make(chan [2]float64, sampleBufferSize)
	}
	num, den := src.videoStream.FrameRate()
	log.WithFields(log.Fields{
		"file":   fname,
		"width":  src.videoStream.Width(),
		"height": src.videoStream.Height(),
		"fps":    [2]int{num, den},
		"audio":  withAudio,
	}).Debug("media opened")
	src.wg.Add(1)
	go src.readVideoAndAudio()
	return src, nil
}

// SampleRate of the decoded audio stream, zero without audio.
func (src *MediaSource) SampleRate() int {
	if src.audioStream == nil {
		return 0
	}
	return src.audioStream.SampleRate()
}

// Samples is the decoded audio, nil without audio. It is closed at the end
// of the stream.
func (src *MediaSource) Samples() <-chan [2]float64 {
	return src.sampleBuffer
}

// Next returns the next decoded frame, io.EOF after the last one, or an
// ErrDecode error if demuxing failed.
func (src *MediaSource) Next() (Frame, error) {
	frame, ok := <-src.frameBuffer
	if !ok {
		if src.err != nil {
			return Frame{}, src.err
		}
		return Frame{}, io.EOF
	}
	return frame, nil
}

// Close stops the demux goroutine and releases libav state.
func (src *MediaSource) Close() error {
	src.once.Do(func() {
		close(src.done)
		src.wg.Wait()
		src.videoStream.Close()
		if src.audioStream != nil {
			src.audioStream.Close()
		}
		src.media.CloseDecode()
	})
	return nil
}

func (src *MediaSource) readVideoAndAudio() {
	defer src.wg.Done()
	defer func() {
		close(src.frameBuffer)
		if src.sampleBuffer != nil {
			close(src.sampleBuffer)
		}
	}()
	for {
		packet, gotPacket, err := src.media.ReadPacket()
		if err != nil {
			src.err = newError(ErrDecode, "read packet", err)
			return
		}
		if !gotPacket {
			return
		}
		switch packet.Type() {
		case reisen.StreamVideo:
			if s, ok := src.media.Streams()[packet.StreamIndex()].(*reisen.VideoStream); !ok || s != src.videoStream {
				continue
			}
			videoFrame, gotFrame, err := src.videoStream.ReadVideoFrame()
			if err != nil {
				src.err = newError(ErrDecode, "video frame", err)
				return
			}
			if !gotFrame || videoFrame == nil {
				continue
			}
			select {
			case src.frameBuffer <- FrameFromRGBA(videoFrame.Image()):
			case <-src.done:
				return
			}
		case reisen.StreamAudio:
			if src.audioStream == nil {
				continue
			}
			if s, ok := src.media.Streams()[packet.StreamIndex()].(*reisen.AudioStream); !ok || s != src.audioStream {
				continue
			}
			audioFrame, gotFrame, err := src.audioStream.ReadAudioFrame()
			if err != nil {
				src.err = newError(ErrDecode, "audio frame", err)
				return
			}
			if !gotFrame || audioFrame == nil {
				continue
			}
			if !src.pushSamples(audioFrame.Data()) {
				return
			}
		}
	}
}

// pushSamples turns raw little endian float64 stereo pairs into samples.
func (src *MediaSource) pushSamples(data []byte) bool {
	reader := bytes.NewReader(data)
	for reader.Len() >= 16 {
		var sample [2]float64
		if err := binary.Read(reader, binary.LittleEndian, &sample); err != nil {
			log.WithError(err).Debug("short audio frame")
			return true
		}
		select {
		case src.sampleBuffer <- sample:
		case <-src.done:
			return false
		}
	}
	return true
}
