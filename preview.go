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
	"sync"

	"github.com/hajimehoshi/ebiten"
	"github.com/pkg/errors"
)

var errPreviewDone = errors.New("playback finished")

// Preview shows the raw decoded frames in a window next to the terminal
// output. Run must be called on the main goroutine.
type Preview struct {
	width, height int
	videoSprite   *ebiten.Image
	mu            sync.Mutex
	pending       []uint8
	framesShown   int
	finished      bool
}

func NewPreview(cfg Config) *Preview {
	return &Preview{width: cfg.Width, height: cfg.Height}
}

// OnFrame queues the frame's pixels for the next window update. Frames that
// do not match the window size are skipped.
func (p *Preview) OnFrame(index int, f Frame, _ []byte) error {
	if f.Channels != 4 || f.Width != p.width || f.Height != p.height {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = f.Pix
	p.framesShown = index + 1
	return nil
}

// Finish makes the window close on its next update.
func (p *Preview) Finish() {
	p.mu.Lock()
	p.finished = true
	p.mu.Unlock()
}

func (p *Preview) Update(screen *ebiten.Image) error {
	p.mu.Lock()
	pix, shown, finished := p.pending, p.framesShown, p.finished
	p.pending = nil
	p.mu.Unlock()
	if finished {
		return errPreviewDone
	}
	if pix != nil {
		if err := p.videoSprite.ReplacePixels(pix); err != nil {
			return err
		}
		ebiten.SetWindowTitle(fmt.Sprintf("moonart | frame %d", shown))
	}
	return screen.DrawImage(p.videoSprite, &ebiten.DrawImageOptions{})
}

func (p *Preview) Layout(outsideWidth, outsideHeight int) (int, int) {
	return p.width, p.height
}

// Run opens the window and blocks until it is closed or Finish is called.
// A window closed by the user returns nil as well.
func (p *Preview) Run() error {
	var err error
	p.videoSprite, err = ebiten.NewImage(p.width, p.height, ebiten.FilterDefault)
	if err != nil {
		return errors.Wrap(err, "preview sprite")
	}
	ebiten.SetWindowSize(p.width, p.height)
	ebiten.SetWindowTitle("moonart")
	if err := ebiten.RunGame(p); err != nil && err != errPreviewDone {
		return errors.Wrap(err, "preview window")
	}
	return nil
}
