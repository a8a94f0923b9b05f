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
	"testing"
	"time"
)

// fakeClock only moves when slept on or advanced by hand.
type fakeClock struct {
	now    time.Time
	sleeps []time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) SleepUntil(ctx context.Context, t time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, t)
	if t.After(c.now) {
		c.now = t
	}
	return nil
}

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestPacerNoDrift(t *testing.T) {
	clock := newFakeClock()
	p := NewPacer(clock, frameInterval)
	start := p.Start()
	for i := 0; i < 300; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
		want := start.Add(time.Duration(i) * frameInterval)
		if got := clock.Now(); !got.Equal(want) {
			t.Fatalf("emission %d: got %v want %v (drift %v)", i, got, want, got.Sub(want))
		}
	}
	if got, want := p.Deadline(), start.Add(300*frameInterval); !got.Equal(want) {
		t.Errorf("deadline: got %v want %v", got, want)
	}
}

func TestPacerCatchesUp(t *testing.T) {
	clock := newFakeClock()
	interval := 10 * time.Millisecond
	p := NewPacer(clock, interval)
	start := p.Start()
	var emitted []time.Time
	for i := 0; i < 10; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatal(err)
		}
		emitted = append(emitted, clock.Now())
		// Frame 2 takes 35ms of work, the others none.
		if i == 2 {
			clock.Advance(35 * time.Millisecond)
		}
	}
	want := []time.Duration{0, 10, 20, 55, 55, 55, 60, 70, 80, 90}
	for i, w := range want {
		if got := emitted[i].Sub(start); got != w*time.Millisecond {
			t.Errorf("emission %d: got +%v want +%v", i, got, w*time.Millisecond)
		}
	}
	for i, s := range clock.sleeps {
		if want := start.Add(time.Duration(i) * interval); !s.Equal(want) {
			t.Errorf("deadline %d: got %v want %v", i, s, want)
		}
	}
}

func TestPacerCancelled(t *testing.T) {
	clock := newFakeClock()
	p := NewPacer(clock, frameInterval)
	start := p.Start()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Wait(ctx); err != context.Canceled {
		t.Errorf("got %v want %v", err, context.Canceled)
	}
	if !p.Deadline().Equal(start) {
		t.Errorf("deadline moved on a cancelled wait")
	}
	if len(clock.sleeps) != 0 {
		t.Errorf("slept %d times after cancellation", len(clock.sleeps))
	}
}

func TestRealClockSleepUntil(t *testing.T) {
	c := realClock{}
	before := time.Now()
	if err := c.SleepUntil(context.Background(), before.Add(-time.Second)); err != nil {
		t.Errorf("past deadline: %v", err)
	}
	if err := c.SleepUntil(context.Background(), time.Now().Add(5*time.Millisecond)); err != nil {
		t.Errorf("short sleep: %v", err)
	}
	if elapsed := time.Since(before); elapsed < 5*time.Millisecond {
		t.Errorf("returned after %v, before the deadline", elapsed)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.SleepUntil(ctx, time.Now().Add(time.Hour)); err != context.Canceled {
		t.Errorf("cancelled sleep: got %v want %v", err, context.Canceled)
	}
}
