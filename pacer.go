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
	"time"
)

// Clock is the time source the pacer sleeps against.
type Clock interface {
	Now() time.Time
	// SleepUntil blocks until t or until ctx is done. A t in the past
	// returns immediately.
	SleepUntil(ctx context.Context, t time.Time) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) SleepUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pacer hands out frame slots on an absolute schedule. Each deadline is the
// previous one plus the interval, never now plus the interval, so time spent
// rendering does not push later frames back. Late frames go out immediately
// until the schedule catches up.
type Pacer struct {
	clock    Clock
	interval time.Duration
	next     time.Time
}

func NewPacer(clock Clock, interval time.Duration) *Pacer {
	if clock == nil {
		clock = realClock{}
	}
	return &Pacer{clock: clock, interval: interval}
}

// Start sets the baseline: the first slot is due immediately.
func (p *Pacer) Start() time.Time {
	p.next = p.clock.Now()
	return p.next
}

// Deadline is the time the next slot opens.
func (p *Pacer) Deadline() time.Time { return p.next }

// Wait blocks until the next slot opens and then moves the deadline one
// interval forward.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.clock.SleepUntil(ctx, p.next); err != nil {
		return err
	}
	p.next = p.next.Add(p.interval)
	return nil
}
