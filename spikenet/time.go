// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikenet

// spikenet.Time is the simulation grid clock.  All events are aligned to
// this grid: neuron updates advance it one step at a time, and spike times
// are reported in grid milliseconds.
type Time struct {

	// accumulated simulation time in ms (not real world time).
	Ms float32

	// grid step counter: number of Update passes completed since Reset.
	Step int

	// amount of simulation time per grid step.
	StepMs float32 `def:"1"`
}

// NewTime returns a new Time struct with default parameters
func NewTime() *Time {
	tm := &Time{}
	tm.Defaults()
	return tm
}

// Defaults sets default values
func (tm *Time) Defaults() {
	tm.StepMs = 1
}

// Reset resets the counters all back to zero
func (tm *Time) Reset() {
	tm.Ms = 0
	tm.Step = 0
	if tm.StepMs == 0 {
		tm.Defaults()
	}
}

// StepInc increments the grid step and advances simulation time
func (tm *Time) StepInc() {
	tm.Step++
	tm.Ms = float32(tm.Step) * tm.StepMs
}
