// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package ring provides the per-step input accumulator used by event-driven
spiking neurons.  Incoming spike events are grid-aligned: each event lands on
a future simulation step, and all events for a given step are summed into a
single amplitude that the neuron drains exactly once when it updates that step.

The buffer is a fixed-size modular array covering the maximum delivery
horizon (maximum synaptic delay in steps).  Draining a slot zeroes it, so the
slot is immediately reusable for the step one full wrap later.
*/
package ring

import "fmt"

// Buffer accumulates grid-aligned input amplitudes per simulation step.
// One writer side (event delivery) and one reader side (the owning neuron's
// update loop) -- the reader must drain steps in strictly increasing order.
type Buffer struct {
	Vals []float32 `desc:"per-step accumulated amplitudes, indexed by step modulo len"`
}

// NewBuffer returns a buffer covering the given delivery horizon in steps.
// The horizon must be at least the maximum synaptic delay in steps, plus one
// for events delivered to the current step.
func NewBuffer(horizon int) *Buffer {
	if horizon < 1 {
		horizon = 1
	}
	return &Buffer{Vals: make([]float32, horizon)}
}

// Len returns the delivery horizon in steps.
func (rb *Buffer) Len() int {
	return len(rb.Vals)
}

// Add accumulates an amplitude at the given future step.
// Returns an error if the step is beyond the delivery horizon relative to
// curStep, which would silently alias into an earlier slot.
func (rb *Buffer) Add(curStep, step int, v float32) error {
	if step < curStep || step-curStep >= len(rb.Vals) {
		return fmt.Errorf("ring.Buffer: step %d outside delivery horizon [%d, %d)", step, curStep, curStep+len(rb.Vals))
	}
	rb.Vals[step%len(rb.Vals)] += v
	return nil
}

// Drain returns the accumulated amplitude for the given step and zeroes
// the slot so it can be reused one wrap later.
func (rb *Buffer) Drain(step int) float32 {
	i := step % len(rb.Vals)
	v := rb.Vals[i]
	rb.Vals[i] = 0
	return v
}

// Reset zeroes all slots.
func (rb *Buffer) Reset() {
	for i := range rb.Vals {
		rb.Vals[i] = 0
	}
}
