// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikenet

import (
	"github.com/emer/spikenet/chs"
	"github.com/goki/ki/kit"
)

// ReceptorType is the receptor port a spike event targets on the
// postsynaptic neuron.  The chs model accepts Excitatory only; any other
// port is rejected at connection-setup time, before any spike is processed.
type ReceptorType int32

//go:generate stringer -type=ReceptorType

var KiT_ReceptorType = kit.Enums.AddEnum(ReceptorTypeN, kit.NotBitFlag, nil)

func (ev ReceptorType) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *ReceptorType) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

// The receptor types
const (
	// Excitatory is the standard spike receptor port.
	Excitatory ReceptorType = iota

	ReceptorTypeN
)

// SpikeEvent carries one presynaptic spike to a target neuron: the synaptic
// weight at emission time, the dendritic delay, the emission timestamp, and
// the receptor port.  Delivery happens at Time + Delay on the target's grid.
type SpikeEvent struct {
	Weight   float32      `desc:"synaptic weight at emission time"`
	Delay    float32      `desc:"dendritic delay in ms"`
	Time     float32      `desc:"grid-aligned emission time in ms"`
	Receptor ReceptorType `desc:"receptor port on the target"`
}

// SendEvent enqueues the event for delivery to the target at
// ev.Time + ev.Delay.  The core calls this once per presynaptic spike and
// never itself manages delivery timing.
func SendEvent(tgt *chs.Neuron, ev SpikeEvent) error {
	return tgt.Handle(ev.Time, ev.Weight, ev.Delay, int32(ev.Receptor))
}
