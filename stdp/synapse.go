// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stdp

import (
	"fmt"
	"reflect"

	"github.com/chewxy/math32"
	"github.com/emer/spikenet/archive"
)

// Target is the capability surface a Synapse needs from its postsynaptic
// neuron: spike history access for the plasticity window, receptor port
// validation at connection time, and grid-aligned event delivery.
type Target interface {
	// History returns the postsynaptic spike archive.
	History() *archive.History

	// ConnectSender validates the requested receptor port, returning an
	// error if the target does not accept it.  Called once at connection
	// setup, before any spike is processed.
	ConnectSender(rport int32) error

	// Handle buffers a weighted spike emitted at time t for arrival at
	// t + delay on the target's input port.
	Handle(t, wt, delay float32, rport int32) error
}

// stdp.Synapse holds the per-connection plastic state for one directed
// synapse.  The plasticity parameters are homogeneous (shared Params);
// only the weight, the presynaptic facilitation trace, and timing state
// live here.
type Synapse struct {
	Wt    float32 `desc:"synaptic weight, always >= 0"`
	Kplus float32 `desc:"presynaptic facilitation trace: +1 per presynaptic spike, exp(-dt/TauPlus) decay"`
	Delay float32 `desc:"dendritic delay in ms, > 0, grid-aligned"`
	TLast float32 `desc:"time of the last presynaptic spike sent through this synapse, 0 before the first"`

	RPort  int32 `view:"-" desc:"receptor port on the target"`
	ConnID int32 `view:"-" desc:"reader id in the target's spike history, assigned by CheckTarget"`
}

func (sy *Synapse) Defaults() {
	sy.Wt = 1
	sy.Kplus = 0
	sy.Delay = 1
	sy.TLast = 0
}

// CheckTarget validates the receptor port on the target and registers this
// synapse as a reader of the target's spike history.  Must be called once
// before the first SendSpike; the history then retains entries for as long
// as this synapse (and any others) depends on them.
func (sy *Synapse) CheckTarget(tgt Target) error {
	if err := tgt.ConnectSender(sy.RPort); err != nil {
		return err
	}
	sy.ConnID = tgt.History().RegisterConn(sy.TLast - sy.Delay)
	return nil
}

// Disconnect releases all history references held by this synapse.
// Must be called when the connection is removed.
func (sy *Synapse) Disconnect(tgt Target) {
	tgt.History().UnregisterConn(sy.ConnID)
}

// SendSpike processes one presynaptic spike at time t: replays the target's
// postsynaptic spike history over (TLast-Delay, t-Delay], applying one
// facilitation step per entry (oldest to newest -- each step consumes the
// current weight), then one depression step from the target's depression
// trace at t-Delay, delivers the spike at the new weight, and updates the
// presynaptic trace.  Spike times must be grid-aligned and non-decreasing.
func (sy *Synapse) SendSpike(t float32, tgt Target, pr *Params) error {
	d := sy.Delay
	hist := tgt.History().Query(sy.TLast-d, t-d)
	for i := range hist {
		minusDt := sy.TLast - (hist[i].T + d)
		if minusDt == 0 { // exact coincidence contributes no facilitation
			continue
		}
		sy.Wt = pr.Facilitate(sy.Wt, sy.Kplus*math32.Exp(minusDt/pr.TauPlus))
	}
	sy.Wt = pr.Depress(sy.Wt, tgt.History().KValue(t-d))

	if err := tgt.Handle(t, sy.Wt, sy.Delay, sy.RPort); err != nil {
		return err
	}

	sy.Kplus = sy.Kplus*math32.Exp((sy.TLast-t)/pr.TauPlus) + 1
	sy.TLast = t
	tgt.History().ReleaseUpTo(sy.ConnID, t-d)
	return nil
}

//////////////////////////////////////////////////////////////////////////////////////
//  Synapse variable access

// SynapseVars are the synapse variables accessible by name, in field order.
var SynapseVars = []string{"Wt", "Kplus", "Delay", "TLast"}

var SynapseVarsMap map[string]int

func init() {
	SynapseVarsMap = make(map[string]int, len(SynapseVars))
	for i, v := range SynapseVars {
		SynapseVarsMap[v] = i
	}
}

func (sy *Synapse) VarNames() []string {
	return SynapseVars
}

// SynapseVarByName returns the index of the variable in the Synapse, or error
func SynapseVarByName(varNm string) (int, error) {
	i, ok := SynapseVarsMap[varNm]
	if !ok {
		return 0, fmt.Errorf("Synapse VarByName: variable name: %v not valid", varNm)
	}
	return i, nil
}

// VarByIndex returns variable using index (0 = first variable in SynapseVars list)
func (sy *Synapse) VarByIndex(idx int) float32 {
	v := reflect.ValueOf(*sy)
	return v.Field(idx).Interface().(float32)
}

// VarByName returns variable by name, or error
func (sy *Synapse) VarByName(varNm string) (float32, error) {
	i, err := SynapseVarByName(varNm)
	if err != nil {
		return 0, err
	}
	return sy.VarByIndex(i), nil
}

func (sy *Synapse) SetVarByIndex(idx int, val float32) {
	v := reflect.ValueOf(sy)
	v.Elem().Field(idx).SetFloat(float64(val))
}

// SetVarByName sets synapse variable to given value
func (sy *Synapse) SetVarByName(varNm string, val float32) error {
	i, err := SynapseVarByName(varNm)
	if err != nil {
		return err
	}
	sy.SetVarByIndex(i, val)
	return nil
}
