// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package stdp implements spike-timing dependent plasticity with a power-law
weight dependence and homogeneous parameters: one shared parameter set per
synapse type, per Morrison et al (2007), Spike-timing dependent plasticity
in balanced random networks, Neural Computation.

The rule is event-driven: nothing happens until a presynaptic spike arrives,
at which point the synapse replays all postsynaptic spikes since its previous
presynaptic spike (from the target's archive.History), applying one
facilitation step per postsynaptic spike and then a single depression step
driven by the target's depression trace.
*/
package stdp

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

// ErrBadParameter is returned for invalid plasticity parameter values.
// Parameters are validated before commit; prior values are preserved.
var ErrBadParameter = errors.New("stdp: bad parameter")

// Params are the homogeneous power-law STDP parameters, shared by reference
// across all synapses of a given type.  Immutable during simulation except
// through SetParams, which validates the full candidate set before
// committing.
type Params struct {
	TauPlus float32 `def:"20" min:"0" desc:"time constant of the potentiation STDP window in ms (the depression window TauMinus lives in the postsynaptic neuron's history)"`
	Lrate   float32 `def:"0.1" min:"0" desc:"learning rate (lambda)"`
	Alpha   float32 `def:"1" min:"0" desc:"asymmetry parameter: scales depressing increments as Alpha * Lrate"`
	Mu      float32 `def:"0.4" min:"0" desc:"weight dependence exponent for potentiation"`
}

func (pr *Params) Defaults() {
	pr.TauPlus = 20
	pr.Lrate = 0.1
	pr.Alpha = 1
	pr.Mu = 0.4
	pr.Update()
}

// Update must be called after any changes to parameters.
func (pr *Params) Update() {
}

// Validate checks all parameter values, returning an error wrapping
// ErrBadParameter naming the first offending field.
func (pr *Params) Validate() error {
	switch {
	case !(pr.TauPlus > 0):
		return fmt.Errorf("%w: TauPlus must be > 0, got %g", ErrBadParameter, pr.TauPlus)
	case !(pr.Lrate > 0):
		return fmt.Errorf("%w: Lrate must be > 0, got %g", ErrBadParameter, pr.Lrate)
	case !(pr.Alpha > 0):
		return fmt.Errorf("%w: Alpha must be > 0, got %g", ErrBadParameter, pr.Alpha)
	case !(pr.Mu > 0):
		return fmt.Errorf("%w: Mu must be > 0, got %g", ErrBadParameter, pr.Mu)
	}
	return nil
}

// SetParams commits the candidate parameter set if it validates, leaving
// the receiver unchanged on error.
func (pr *Params) SetParams(cand Params) error {
	if err := cand.Validate(); err != nil {
		return err
	}
	*pr = cand
	pr.Update()
	return nil
}

// Facilitate returns the weight after one potentiation step with
// presynaptic trace contribution kplus: w + Lrate * w^Mu * kplus.
func (pr *Params) Facilitate(w, kplus float32) float32 {
	return w + pr.Lrate*math32.Pow(w, pr.Mu)*kplus
}

// Depress returns the weight after one depression step with postsynaptic
// trace value kminus: max(0, w - Lrate * Alpha * w * kminus).
// Weights never go negative.
func (pr *Params) Depress(w, kminus float32) float32 {
	nw := w - pr.Lrate*pr.Alpha*w*kminus
	if nw < 0 {
		return 0
	}
	return nw
}
