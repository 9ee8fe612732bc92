// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikenet

import "github.com/emer/emergent/v2/erand"

// NoiseSignal pregenerates a standard Gaussian noise signal of n samples
// for chs.Params.Noise.  The chs model cannot draw its noise term online,
// so the signal is prepared before simulation and must cover at least the
// total number of planned grid steps.
func NoiseSignal(n int) []float32 {
	rp := erand.RndParams{Dist: erand.Gaussian, Mean: 0, Var: 1}
	sig := make([]float32, n)
	for i := range sig {
		sig[i] = float32(rp.Gen(-1))
	}
	return sig
}
