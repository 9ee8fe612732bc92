// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package spikenet is the overall repository for an event-driven spiking
network core with exactly-integrated point neurons and spike-timing
dependent plasticity, implemented in the Go language (golang).

This top-level of the repository has no functional code -- everything is
organized into the following sub-repositories:

* spikenet: the network container tying neurons and plastic connections
together on a fixed integration grid, with parameter application via
emergent params sheets and state recording into etable tables.

* chs: the conductance-history-summation point neuron from Carandini et
al (2007), integrated exactly with precomputed propagator coefficients
(Rotter & Diesmann, 1999), including the postsynaptic spike archive
hooks and by-name recordable state access.

* stdp: power-law spike-timing dependent plasticity with homogeneous
parameters, processed entirely on the presynaptic side: each
presynaptic spike replays the postsynaptic spike history over the
elapsed window and commits the resulting weight before delivery.

* archive: the postsynaptic spike history consumed by stdp --
reference-counted entries with an exponential low-pass depression
trace, pruned once every registered connection has read past them.

* ring: fixed-horizon circular input buffer accumulating delayed
weighted spikes per grid step.
*/
package spikenet
