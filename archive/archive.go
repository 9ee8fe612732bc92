// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package archive maintains the postsynaptic spike history that event-driven
plasticity rules query when a presynaptic spike arrives.

Each postsynaptic neuron owns one History: a time-ordered arena of spike
entries, each carrying the running depression trace (K value) at that spike.
Connections register with the History so it knows how many readers depend on
each entry -- an entry whose read count has reached the number of registered
connections, or that lies at or below every connection's release floor, is
pruned from the head.  This keeps query cost proportional to the number of
entries returned rather than total simulation length.

The depression trace is a standard exponential spike trace: incremented by 1
on every postsynaptic spike, decayed by exp(-dt/TauMinus) in between.  KValue
evaluates it at an arbitrary past time by walking back from the tail.
*/
package archive

import (
	"errors"
	"fmt"

	"github.com/goki/mat32"
)

// ErrNonMonotonicTime is returned when a spike is recorded at or before the
// most recent recorded spike time.  Spikes must arrive strictly time-ordered;
// this is an ordering violation in the caller, not a recoverable condition.
var ErrNonMonotonicTime = errors.New("archive: non-monotonic spike time")

// Entry is one postsynaptic spike in the history.
type Entry struct {
	T      float32 `desc:"spike time in ms, grid-aligned"`
	Trace  float32 `desc:"running depression trace (K value) immediately after this spike"`
	Access int32   `desc:"number of times a registered connection has read this entry -- drives pruning"`
}

// History is the spike archive for one postsynaptic neuron.
// Single writer (the owning neuron records spikes), multiple readers
// (connections query ranges); pruning only ever removes entries that every
// registered reader has either read or released.
type History struct {
	TauMinus float32 `def:"20" min:"0" desc:"time constant of the postsynaptic depression trace in ms"`

	Spikes   []Entry           `desc:"time-ordered spike entries, pruned from the head"`
	Kminus   float32           `desc:"depression trace value at LastT"`
	LastT    float32           `desc:"time of most recent recorded spike, 0 if none yet"`
	NConns   int32             `desc:"number of registered connections reading this history"`
	nextID   int32             `view:"-"`
	releases map[int32]float32 `view:"-"`
}

// NewHistory returns a History with default parameters.
func NewHistory() *History {
	h := &History{}
	h.Defaults()
	return h
}

func (h *History) Defaults() {
	h.TauMinus = 20
	if h.releases == nil {
		h.releases = make(map[int32]float32)
	}
}

// Validate checks parameter values.
func (h *History) Validate() error {
	if !(h.TauMinus > 0) {
		return fmt.Errorf("archive: TauMinus must be > 0, got %g", h.TauMinus)
	}
	return nil
}

// RegisterConn registers a new reading connection and returns its id.
// The History only retains spike entries while at least one connection is
// registered -- connection creation / removal governs its lifetime.
// t is the connection's initial release floor (its last presynaptic spike
// time minus dendritic delay, 0 for a fresh connection).
func (h *History) RegisterConn(t float32) int32 {
	if h.releases == nil {
		h.releases = make(map[int32]float32)
	}
	id := h.nextID
	h.nextID++
	h.NConns++
	h.releases[id] = t
	return id
}

// UnregisterConn removes a reading connection, releasing all of its
// outstanding history references.  Must be called when the connection is
// deleted, before the id is discarded.
func (h *History) UnregisterConn(id int32) {
	if _, ok := h.releases[id]; !ok {
		return
	}
	delete(h.releases, id)
	h.NConns--
	h.Prune()
}

// ReleaseUpTo declares that connection id will never again query at or
// before time t, allowing older entries to be pruned without waiting for
// their read counts.
func (h *History) ReleaseUpTo(id int32, t float32) {
	if cur, ok := h.releases[id]; ok && t > cur {
		h.releases[id] = t
	}
}

// RecordSpike records a postsynaptic spike at time t, updating the
// depression trace and appending a history entry.  Returns
// ErrNonMonotonicTime if t is not strictly after the last recorded spike.
// Entries are only retained while connections are registered; the trace
// itself is always maintained.
func (h *History) RecordSpike(t float32) error {
	if (len(h.Spikes) > 0 || h.Kminus > 0) && t <= h.LastT {
		return fmt.Errorf("%w: t=%g <= last=%g", ErrNonMonotonicTime, t, h.LastT)
	}
	h.Prune()
	h.Kminus = h.Kminus*mat32.FastExp((h.LastT-t)/h.TauMinus) + 1
	h.LastT = t
	if h.NConns > 0 {
		h.Spikes = append(h.Spikes, Entry{T: t, Trace: h.Kminus})
	}
	return nil
}

// Query returns the entries with t1 < T <= t2, in ascending time order,
// bumping each returned entry's read count.  The returned slice aliases the
// history arena and is read-only; it remains valid across subsequent
// appends and prunes within the same update step.
func (h *History) Query(t1, t2 float32) []Entry {
	lo := 0
	for lo < len(h.Spikes) && h.Spikes[lo].T <= t1 {
		lo++
	}
	hi := lo
	for hi < len(h.Spikes) && h.Spikes[hi].T <= t2 {
		h.Spikes[hi].Access++
		hi++
	}
	return h.Spikes[lo:hi]
}

// KValue returns the depression trace evaluated at time t: the trace at the
// last spike at or before t, decayed to t.  Zero if no spike precedes t.
// If the history has been fully pruned, the running trace is decayed from
// the last recorded spike instead.
func (h *History) KValue(t float32) float32 {
	if len(h.Spikes) == 0 {
		if h.Kminus == 0 || t < h.LastT {
			return 0
		}
		return h.Kminus * mat32.FastExp((h.LastT-t)/h.TauMinus)
	}
	for i := len(h.Spikes) - 1; i >= 0; i-- {
		if t >= h.Spikes[i].T {
			return h.Spikes[i].Trace * mat32.FastExp((h.Spikes[i].T-t)/h.TauMinus)
		}
	}
	return 0
}

// Prune removes entries from the head that no registered connection can
// still need: entries read by every registered connection, or at or below
// every connection's release floor.  The most recent entry is always kept
// so KValue has an anchor.  Amortized O(1) per removed entry.
func (h *History) Prune() {
	if len(h.Spikes) == 0 {
		return
	}
	if h.NConns == 0 {
		// no readers left: drop everything, trace state is kept separately
		h.Spikes = h.Spikes[len(h.Spikes):]
		return
	}
	rel, hasRel := h.minRelease()
	n := 0
	for n < len(h.Spikes)-1 {
		e := &h.Spikes[n]
		if e.Access >= h.NConns || (hasRel && e.T <= rel) {
			n++
		} else {
			break
		}
	}
	if n > 0 {
		h.Spikes = h.Spikes[n:]
	}
}

// minRelease returns the minimum release floor over all registered
// connections, and whether any floors exist.
func (h *History) minRelease() (float32, bool) {
	first := true
	var min float32
	for _, t := range h.releases {
		if first || t < min {
			min = t
			first = false
		}
	}
	return min, !first
}
