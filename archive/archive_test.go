// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package archive

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
)

// difTol is the numerical difference tolerance for comparing vs. target values
// (KValue uses a fast exp approximation).
const difTol = float32(1.0e-4)

func TestRecordMonotonic(t *testing.T) {
	h := NewHistory()
	h.RegisterConn(0)
	if err := h.RecordSpike(10); err != nil {
		t.Error(err)
	}
	if err := h.RecordSpike(10); !errors.Is(err, ErrNonMonotonicTime) {
		t.Errorf("equal timestamp: got %v, want ErrNonMonotonicTime", err)
	}
	if err := h.RecordSpike(9.5); !errors.Is(err, ErrNonMonotonicTime) {
		t.Errorf("earlier timestamp: got %v, want ErrNonMonotonicTime", err)
	}
	// nearby but representable later time is a distinct entry
	if err := h.RecordSpike(10.001); err != nil {
		t.Error(err)
	}
	if len(h.Spikes) != 2 {
		t.Errorf("got %d entries, want 2", len(h.Spikes))
	}
}

// naiveQuery is the reference full-scan implementation of the (t1, t2] window.
func naiveQuery(times []float32, t1, t2 float32) []float32 {
	var out []float32
	for _, tm := range times {
		if tm > t1 && tm <= t2 {
			out = append(out, tm)
		}
	}
	return out
}

func TestQueryVsNaive(t *testing.T) {
	h := NewHistory()
	h.RegisterConn(0)
	times := []float32{1, 2.5, 3, 7, 7.5, 12, 20, 21, 33.25}
	for _, tm := range times {
		if err := h.RecordSpike(tm); err != nil {
			t.Fatal(err)
		}
	}
	windows := [][2]float32{{0, 40}, {1, 3}, {2.5, 2.5}, {3, 7.5}, {-5, 1}, {33.25, 50}, {40, 50}, {7, 7}}
	for _, w := range windows {
		got := h.Query(w[0], w[1])
		want := naiveQuery(times, w[0], w[1])
		if len(got) != len(want) {
			t.Errorf("window (%g, %g]: got %d entries, want %d", w[0], w[1], len(got), len(want))
			continue
		}
		for i := range got {
			if got[i].T != want[i] {
				t.Errorf("window (%g, %g] entry %d: got t=%g, want %g", w[0], w[1], i, got[i].T, want[i])
			}
		}
	}
}

func TestKValue(t *testing.T) {
	h := NewHistory()
	h.RegisterConn(0)
	if err := h.RecordSpike(10); err != nil {
		t.Fatal(err)
	}
	if err := h.RecordSpike(20); err != nil {
		t.Fatal(err)
	}
	tr10 := float32(1)
	tr20 := tr10*math32.Exp(-10.0/20.0) + 1

	if kv := h.KValue(5); kv != 0 {
		t.Errorf("KValue before first spike: got %v, want 0", kv)
	}
	kv := h.KValue(15)
	want := tr10 * math32.Exp(-5.0/20.0)
	if math32.Abs(kv-want) > difTol {
		t.Errorf("KValue(15): got %v, want %v", kv, want)
	}
	kv = h.KValue(25)
	want = tr20 * math32.Exp(-5.0/20.0)
	if math32.Abs(kv-want) > difTol {
		t.Errorf("KValue(25): got %v, want %v", kv, want)
	}
	// exactly at a spike time returns the undecayed trace
	kv = h.KValue(20)
	if math32.Abs(kv-tr20) > difTol {
		t.Errorf("KValue(20): got %v, want %v", kv, tr20)
	}
}

func TestPruneReaders(t *testing.T) {
	h := NewHistory()
	a := h.RegisterConn(0)
	b := h.RegisterConn(0)
	for _, tm := range []float32{5, 10, 15, 20} {
		if err := h.RecordSpike(tm); err != nil {
			t.Fatal(err)
		}
	}
	h.Query(0, 10) // reader a consumes 5, 10
	h.Prune()
	if len(h.Spikes) != 4 {
		t.Errorf("prune with outstanding reader: got %d entries, want 4", len(h.Spikes))
	}
	h.Query(0, 10) // reader b consumes 5, 10
	h.Prune()
	if len(h.Spikes) != 2 {
		t.Errorf("prune after all readers: got %d entries, want 2", len(h.Spikes))
	}
	if h.Spikes[0].T != 15 {
		t.Errorf("head after prune: got t=%g, want 15", h.Spikes[0].T)
	}
	// a fully consumed entry never shows up in a subsequent query
	if q := h.Query(0, 10); len(q) != 0 {
		t.Errorf("query of pruned range: got %d entries, want 0", len(q))
	}
	_, _ = a, b
}

func TestPruneReleaseFloors(t *testing.T) {
	h := NewHistory()
	a := h.RegisterConn(0)
	b := h.RegisterConn(0)
	for _, tm := range []float32{5, 10, 15, 20} {
		if err := h.RecordSpike(tm); err != nil {
			t.Fatal(err)
		}
	}
	h.ReleaseUpTo(a, 10)
	h.Prune()
	if len(h.Spikes) != 4 {
		t.Errorf("prune with one floor: got %d entries, want 4", len(h.Spikes))
	}
	h.ReleaseUpTo(b, 12)
	h.Prune() // min floor is 10: entries at 5 and 10 go
	if len(h.Spikes) != 2 || h.Spikes[0].T != 15 {
		t.Errorf("prune after both floors: got %d entries head %v, want 2 head 15", len(h.Spikes), h.Spikes[0].T)
	}
}

func TestUnregisterDropsHistory(t *testing.T) {
	h := NewHistory()
	id := h.RegisterConn(0)
	if err := h.RecordSpike(5); err != nil {
		t.Fatal(err)
	}
	h.UnregisterConn(id)
	if len(h.Spikes) != 0 {
		t.Errorf("history retained with no registered connections: %d entries", len(h.Spikes))
	}
	// trace survives without entries
	kv := h.KValue(10)
	want := math32.Exp(-5.0 / 20.0)
	if math32.Abs(kv-want) > difTol {
		t.Errorf("KValue after unregister: got %v, want %v", kv, want)
	}
	// no entries recorded while no one is reading
	if err := h.RecordSpike(15); err != nil {
		t.Fatal(err)
	}
	if len(h.Spikes) != 0 {
		t.Errorf("entry recorded with no registered connections")
	}
}
