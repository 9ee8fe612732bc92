// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikenet

import (
	"errors"
	"testing"

	"github.com/emer/spikenet/chs"
)

func TestNetworkPropagation(t *testing.T) {
	nt := NewNetwork("TestNet")
	pre := nt.AddNeuron("Pre")
	post := nt.AddNeuron("Post")
	cn, err := nt.Connect(pre, post, 1, 1, Excitatory)
	if err != nil {
		t.Fatal(err)
	}
	if err := nt.Calibrate(); err != nil {
		t.Fatal(err)
	}
	// direct suprathreshold drive on the presynaptic neuron
	if err := pre.In.Add(0, 0, 2); err != nil {
		t.Fatal(err)
	}
	if err := nt.Run(30); err != nil {
		t.Fatal(err)
	}
	if pre.Hist.LastT != 4 {
		t.Errorf("pre spike time: got %v, want 4", pre.Hist.LastT)
	}
	if post.St.VSyn <= 0 {
		t.Errorf("post received no EPSP: VSyn=%v", post.St.VSyn)
	}
	if post.Hist.LastT != 0 {
		t.Errorf("post spiked spuriously at %v", post.Hist.LastT)
	}
	// plasticity state advanced with the presynaptic spike
	if cn.Syn.TLast != 4 || cn.Syn.Kplus != 1 {
		t.Errorf("synapse trace: TLast=%v Kplus=%v, want 4, 1", cn.Syn.TLast, cn.Syn.Kplus)
	}
	// empty postsynaptic history: weight unchanged
	if cn.Syn.Wt != 1 {
		t.Errorf("weight changed without postsynaptic history: %v", cn.Syn.Wt)
	}
	if nt.Time.Step != 30 || nt.Time.Ms != 30 {
		t.Errorf("clock: step=%d ms=%v, want 30, 30", nt.Time.Step, nt.Time.Ms)
	}
}

func TestConnectUnknownReceptor(t *testing.T) {
	nt := NewNetwork("TestNet")
	pre := nt.AddNeuron("Pre")
	post := nt.AddNeuron("Post")
	_, err := nt.Connect(pre, post, 1, 1, ReceptorType(3))
	if !errors.Is(err, chs.ErrUnknownReceptor) {
		t.Errorf("bad receptor: got %v, want ErrUnknownReceptor", err)
	}
	if len(nt.Conns) != 0 {
		t.Errorf("rejected connection was kept")
	}
	if post.Hist.NConns != 0 {
		t.Errorf("rejected connection registered with history")
	}
}

func TestConnectBadDelay(t *testing.T) {
	nt := NewNetwork("TestNet")
	post := nt.AddNeuron("Post")
	if _, err := nt.Connect(nil, post, 1, 0, Excitatory); err == nil {
		t.Errorf("zero delay accepted")
	}
}

func TestExternalDrive(t *testing.T) {
	nt := NewNetwork("TestNet")
	post := nt.AddNeuron("Post")
	cn, err := nt.Connect(nil, post, 1.5, 1, Excitatory)
	if err != nil {
		t.Fatal(err)
	}
	if err := nt.Calibrate(); err != nil {
		t.Fatal(err)
	}
	if err := nt.SendSpikeIn(cn, 0); err != nil {
		t.Fatal(err)
	}
	if err := nt.Run(20); err != nil {
		t.Fatal(err)
	}
	// 1.5 weight EPSP peaks above threshold: the target must have fired
	if post.Hist.LastT == 0 {
		t.Errorf("post did not spike from external drive")
	}
}

func TestDeleteConn(t *testing.T) {
	nt := NewNetwork("TestNet")
	pre := nt.AddNeuron("Pre")
	post := nt.AddNeuron("Post")
	cn, err := nt.Connect(pre, post, 1, 1, Excitatory)
	if err != nil {
		t.Fatal(err)
	}
	if post.Hist.NConns != 1 {
		t.Fatalf("history conns: got %d, want 1", post.Hist.NConns)
	}
	nt.DeleteConn(cn)
	if post.Hist.NConns != 0 {
		t.Errorf("history conns after delete: got %d, want 0", post.Hist.NConns)
	}
	if len(nt.Conns) != 0 {
		t.Errorf("conns after delete: got %d, want 0", len(nt.Conns))
	}
}

func TestSizeReport(t *testing.T) {
	nt := NewNetwork("TestNet")
	nt.AddNeuron("Pre")
	nt.AddNeuron("Post")
	rep := nt.SizeReport()
	if rep == "" {
		t.Errorf("empty size report")
	}
}

func TestNoiseSignal(t *testing.T) {
	sig := NoiseSignal(100)
	if len(sig) != 100 {
		t.Fatalf("signal length: got %d, want 100", len(sig))
	}
	nz := 0
	for _, v := range sig {
		if v != 0 {
			nz++
		}
	}
	if nz == 0 {
		t.Errorf("noise signal is all zero")
	}
}
