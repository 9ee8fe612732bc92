// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikenet

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/c2h5oh/datasize"
	"github.com/emer/emergent/v2/params"
	"github.com/emer/spikenet/archive"
	"github.com/emer/spikenet/chs"
	"github.com/emer/spikenet/stdp"
)

// Conn is one directed plastic connection between a presynaptic and a
// postsynaptic neuron (or from an external spike source when Send is nil).
// The plastic state lives in Syn; the plasticity parameters are the
// homogeneous set shared across the whole network.
type Conn struct {
	Nm   string       `desc:"name of the connection"`
	Syn  stdp.Synapse `desc:"per-connection plastic state"`
	Send *chs.Neuron  `desc:"presynaptic neuron, nil for an externally driven connection"`
	Recv *chs.Neuron  `desc:"postsynaptic neuron"`
}

// spikenet.Network is a minimal connection-management and scheduling layer
// over chs neurons and stdp connections: it validates and registers
// connections, drives neuron updates on the shared grid, and routes output
// spikes through the outgoing plastic synapses.  Each neuron is updated by
// exactly one thread of control in strictly increasing step order.
type Network struct {
	Nm    string      `desc:"name of the network"`
	Nrns  []*chs.Neuron `desc:"all neurons, updated in order each step"`
	Conns []*Conn     `desc:"all connections"`
	Plast stdp.Params `desc:"homogeneous plasticity parameters shared by all connections"`
	Time  Time        `desc:"grid clock"`

	// Horizon is the event delivery horizon in steps for new neurons'
	// input buffers; must cover the maximum delay in use.
	Horizon int `def:"64" min:"1"`

	cbErr error // first error raised inside a spike callback during Step
}

// NewNetwork returns a new network with default parameters.
func NewNetwork(name string) *Network {
	nt := &Network{Nm: name}
	nt.Defaults()
	return nt
}

// Defaults sets default parameters for the network and all neurons.
func (nt *Network) Defaults() {
	nt.Plast.Defaults()
	nt.Time.Defaults()
	if nt.Horizon == 0 {
		nt.Horizon = 64
	}
	for _, nr := range nt.Nrns {
		nr.Params.Defaults()
	}
}

// Name returns the name of the network (params.Styler interface)
func (nt *Network) Name() string { return nt.Nm }

// Class returns the class of the network (params.Styler interface)
func (nt *Network) Class() string { return "" }

// TypeName returns the type name for param selector matching
// (params.Styler interface)
func (nt *Network) TypeName() string { return "Net" }

// UpdateParams updates derived parameters on the network and all neurons.
// Neuron parameter changes invalidate calibration.
func (nt *Network) UpdateParams() {
	nt.Plast.Update()
	for _, nr := range nt.Nrns {
		nr.UpdateParams()
	}
}

// AddNeuron adds a named neuron with default parameters and wires its
// output spikes through its outgoing connections.
func (nt *Network) AddNeuron(name string) *chs.Neuron {
	nr := chs.NewNeuron(nt.Horizon)
	nr.Nm = name
	nr.StepMs = nt.Time.StepMs
	nr.OnSpike = func(t float32) {
		for _, cn := range nt.Conns {
			if cn.Send != nr {
				continue
			}
			if err := cn.Syn.SendSpike(t, cn.Recv, &nt.Plast); err != nil && nt.cbErr == nil {
				nt.cbErr = fmt.Errorf("conn %s: %w", cn.Nm, err)
			}
		}
	}
	nt.Nrns = append(nt.Nrns, nr)
	return nr
}

// Connect creates a plastic connection from send to recv with the given
// initial weight, dendritic delay in ms, and receptor port.  send may be
// nil for a connection driven by an external spike source via SendSpikeIn.
// The receptor port is validated and the connection registered as a reader
// of the target's spike history before any spike can flow.
func (nt *Network) Connect(send, recv *chs.Neuron, wt, delay float32, rcpt ReceptorType) (*Conn, error) {
	if recv == nil {
		return nil, fmt.Errorf("Network %s: Connect: nil target", nt.Nm)
	}
	if !(delay > 0) {
		return nil, fmt.Errorf("Network %s: Connect: delay must be > 0, got %g", nt.Nm, delay)
	}
	cn := &Conn{Send: send, Recv: recv}
	cn.Syn.Defaults()
	cn.Syn.Wt = wt
	cn.Syn.Delay = delay
	cn.Syn.RPort = int32(rcpt)
	snm := "ext"
	if send != nil {
		snm = send.Nm
	}
	cn.Nm = snm + "->" + recv.Nm
	if err := cn.Syn.CheckTarget(recv); err != nil {
		return nil, fmt.Errorf("Network %s: Connect %s: %w", nt.Nm, cn.Nm, err)
	}
	nt.Conns = append(nt.Conns, cn)
	return cn, nil
}

// DeleteConn removes a connection, releasing all history references it
// holds on its target.
func (nt *Network) DeleteConn(cn *Conn) {
	for i, c := range nt.Conns {
		if c == cn {
			nt.Conns = append(nt.Conns[:i], nt.Conns[i+1:]...)
			break
		}
	}
	cn.Syn.Disconnect(cn.Recv)
}

// SendSpikeIn drives an externally-sourced connection with a presynaptic
// spike at grid-aligned time t, running the full plasticity update and
// delivering the resulting event to the target.
func (nt *Network) SendSpikeIn(cn *Conn, t float32) error {
	return cn.Syn.SendSpike(t, cn.Recv, &nt.Plast)
}

// Calibrate derives propagator coefficients for all neurons.  Required
// before the first Step and after any parameter change.
func (nt *Network) Calibrate() error {
	for _, nr := range nt.Nrns {
		if err := nr.Calibrate(); err != nil {
			return fmt.Errorf("Network %s: neuron %s: %w", nt.Nm, nr.Nm, err)
		}
	}
	return nil
}

// Step advances every neuron by one grid step, in order, and increments
// the clock.  Spikes emitted during the step propagate through outgoing
// connections as they occur.
func (nt *Network) Step() error {
	step := nt.Time.Step
	for _, nr := range nt.Nrns {
		if err := nr.Update(step); err != nil {
			return fmt.Errorf("Network %s: neuron %s: %w", nt.Nm, nr.Nm, err)
		}
		if nt.cbErr != nil {
			err := nt.cbErr
			nt.cbErr = nil
			return err
		}
	}
	nt.Time.StepInc()
	return nil
}

// Run advances the network by n grid steps.
func (nt *Network) Run(n int) error {
	for i := 0; i < n; i++ {
		if err := nt.Step(); err != nil {
			return err
		}
	}
	return nil
}

// ApplyParams applies the given parameter style Sheet to the network
// (selector Net, e.g. Net.Plast.Lrate) and each neuron (selector Neuron,
// .class, or #name, e.g. Neuron.Params.TauEPSP).  Calls UpdateParams on
// anything that was set, which invalidates neuron calibration.
// If setMsg is true, a message is printed to confirm each parameter set.
// Returns true if any params were set, and error if there were any errors.
func (nt *Network) ApplyParams(pars *params.Sheet, setMsg bool) (bool, error) {
	applied := false
	var rerr error
	app, err := pars.Apply(nt, setMsg)
	if app {
		nt.Plast.Update()
		applied = true
	}
	if err != nil {
		rerr = err
	}
	for _, nr := range nt.Nrns {
		app, err = pars.Apply(nr, setMsg)
		if app {
			nr.UpdateParams()
			applied = true
		}
		if err != nil {
			rerr = err
		}
	}
	return applied, rerr
}

//////////////////////////////////////////////////////////////////////////////////////
//  Misc Reports

// SizeReport returns a string reporting the size of each neuron's history
// and the total memory footprint of the network.
func (nt *Network) SizeReport() string {
	var b strings.Builder
	neurMem := 0
	histEnt := 0
	for _, nr := range nt.Nrns {
		nmem := int(unsafe.Sizeof(chs.Neuron{})) + len(nr.In.Vals)*4
		hn := len(nr.Hist.Spikes)
		hmem := hn * int(unsafe.Sizeof(archive.Entry{}))
		neurMem += nmem + hmem
		histEnt += hn
		fmt.Fprintf(&b, "%14s:\t HistEntries: %d\t Mem: %v\n", nr.Nm, hn, (datasize.ByteSize)(nmem+hmem).HumanReadable())
	}
	synMem := len(nt.Conns) * int(unsafe.Sizeof(Conn{}))
	fmt.Fprintf(&b, "\n%14s:\t Neurons: %d\t NeurMem: %v \t Conns: %d \t ConnMem: %v \t HistEntries: %d\n",
		nt.Nm, len(nt.Nrns), (datasize.ByteSize)(neurMem).HumanReadable(), len(nt.Conns), (datasize.ByteSize)(synMem).HumanReadable(), histEnt)
	return b.String()
}
