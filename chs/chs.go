// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package chs implements the spike-response neuron model of Carandini, Horton
& Sincich (2007), Thalamic filtering of retinal spike trains by postsynaptic
summation, J Vis 7(14).

The membrane potential is the sum of stereotyped events: alpha-function
postsynaptic potentials (VSyn, peak amplitude UEPSP at TauEPSP), a spike
waveform of reset followed by exponential recovery (VSpike, magnitude UReset,
time constant TauReset), and externally pregenerated Gaussian noise scaled by
UNoise.

The linear subthreshold dynamics is advanced by exact integration (Rotter &
Diesmann 1999, Exact simulation of time-invariant linear systems with
applications to neuronal modeling, Biol Cybern 81): Calibrate derives
closed-form propagator coefficients for the configured grid step, and Update
applies the resulting affine recurrence once per step.  This is exact for
the linear system, not an approximate integration.  Incoming and emitted
spikes are aligned to the step grid.

The noise term cannot be drawn online the way the original model specifies,
so the noise signal is prepared externally prior to simulation and must be
at least as long as the planned number of steps.
*/
package chs

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/emer/spikenet/archive"
	"github.com/emer/spikenet/ring"
)

var (
	// ErrBadParameter is returned for invalid neuron parameter values.
	// Parameters are validated before commit; prior values are preserved.
	ErrBadParameter = errors.New("chs: bad parameter")

	// ErrNotCalibrated is returned by Update when propagator coefficients
	// are missing or stale: after construction, or after any parameter
	// change, Calibrate must run before the next Update.
	ErrNotCalibrated = errors.New("chs: not calibrated")

	// ErrInsufficientNoiseData is returned when the grid position would
	// index past the end of the supplied noise signal.  Fatal for this
	// neuron: the simulation cannot proceed without noise samples.
	ErrInsufficientNoiseData = errors.New("chs: insufficient noise data")

	// ErrUnknownReceptor is returned at connection-setup time for a
	// receptor port this model does not support, before any spike is
	// processed.
	ErrUnknownReceptor = errors.New("chs: unknown receptor type")
)

// Params are the independent parameters of the model.  Amplitudes are
// normalized per the original model (resting = 0, threshold = 1).
type Params struct {
	TauEPSP  float32   `def:"8.5" min:"0" desc:"membrane time constant in ms: time to peak of the alpha-function EPSP"`
	TauReset float32   `def:"15.4" min:"0" desc:"refractory time constant in ms: recovery from the post-spike reset"`
	EL       float32   `def:"0" desc:"resting potential, normalized -- baseline offset added to the observable membrane potential"`
	UTh      float32   `def:"1" desc:"spike threshold, normalized"`
	UEPSP    float32   `def:"0.77" desc:"normalized maximum amplitude of the EPSP"`
	UReset   float32   `def:"2.31" desc:"normalized magnitude of the membrane potential reset"`
	C        float32   `def:"1" min:"0" desc:"membrane capacitance -- does not have any function currently"`
	UNoise   float32   `def:"0" min:"0" desc:"noise scale, normalized"`
	TauMinus float32   `def:"20" min:"0" desc:"time constant of the postsynaptic depression trace maintained in the spike history, in ms"`
	Noise    []float32 `view:"-" desc:"externally pregenerated Gaussian noise signal -- must be at least as long as the planned number of simulation steps"`
}

func (pr *Params) Defaults() {
	pr.TauEPSP = 8.5
	pr.TauReset = 15.4
	pr.EL = 0
	pr.UTh = 1
	pr.UEPSP = 0.77
	pr.UReset = 2.31
	pr.C = 1
	pr.UNoise = 0
	pr.TauMinus = 20
	pr.Update()
}

// Update must be called after any changes to parameters.
func (pr *Params) Update() {
}

// Validate checks all parameter values, returning an error wrapping
// ErrBadParameter naming the first offending field.
func (pr *Params) Validate() error {
	switch {
	case !(pr.TauEPSP > 0):
		return fmt.Errorf("%w: TauEPSP must be > 0, got %g", ErrBadParameter, pr.TauEPSP)
	case !(pr.TauReset > 0):
		return fmt.Errorf("%w: TauReset must be > 0, got %g", ErrBadParameter, pr.TauReset)
	case !(pr.C > 0):
		return fmt.Errorf("%w: C must be > 0, got %g", ErrBadParameter, pr.C)
	case !(pr.TauMinus > 0):
		return fmt.Errorf("%w: TauMinus must be > 0, got %g", ErrBadParameter, pr.TauMinus)
	case pr.UNoise < 0:
		return fmt.Errorf("%w: UNoise must be >= 0, got %g", ErrBadParameter, pr.UNoise)
	}
	return nil
}

// State are the state variables of the model, mutated only by Update,
// once per grid step, strictly sequentially.
type State struct {
	ISynEx   float32 `desc:"postsynaptic current for excitatory inputs"`
	VSyn     float32 `desc:"psp waveform value"`
	VSpike   float32 `desc:"post-spike reset waveform value"`
	Vm       float32 `desc:"membrane potential relative to the EL baseline"`
	Position int     `desc:"grid position: index of the next noise sample"`
	Step     int     `desc:"next grid step to be updated"`
}

// Propagators are the exact-integration time evolution coefficients,
// derived once from Params and the grid step size at calibration time.
// Invalid after any parameter change until recalibrated.
type Propagators struct {
	P20   float32 `desc:"current input propagator"`
	P11Ex float32 `desc:"synaptic current decay over one step"`
	P21Ex float32 `desc:"current-to-psp coupling over one step, peak-normalized to UEPSP"`
	P22   float32 `desc:"psp decay over one step"`
	P30   float32 `desc:"spike waveform decay over one step"`
}

// chs.Neuron is one model neuron: parameters, state, cached propagators,
// the postsynaptic spike history read by plastic connections, and the
// per-step input accumulator drained on each update.  Exactly one logical
// thread of control may call Update, in strictly increasing step order;
// the spike history tolerates concurrent readers per archive.History.
type Neuron struct {
	Nm  string `desc:"name of the neuron, for recording and param styling"`
	Cls string `desc:"class(es) of the neuron, space separated, for param styling"`

	Params Params      `desc:"model parameters"`
	St     State       `desc:"state variables"`
	Props  Propagators `inactive:"+" desc:"cached exact-integration propagators"`
	StepMs float32     `def:"1" min:"0" desc:"simulation grid step size in ms"`

	Hist *archive.History `desc:"postsynaptic spike history with depression trace"`
	In   *ring.Buffer     `desc:"grid-aligned input accumulator, drained once per step"`

	// OnSpike, if set, is called with the grid-aligned spike time for
	// every output spike, after the spike has been recorded in Hist.
	OnSpike func(t float32) `view:"-" json:"-" xml:"-"`

	Calibrated bool `inactive:"+" desc:"propagators match current params and step size"`
}

// NewNeuron returns a Neuron with default parameters, an input buffer
// covering the given delivery horizon in steps, and an empty spike history.
// Calibrate must be called before the first Update.
func NewNeuron(horizon int) *Neuron {
	nr := &Neuron{}
	nr.Params.Defaults()
	nr.StepMs = 1
	nr.Hist = archive.NewHistory()
	nr.In = ring.NewBuffer(horizon)
	return nr
}

// Name returns the name of the neuron (params.Styler interface)
func (nr *Neuron) Name() string { return nr.Nm }

// Class returns the class(es) of the neuron (params.Styler interface)
func (nr *Neuron) Class() string { return nr.Cls }

// TypeName returns the type name for param selector matching
// (params.Styler interface)
func (nr *Neuron) TypeName() string { return "Neuron" }

// UpdateParams updates derived parameter values and invalidates the
// propagators: Calibrate must run before the next Update.  Called after
// any external parameter application.
func (nr *Neuron) UpdateParams() {
	nr.Params.Update()
	nr.Calibrated = false
}

// InitState resets all state variables and the input buffer; parameters
// and calibration are untouched.
func (nr *Neuron) InitState() {
	nr.St = State{}
	nr.In.Reset()
}

// SetParams commits the candidate parameter set if it fully validates,
// leaving the neuron unchanged on error.  Any commit invalidates the
// propagators: Calibrate must run before the next Update.  Supplying a new
// noise signal resets the grid position.
func (nr *Neuron) SetParams(cand Params) error {
	if err := cand.Validate(); err != nil {
		return err
	}
	if len(cand.Noise) != len(nr.Params.Noise) ||
		(len(cand.Noise) > 0 && &cand.Noise[0] != &nr.Params.Noise[0]) {
		nr.St.Position = 0
	}
	nr.Params = cand
	nr.Params.Update()
	nr.Calibrated = false
	return nil
}

// Calibrate derives the exact-integration propagators from the current
// parameters and grid step size.  Required after construction and after any
// parameter change.  Idempotent: unchanged parameters yield identical
// coefficients.
func (nr *Neuron) Calibrate() error {
	if err := nr.Params.Validate(); err != nil {
		return err
	}
	if !(nr.StepMs > 0) {
		return fmt.Errorf("%w: StepMs must be > 0, got %g", ErrBadParameter, nr.StepMs)
	}
	h := nr.StepMs
	pr := &nr.Params
	pp := &nr.Props
	pp.P11Ex = math32.Exp(-h / pr.TauEPSP)
	pp.P22 = math32.Exp(-h / pr.TauEPSP)
	pp.P30 = math32.Exp(-h / pr.TauReset)
	// alpha-function EPSP: a unit-weight input peaks at UEPSP after TauEPSP
	pp.P21Ex = pr.UEPSP * math32.E * h / pr.TauEPSP * pp.P11Ex
	pp.P20 = pr.TauEPSP / pr.C * (1 - pp.P11Ex)
	nr.Hist.TauMinus = pr.TauMinus
	if err := nr.Hist.Validate(); err != nil {
		return err
	}
	nr.Calibrated = true
	return nil
}

// Update advances the neuron by one grid step.  Must be called with
// strictly sequential step indexes, one call per grid tick: buffered input
// for this step is drained into the synaptic current, the state advances by
// the exact propagator recurrence, the noise sample for this position is
// applied, and a threshold crossing emits a spike, records it in the
// history, and applies the reset to the spike waveform.
func (nr *Neuron) Update(step int) error {
	if !nr.Calibrated {
		return fmt.Errorf("%w: Calibrate required before Update", ErrNotCalibrated)
	}
	if step != nr.St.Step {
		return fmt.Errorf("chs: Update step %d out of order, expected %d", step, nr.St.Step)
	}
	st := &nr.St
	pr := &nr.Params
	pp := &nr.Props

	st.VSyn = st.VSyn*pp.P22 + st.ISynEx*pp.P21Ex
	st.ISynEx *= pp.P11Ex
	// spikes arriving at this step have an immediate effect on the current
	st.ISynEx += nr.In.Drain(step)
	st.VSpike *= pp.P30

	var noise float32
	if len(pr.Noise) > 0 {
		if st.Position >= len(pr.Noise) {
			return fmt.Errorf("%w: step %d needs sample %d, signal has %d", ErrInsufficientNoiseData, step, st.Position, len(pr.Noise))
		}
		noise = pr.UNoise * pr.Noise[st.Position]
		st.Position++
	}

	st.Vm = st.VSyn + st.VSpike + noise
	st.Step = step + 1

	if st.Vm+pr.EL >= pr.UTh {
		st.VSpike -= pr.UReset
		t := float32(step+1) * nr.StepMs
		if err := nr.Hist.RecordSpike(t); err != nil {
			return err
		}
		if nr.OnSpike != nil {
			nr.OnSpike(t)
		}
	}
	return nil
}

//////////////////////////////////////////////////////////////////////////////////////
//  stdp.Target capability surface

// History returns the postsynaptic spike archive.
func (nr *Neuron) History() *archive.History {
	return nr.Hist
}

// ConnectSender validates the requested receptor port: this model accepts
// spike events on port 0 only.
func (nr *Neuron) ConnectSender(rport int32) error {
	if rport != 0 {
		return fmt.Errorf("%w: port %d", ErrUnknownReceptor, rport)
	}
	return nil
}

// Handle buffers a weighted spike emitted at time t for arrival at
// t + delay, aligned to the grid.
func (nr *Neuron) Handle(t, wt, delay float32, rport int32) error {
	if err := nr.ConnectSender(rport); err != nil {
		return err
	}
	step := int(math32.Round((t + delay) / nr.StepMs))
	return nr.In.Add(nr.St.Step, step, wt)
}

//////////////////////////////////////////////////////////////////////////////////////
//  Recordables

// NeuronVars are the state variables recordable by name.  Vm is reported
// with the EL baseline included, matching the observable membrane potential.
var NeuronVars = []string{"ISynEx", "VSyn", "VSpike", "Vm", "Kminus"}

// NeuronVarFuncs maps recordable names to read-only accessors.
// Built once at package init, read-only thereafter: this is the single
// registry used by external samplers; no privileged state access is needed.
var NeuronVarFuncs map[string]func(nr *Neuron) float32

func init() {
	NeuronVarFuncs = map[string]func(nr *Neuron) float32{
		"ISynEx": func(nr *Neuron) float32 { return nr.St.ISynEx },
		"VSyn":   func(nr *Neuron) float32 { return nr.St.VSyn },
		"VSpike": func(nr *Neuron) float32 { return nr.St.VSpike },
		"Vm":     func(nr *Neuron) float32 { return nr.St.Vm + nr.Params.EL },
		"Kminus": func(nr *Neuron) float32 { return nr.Hist.Kminus },
	}
}

func (nr *Neuron) VarNames() []string {
	return NeuronVars
}

// VarByName returns the named recordable value, or error for an invalid name.
func (nr *Neuron) VarByName(varNm string) (float32, error) {
	fn, ok := NeuronVarFuncs[varNm]
	if !ok {
		return 0, fmt.Errorf("Neuron VarByName: variable name: %v not valid", varNm)
	}
	return fn(nr), nil
}
