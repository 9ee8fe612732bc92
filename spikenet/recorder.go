// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikenet

import (
	"strconv"

	"github.com/emer/etable/v2/etable"
	"github.com/emer/etable/v2/etensor"
	"github.com/emer/spikenet/chs"
)

// LogPrec is precision for saving float values in recorder logs
const LogPrec = 4

// Recorder samples named recordable state variables from a set of neurons
// into an etable.Table, one row per grid step.  Sampling is read-only and
// has no side effects on the neurons; the caller chooses the cadence by
// when it calls Record.
type Recorder struct {
	Tab  *etable.Table `view:"no-inline" desc:"the recorded samples, one row per Record call"`
	Nrns []*chs.Neuron `desc:"neurons to sample"`
	Vars []string      `desc:"recordable variable names to sample -- defaults to all chs.NeuronVars"`
}

// NewRecorder returns a Recorder sampling all recordable variables of the
// given neurons, with a configured table.
func NewRecorder(nrns ...*chs.Neuron) *Recorder {
	rc := &Recorder{Nrns: nrns, Vars: chs.NeuronVars}
	rc.Tab = &etable.Table{}
	rc.ConfigTable(rc.Tab)
	return rc
}

// ColName returns the table column name for a neuron variable.
func ColName(nr *chs.Neuron, varNm string) string {
	nm := nr.Nm
	if nm == "" {
		nm = "Neuron"
	}
	return nm + "." + varNm
}

func (rc *Recorder) ConfigTable(dt *etable.Table) {
	dt.SetMetaData("name", "SpikeNetRecord")
	dt.SetMetaData("read-only", "true")
	dt.SetMetaData("precision", strconv.Itoa(LogPrec))

	sch := etable.Schema{
		{"Time", etensor.FLOAT64, nil, nil},
	}
	for _, nr := range rc.Nrns {
		for _, vn := range rc.Vars {
			sch = append(sch, etable.Column{ColName(nr, vn), etensor.FLOAT64, nil, nil})
		}
	}
	dt.SetFromSchema(sch, 0)
}

// Record appends one row sampling every configured variable of every
// neuron at the current grid time.
func (rc *Recorder) Record(tm *Time) error {
	dt := rc.Tab
	row := dt.Rows
	dt.AddRows(1)
	dt.SetCellFloat("Time", row, float64(tm.Ms))
	for _, nr := range rc.Nrns {
		for _, vn := range rc.Vars {
			v, err := nr.VarByName(vn)
			if err != nil {
				return err
			}
			dt.SetCellFloat(ColName(nr, vn), row, float64(v))
		}
	}
	return nil
}
