// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Pin is one emulated bus line.
type Pin struct {
	sim  *Sim
	role Role
}

// Halt implements conn.Resource.
func (p *Pin) Halt() error {
	return nil
}

// Name returns the name of the emulated line.
func (p *Pin) Name() string {
	return "LCDSIM_" + p.role.String()
}

// Number returns the line number within the simulator.
func (p *Pin) Number() int {
	return int(p.role)
}

// Deprecated: returns "Out".
func (p *Pin) Function() string {
	return "Out"
}

// Out writes the specified gpio.Level to the line and feeds the
// decoder.
func (p *Pin) Out(l gpio.Level) error {
	return p.sim.set(p.role, l)
}

// Not implemented.
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return ErrNotImplemented
}

func (p *Pin) String() string {
	return p.Name()
}

var _ gpio.PinOut = &Pin{}
