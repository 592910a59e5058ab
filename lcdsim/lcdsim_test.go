// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
)

// strobe latches one nibble the way a driver does: EN up, data, EN
// down.
func strobe(t *testing.T, s *Sim, n byte) {
	t.Helper()
	if err := s.PinEN.Out(gpio.High); err != nil {
		t.Fatal(err)
	}
	for i, p := range []gpio.PinOut{s.PinDB4, s.PinDB5, s.PinDB6, s.PinDB7} {
		if err := p.Out(gpio.Level(n&(1<<i) != 0)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.PinEN.Out(gpio.Low); err != nil {
		t.Fatal(err)
	}
}

func sendByte(t *testing.T, s *Sim, data bool, b byte) {
	t.Helper()
	if err := s.PinRS.Out(gpio.Level(data)); err != nil {
		t.Fatal(err)
	}
	strobe(t, s, b>>4)
	strobe(t, s, b&0x0f)
}

// reset walks a fresh Sim through the datasheet wake-up so that it
// pairs nibbles.
func reset(t *testing.T, s *Sim) {
	t.Helper()
	strobe(t, s, 0x03)
	strobe(t, s, 0x03)
	strobe(t, s, 0x03)
	strobe(t, s, 0x02)
	if !s.FourBit() {
		t.Fatal("controller did not switch to the 4-bit bus")
	}
}

func TestPowerOnState(t *testing.T) {
	s := New()
	if s.FourBit() {
		t.Error("fresh controller must be in 8-bit mode")
	}
	if s.DisplayOn() {
		t.Error("fresh controller must have the display off")
	}
	want := [2]string{"                ", "                "}
	if got := s.Snapshot(); got != want {
		t.Errorf("Snapshot() = %q, want blank rows", got)
	}
}

func TestFourBitNegotiation(t *testing.T) {
	s := New()
	reset(t, s)
	if got := s.Ops(); len(got) != 0 {
		t.Errorf("wake-up traffic must not decode as transfers, got %v", got)
	}
	sendByte(t, s, false, 0x28)
	sendByte(t, s, false, 0x0c)
	want := []IO{{Data: false, Value: 0x28}, {Data: false, Value: 0x0c}}
	if diff := cmp.Diff(s.Ops(), want); diff != "" {
		t.Errorf("decoded traffic difference (-got +want):\n%s", diff)
	}
	if !s.TwoLine() {
		t.Error("Function Set 0x28 must select 2-line mode")
	}
	if !s.DisplayOn() {
		t.Error("Display Control 0x0c must turn the display on")
	}
}

func TestDDRAMWrite(t *testing.T) {
	s := New()
	reset(t, s)
	sendByte(t, s, false, 0x80|0x40)
	sendByte(t, s, true, 'Y')
	rows := s.Snapshot()
	if rows[1][0] != 'Y' {
		t.Errorf("second row = %q, want Y in cell 0", rows[1])
	}
	if got := s.Address(); got != 0x41 {
		t.Errorf("address counter = %#x, want 0x41", got)
	}
}

func TestAddressWrap(t *testing.T) {
	s := New()
	reset(t, s)
	sendByte(t, s, false, 0x80|row0End)
	sendByte(t, s, true, 'a')
	if got := s.Address(); got != row1Start {
		t.Errorf("address counter after row 1 end = %#x, want %#x", got, row1Start)
	}
	sendByte(t, s, false, 0x80|row1End)
	sendByte(t, s, true, 'b')
	if got := s.Address(); got != 0 {
		t.Errorf("address counter after row 2 end = %#x, want 0", got)
	}
}

func TestClear(t *testing.T) {
	s := New()
	reset(t, s)
	sendByte(t, s, true, 'x')
	sendByte(t, s, false, 0x01)
	want := [2]string{"                ", "                "}
	if got := s.Snapshot(); got != want {
		t.Errorf("Snapshot() after clear = %q, want blank rows", got)
	}
	if got := s.Address(); got != 0 {
		t.Errorf("address counter after clear = %d, want 0", got)
	}
}

func TestFlush(t *testing.T) {
	s := New()
	reset(t, s)
	sendByte(t, s, true, 'x')
	s.Flush()
	if len(s.Ops()) != 0 || len(s.Transitions()) != 0 {
		t.Error("Flush() must drop the recorded traffic")
	}
	rows := s.Snapshot()
	if rows[0][0] != 'x' {
		t.Error("Flush() must not touch DDRAM")
	}
}

func TestPins(t *testing.T) {
	s := New()
	pins := []gpio.PinOut{s.PinRS, s.PinEN, s.PinDB4, s.PinDB5, s.PinDB6, s.PinDB7}
	for ix, p := range pins {
		if len(p.Name()) == 0 {
			t.Errorf("pin %d returned empty name", ix)
		}
		if p.Number() != ix {
			t.Errorf("pin %s: unexpected number %d", p.Name(), p.Number())
		}
		if err := p.PWM(gpio.DutyHalf, 0); err != ErrNotImplemented {
			t.Errorf("pin %s: PWM() = %v, want ErrNotImplemented", p.Name(), err)
		}
	}
	if err := s.Halt(); err != nil {
		t.Error(err)
	}
}

func TestRedundantWritesNotRecorded(t *testing.T) {
	s := New()
	if err := s.PinDB4.Out(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if got := s.Transitions(); len(got) != 0 {
		t.Errorf("no-change write recorded as transition: %v", got)
	}
}
