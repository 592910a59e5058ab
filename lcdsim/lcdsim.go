// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdsim emulates the controller side of an HD44780 16x2
// character LCD wired in 4-bit mode. It exposes the six bus lines as
// gpio.PinOut implementations, decodes the strobed nibble traffic into
// instructions and DDRAM writes, and records both the raw pin
// transitions and the decoded transfers.
//
// Useful for driving display code on a machine without the hardware,
// and for asserting exact bus traffic in tests.
package lcdsim

import (
	"errors"
	"sync"

	"periph.io/x/conn/v3/gpio"
)

var ErrNotImplemented = errors.New("lcdsim: not implemented")

// Role names one of the six bus lines.
type Role int

const (
	RS Role = iota
	EN
	DB4
	DB5
	DB6
	DB7
)

var roleNames = [...]string{"RS", "EN", "DB4", "DB5", "DB6", "DB7"}

func (r Role) String() string {
	if r < RS || r > DB7 {
		return "?"
	}
	return roleNames[r]
}

// Transition is one observed level change on a bus line. Writes that
// leave the line at its current level are not recorded.
type Transition struct {
	Role  Role
	Level gpio.Level
}

// IO is one decoded 8-bit transfer. Data is true when the RS line was
// high at the latch edge, i.e. the byte is a character rather than an
// instruction.
type IO struct {
	Data  bool
	Value byte
}

const (
	rows = 2
	cols = 16

	// DDRAM layout of the 2-line controller: row 1 at 0x00..0x27, row 2
	// at 0x40..0x67. The gap is not addressable.
	row0End   = 0x27
	row1Start = 0x40
	row1End   = 0x67
)

// Sim emulates one display controller. The exported pin fields are the
// bus lines; wire them into the driver under test or into
// displaylcd.Opts.
type Sim struct {
	PinRS  gpio.PinOut
	PinEN  gpio.PinOut
	PinDB4 gpio.PinOut
	PinDB5 gpio.PinOut
	PinDB6 gpio.PinOut
	PinDB7 gpio.PinOut

	mu          sync.Mutex
	levels      [6]gpio.Level
	fourBit     bool
	havePending bool
	pending     byte
	ddram       [row1End + 1]byte
	ac          int
	increment   bool
	displayOn   bool
	twoLine     bool
	transitions []Transition
	ops         []IO
}

// New returns a powered-on controller in its reset state: 8-bit bus
// width, display off, DDRAM blank.
func New() *Sim {
	s := &Sim{increment: true}
	for i := range s.ddram {
		s.ddram[i] = ' '
	}
	s.PinRS = &Pin{sim: s, role: RS}
	s.PinEN = &Pin{sim: s, role: EN}
	s.PinDB4 = &Pin{sim: s, role: DB4}
	s.PinDB5 = &Pin{sim: s, role: DB5}
	s.PinDB6 = &Pin{sim: s, role: DB6}
	s.PinDB7 = &Pin{sim: s, role: DB7}
	return s
}

func (s *Sim) String() string {
	return "lcdsim"
}

// Halt implements conn.Resource.
func (s *Sim) Halt() error {
	return nil
}

func (s *Sim) set(r Role, l gpio.Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.levels[r]
	if prev == l {
		return nil
	}
	s.levels[r] = l
	s.transitions = append(s.transitions, Transition{Role: r, Level: l})
	if r == EN && prev == gpio.High && l == gpio.Low {
		s.latchLocked()
	}
	return nil
}

// latchLocked runs on the falling EN edge, the moment the controller
// samples DB4..DB7.
func (s *Sim) latchLocked() {
	var n byte
	for i, r := range [4]Role{DB4, DB5, DB6, DB7} {
		if s.levels[r] == gpio.High {
			n |= 1 << i
		}
	}
	if !s.fourBit {
		// In the reset 8-bit state every strobe is a full transfer with
		// the low data lines unconnected. The only traffic that matters
		// is the Function Set switching to the 4-bit bus; the 0x3
		// wake-up nibbles have no visible effect.
		if n == 0x02 {
			s.fourBit = true
		}
		return
	}
	if !s.havePending {
		s.pending = n << 4
		s.havePending = true
		return
	}
	b := s.pending | n
	s.havePending = false
	data := s.levels[RS] == gpio.High
	s.ops = append(s.ops, IO{Data: data, Value: b})
	s.execLocked(b, data)
}

func (s *Sim) execLocked(b byte, data bool) {
	if data {
		s.ddram[s.ac] = b
		s.advanceLocked()
		return
	}
	switch {
	case b == 0x01: // Clear Display
		for i := range s.ddram {
			s.ddram[i] = ' '
		}
		s.ac = 0
		s.increment = true
	case b&0xfe == 0x02: // Return Home
		s.ac = 0
	case b&0xfc == 0x04: // Entry Mode Set
		s.increment = b&0x02 != 0
	case b&0xf8 == 0x08: // Display On/Off Control
		s.displayOn = b&0x04 != 0
	case b&0xe0 == 0x20: // Function Set
		s.twoLine = b&0x08 != 0
		if b&0x10 != 0 {
			s.fourBit = false
		}
	case b&0x80 != 0: // Set DDRAM Address
		s.setAddressLocked(int(b & 0x7f))
	}
}

func (s *Sim) setAddressLocked(addr int) {
	switch {
	case addr <= row0End:
		s.ac = addr
	case addr >= row1Start && addr <= row1End:
		s.ac = addr
	default:
		s.ac = 0
	}
}

// advanceLocked moves the address counter after a DDRAM access. The
// two rows chain to each other in 2-line mode.
func (s *Sim) advanceLocked() {
	if s.increment {
		s.ac++
		switch s.ac {
		case row0End + 1:
			s.ac = row1Start
		case row1End + 1:
			s.ac = 0
		}
		return
	}
	s.ac--
	switch s.ac {
	case row1Start - 1:
		s.ac = row0End
	case -1:
		s.ac = row1End
	}
}

// Snapshot returns the visible 16 cells of each row.
func (s *Sim) Snapshot() [rows]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return [rows]string{
		string(s.ddram[0:cols]),
		string(s.ddram[row1Start : row1Start+cols]),
	}
}

// Ops returns a copy of every decoded 8-bit transfer so far.
func (s *Sim) Ops() []IO {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]IO(nil), s.ops...)
}

// Transitions returns a copy of the pin transition log.
func (s *Sim) Transitions() []Transition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Transition(nil), s.transitions...)
}

// Flush discards the recorded transfers and transitions. The decode
// and display state is untouched.
func (s *Sim) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = nil
	s.transitions = nil
}

// Address returns the current DDRAM address counter.
func (s *Sim) Address() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ac
}

// FourBit reports whether the controller has been switched to the
// 4-bit bus.
func (s *Sim) FourBit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fourBit
}

// TwoLine reports the N bit of the last Function Set.
func (s *Sim) TwoLine() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.twoLine
}

// DisplayOn reports the D bit of the last Display Control.
func (s *Sim) DisplayOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayOn
}
