// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package displaylcd

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
)

const (
	packageName = "displaylcd"

	rows = 2
	cols = 16

	// MinAddress and MaxAddress bound the public cursor addressing: cells
	// are numbered 1..32, row major, with 17 being the first cell of the
	// second row.
	MinAddress = 1
	MaxAddress = rows * cols
)

// Controller instructions used by this driver.
const (
	cmdClearDisplay   byte = 0x01
	cmdEntryModeSet   byte = 0x06 // increment, no display shift
	cmdDisplayControl byte = 0x0c // display on, cursor off, blink off
	cmdFunctionSet    byte = 0x28 // 4-bit bus, 2 lines, 5x8 font
	cmdSetDDRAMAddr   byte = 0x80
)

// Bus timing. The setup/hold values come straight from the HD44780
// datasheet and are minimums; time.Sleep only guarantees "at least".
const (
	enableSetup  = 150 * time.Nanosecond // EN high to data valid
	dataHold     = 80 * time.Nanosecond  // data valid to EN falling edge
	enableHold   = 10 * time.Nanosecond  // recovery after the latch edge
	execTime     = 40 * time.Microsecond // any instruction except Clear Display
	clearTime    = 2 * time.Millisecond  // Clear Display needs 1.52ms
	powerOnDelay = 15 * time.Millisecond
)

var ErrNotImplemented = fmt.Errorf("%s: %w", packageName, display.ErrNotImplemented)

// resetSequence is the documented path from an undefined power-on state
// into 4-bit operation. Each step is one raw nibble followed by a
// minimum gap. The values and delays are controller constants; do not
// reorder or shorten them.
var resetSequence = []struct {
	nibble byte
	delay  time.Duration
}{
	{0x03, 5 * time.Millisecond},
	{0x03, 100 * time.Microsecond},
	{0x03, execTime},
	{0x02, execTime},
	{cmdFunctionSet >> 4, 0},
	{cmdFunctionSet & 0x0f, execTime},
	{cmdDisplayControl >> 4, 0},
	{cmdDisplayControl & 0x0f, execTime},
	{cmdEntryModeSet >> 4, 0},
	{cmdEntryModeSet & 0x0f, execTime},
}

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}

// Opts holds the wiring of the display. All six pins are required and
// must be distinct lines. Line1 and Line2 are printed to the two rows
// once during initialization; empty strings leave the rows blank.
type Opts struct {
	RS  gpio.PinOut
	EN  gpio.PinOut
	DB4 gpio.PinOut
	DB5 gpio.PinOut
	DB6 gpio.PinOut
	DB7 gpio.PinOut

	Line1 string
	Line2 string
}

// Dev is an open handle to the display. It owns the six GPIO lines for
// its entire lifetime.
//
// Implements periph.io/x/conn/v3/display.TextDisplay.
type Dev struct {
	rs gpio.PinOut
	en gpio.PinOut
	// DB4..DB7, ascending. Bit 0 of a nibble goes to data[0].
	data [4]gpio.PinOut

	// Serializes transfers. Interleaved nibbles corrupt the controller's
	// latch, so every public operation holds mu for its full duration.
	mu sync.Mutex
}

// New drives all six lines low, runs the power-on reset sequence to
// bring the controller into 4-bit/2-line/5x8 mode, clears the display
// and prints the two startup lines from opts.
func New(opts *Opts) (*Dev, error) {
	named := []struct {
		name string
		pin  gpio.PinOut
	}{
		{"RS", opts.RS},
		{"EN", opts.EN},
		{"DB4", opts.DB4},
		{"DB5", opts.DB5},
		{"DB6", opts.DB6},
		{"DB7", opts.DB7},
	}
	for i, b := range named {
		if b.pin == nil {
			return nil, fmt.Errorf("%s: %s pin is required", packageName, b.name)
		}
		for _, prev := range named[:i] {
			if prev.pin.Name() == b.pin.Name() {
				return nil, fmt.Errorf("%s: %s and %s share line %q", packageName, prev.name, b.name, b.pin.Name())
			}
		}
		if err := b.pin.Out(gpio.Low); err != nil {
			return nil, wrap(err)
		}
	}
	d := &Dev{
		rs:   opts.RS,
		en:   opts.EN,
		data: [4]gpio.PinOut{opts.DB4, opts.DB5, opts.DB6, opts.DB7},
	}
	if err := d.init(opts.Line1, opts.Line2); err != nil {
		return nil, wrap(err)
	}
	return d, nil
}

func (d *Dev) init(line1, line2 string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	time.Sleep(powerOnDelay)
	for _, step := range resetSequence {
		if err := d.writeNibble(step.nibble); err != nil {
			return err
		}
		time.Sleep(step.delay)
	}
	if err := d.clear(); err != nil {
		return err
	}
	if _, err := d.print([]byte(line1)); err != nil {
		return err
	}
	if err := d.setCursor(cols + 1); err != nil {
		return err
	}
	_, err := d.print([]byte(line2))
	return err
}

// writeNibble performs a single 4-bit transfer. Bits 0..3 of n go to
// DB4..DB7; higher bits are ignored. The caller must have set RS to the
// desired mode and must hold d.mu.
func (d *Dev) writeNibble(n byte) error {
	if err := d.en.Out(gpio.High); err != nil {
		return err
	}
	time.Sleep(enableSetup)
	for i, p := range d.data {
		if err := p.Out(gpio.Level(n&(1<<i) != 0)); err != nil {
			return err
		}
	}
	time.Sleep(dataHold)
	// The controller latches the data lines on this falling edge.
	if err := d.en.Out(gpio.Low); err != nil {
		return err
	}
	time.Sleep(enableHold)
	return nil
}

// writeByte performs one 8-bit transfer, high nibble first, then waits
// out the generic instruction time and leaves RS high so that the next
// transfer defaults to character data. Clear Display needs extra time
// on top; that is the caller's responsibility.
func (d *Dev) writeByte(b byte) error {
	if err := d.writeNibble(b >> 4); err != nil {
		return err
	}
	if err := d.writeNibble(b); err != nil {
		return err
	}
	time.Sleep(execTime)
	return d.rs.Out(gpio.High)
}

// command sends an instruction byte: RS low for this transfer only.
func (d *Dev) command(b byte) error {
	if err := d.rs.Out(gpio.Low); err != nil {
		return err
	}
	return d.writeByte(b)
}

func (d *Dev) clear() error {
	if err := d.command(cmdClearDisplay); err != nil {
		return err
	}
	time.Sleep(clearTime)
	return nil
}

// setCursor ignores addresses outside [MinAddress, MaxAddress].
func (d *Dev) setCursor(addr int) error {
	if addr < MinAddress || addr > MaxAddress {
		return nil
	}
	native := byte(addr - 1)
	if native >= cols {
		// The second row starts at DDRAM 0x40; the rows are not
		// contiguous in controller memory.
		native += 0x40 - cols
	}
	return d.command(cmdSetDDRAMAddr | native)
}

// print transmits at most cols characters, stopping early at the first
// zero byte. RS is high on entry: writeByte, clear and the reset
// sequence all guarantee it as a postcondition.
func (d *Dev) print(p []byte) (int, error) {
	n := 0
	for ; n < len(p) && n < cols; n++ {
		if p[n] == 0 {
			break
		}
		if err := d.writeByte(p[n]); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Clear clears the display and moves the cursor to address 1.
func (d *Dev) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return wrap(d.clear())
}

// SetCursor moves the cursor to the given public address in [1, 32].
// Addresses 1..16 are the first row, 17..32 the second. Out of range
// addresses are silently ignored.
func (d *Dev) SetCursor(addr int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return wrap(d.setCursor(addr))
}

// Write sends characters to the display at the current cursor position.
// At most 16 bytes are transmitted, and transmission stops at the first
// zero byte. Returns the number of bytes actually sent.
func (d *Dev) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.print(p)
	return n, wrap(err)
}

// WriteString sends a text string to the display.
func (d *Dev) WriteString(text string) (int, error) {
	return d.Write([]byte(text))
}

// Home moves the cursor to the first cell of the first row.
func (d *Dev) Home() error {
	return d.SetCursor(MinAddress)
}

// MoveTo moves the cursor to the 1-based row and column.
func (d *Dev) MoveTo(row, col int) error {
	if row < d.MinRow() || row > rows || col < d.MinCol() || col > cols {
		return fmt.Errorf("%s: MoveTo(%d,%d) value out of range", packageName, row, col)
	}
	return d.SetCursor((row-1)*cols + col)
}

// Rows returns the number of rows the display supports.
func (d *Dev) Rows() int {
	return rows
}

// Cols returns the number of columns the display supports.
func (d *Dev) Cols() int {
	return cols
}

// MinRow returns the minimum row position.
func (d *Dev) MinRow() int {
	return 1
}

// MinCol returns the minimum column position.
func (d *Dev) MinCol() int {
	return 1
}

// Display turns the display on or off. The cursor and blink stay off,
// as configured at initialization.
func (d *Dev) Display(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	b := cmdDisplayControl &^ 0x04
	if on {
		b = cmdDisplayControl
	}
	return wrap(d.command(b))
}

// Not supported by this wiring. Returns display.ErrNotImplemented.
func (d *Dev) AutoScroll(enabled bool) error {
	return ErrNotImplemented
}

// Not supported by this wiring. Returns display.ErrNotImplemented.
func (d *Dev) Cursor(modes ...display.CursorMode) error {
	return ErrNotImplemented
}

// Not supported by this wiring. Returns display.ErrNotImplemented.
func (d *Dev) Move(dir display.CursorDirection) error {
	return ErrNotImplemented
}

func (d *Dev) String() string {
	return fmt.Sprintf("%s: 4-bit {RS: %s, EN: %s, DB4-7: %s %s %s %s}",
		packageName, d.rs, d.en, d.data[0], d.data[1], d.data[2], d.data[3])
}

// Halt clears the display, drives every line low and releases all six
// lines together.
func (d *Dev) Halt() error {
	if err := d.Clear(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	pins := []gpio.PinOut{d.rs, d.en, d.data[0], d.data[1], d.data[2], d.data[3]}
	var errs []error
	for _, p := range pins {
		if err := p.Out(gpio.Low); err != nil {
			errs = append(errs, err)
		}
	}
	for _, p := range pins {
		if err := p.Halt(); err != nil {
			errs = append(errs, err)
		}
	}
	return wrap(errors.Join(errs...))
}

var _ display.TextDisplay = &Dev{}
var _ conn.Resource = &Dev{}
