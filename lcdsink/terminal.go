// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdsink renders the contents of an emulated 16x2 character
// LCD. Two sinks are provided: an ANSI terminal rendering and an HTTP
// handler serving PNG or JPEG frames.
//
// Useful while you are waiting for your 16x2 panel to come by mail, or
// when developing display output on a machine with no GPIO at all.
package lcdsink

import (
	"bytes"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

const (
	rows = 2
	cols = 16
)

// TerminalOpts represents the options for the terminal sink.
type TerminalOpts struct {
	// W receives the rendering. Defaults to a colorable stdout.
	W io.Writer
	// Palette maps colors to ANSI codes. Defaults to ansi256.Default.
	Palette *ansi256.Palette
}

// Terminal draws the panel to a terminal using ANSI color codes.
type Terminal struct {
	w       io.Writer
	palette ansi256.Palette

	buf bytes.Buffer
}

var bezelColor = color.NRGBA{R: 0x1c, G: 0x4f, B: 0x1c, A: 255}

// NewTerminal returns a Terminal rendering to opts.W.
func NewTerminal(opts *TerminalOpts) *Terminal {
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	return &Terminal{w: w, palette: *p}
}

func (t *Terminal) String() string {
	return "lcdsink.Terminal"
}

// Halt implements conn.Resource.
//
// It resets the terminal attributes so the shell is not left colored.
func (t *Terminal) Halt() error {
	_, err := t.w.Write([]byte("\n\033[0m"))
	return err
}

// Render draws the two rows framed by a bezel. Rows longer than 16
// characters are cut, shorter ones padded.
func (t *Terminal) Render(screen [rows]string) error {
	// Minimize allocations per frame; the buffer is reused.
	t.buf.Reset()
	edge := t.palette.Block(bezelColor)
	t.edgeRow(edge)
	for _, row := range screen {
		_, _ = t.buf.WriteString(edge)
		_, _ = t.buf.WriteString("\033[0m")
		_, _ = t.buf.WriteString(clip(row))
		_, _ = t.buf.WriteString(edge)
		_, _ = t.buf.WriteString("\033[0m\n")
	}
	t.edgeRow(edge)
	_, err := t.buf.WriteTo(t.w)
	return err
}

func (t *Terminal) edgeRow(edge string) {
	for i := 0; i < cols+2; i++ {
		_, _ = t.buf.WriteString(edge)
	}
	_, _ = t.buf.WriteString("\033[0m\n")
}

func clip(row string) string {
	if len(row) >= cols {
		return row[:cols]
	}
	return row + string(bytes.Repeat([]byte{' '}, cols-len(row)))
}
