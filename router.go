// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package displaylcd

import (
	"fmt"
	"log"
)

// Endpoint identifies one of the three write-only control channels
// exposed to external callers.
type Endpoint int

const (
	// Print writes the payload to the display at the cursor position.
	Print Endpoint = iota
	// Clear wipes the display; the payload is ignored.
	Clear
	// Position moves the cursor to the address given as ASCII digits.
	Position
)

func (e Endpoint) String() string {
	switch e {
	case Print:
		return "print"
	case Clear:
		return "clear"
	case Position:
		return "position"
	}
	return fmt.Sprint(int(e))
}

// maxPayload is the largest print payload accepted. It only makes
// sense to receive 16 visible characters plus a terminator, so anything
// beyond this is taken as a misbehaving writer and dropped whole rather
// than truncated.
const maxPayload = 30

// Display is the subset of Dev the router needs.
type Display interface {
	Clear() error
	SetCursor(addr int) error
	Write(p []byte) (int, error)
}

// Router maps an endpoint and a raw payload onto one display operation.
// It keeps no state between calls; the cursor and the RS line live in
// the device. Concurrent Route calls must be serialized by the caller,
// interleaved transfers corrupt the controller's latch.
type Router struct {
	disp   Display
	logger *log.Logger
}

// NewRouter returns a Router driving disp. If logger is nil the
// standard logger is used.
func NewRouter(disp Display, logger *log.Logger) *Router {
	if logger == nil {
		logger = log.Default()
	}
	return &Router{disp: disp, logger: logger}
}

// Route dispatches one payload. The returned count is always the full
// payload length: rejected or ignored payloads are policy no-ops, not
// errors, and the caller is only told how much was accepted.
func (r *Router) Route(ep Endpoint, payload []byte) (int, error) {
	switch ep {
	case Clear:
		return len(payload), r.disp.Clear()
	case Position:
		if addr, ok := parsePosition(payload); ok {
			return len(payload), r.disp.SetCursor(addr)
		}
		return len(payload), nil
	case Print:
		if len(payload) > maxPayload {
			r.logger.Printf("%s: message too long (ignored) with %d chars", packageName, len(payload))
			return len(payload), nil
		}
		// Fixed scratch sized to the print limit plus terminator. The
		// terminator matters when the writer did not send one; Write
		// stops at it instead of running past the payload.
		var buf [cols + 1]byte
		n := copy(buf[:cols], payload)
		buf[n] = 0
		_, err := r.disp.Write(buf[:n+1])
		return len(payload), err
	}
	return 0, fmt.Errorf("%s: unknown endpoint %d", packageName, int(ep))
}

// parsePosition decodes 1 or 2 leading ASCII digits into a cursor
// address. A single non-digit byte parses as nothing; with two or more
// bytes each non-digit slot contributes 0 and the value is
// first*10+second. Zero and out-of-range values are dropped here for
// the two-digit form; the single-digit form defers to SetCursor's own
// range check. Bytes past the second are ignored.
func parsePosition(payload []byte) (int, bool) {
	digit := func(b byte) (int, bool) {
		if b < '0' || b > '9' {
			return 0, false
		}
		return int(b - '0'), true
	}
	switch {
	case len(payload) == 0:
		return 0, false
	case len(payload) == 1:
		d, ok := digit(payload[0])
		return d, ok
	default:
		d0, _ := digit(payload[0])
		d1, _ := digit(payload[1])
		pos := d0*10 + d1
		if pos == 0 || pos > MaxAddress {
			return 0, false
		}
		return pos, true
	}
}
