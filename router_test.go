// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package displaylcd

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fakeDisplay records the operations routed to it.
type fakeDisplay struct {
	clears  int
	cursors []int
	writes  []string
}

func (f *fakeDisplay) Clear() error {
	f.clears++
	return nil
}

func (f *fakeDisplay) SetCursor(addr int) error {
	f.cursors = append(f.cursors, addr)
	return nil
}

func (f *fakeDisplay) Write(p []byte) (int, error) {
	// Same transmission policy as Dev: at most 16 bytes, stop at the
	// first zero.
	n := 0
	for ; n < len(p) && n < cols; n++ {
		if p[n] == 0 {
			break
		}
	}
	f.writes = append(f.writes, string(p[:n]))
	return n, nil
}

func TestRouteClearIgnoresPayload(t *testing.T) {
	f := &fakeDisplay{}
	r := NewRouter(f, nil)
	n, err := r.Route(Clear, []byte("junk"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("Route() = %d, want 4", n)
	}
	if f.clears != 1 {
		t.Errorf("clears = %d, want 1", f.clears)
	}
}

func TestRoutePosition(t *testing.T) {
	for _, tc := range []struct {
		payload string
		want    []int
	}{
		{"", nil},
		{"5", []int{5}},
		{"17", []int{17}},
		{"32", []int{32}},
		{"99", nil},
		{"33", nil},
		{"00", nil},
		{"a3", []int{3}},
		{"xx", nil},
		{"x", nil},
		// The single-digit zero reaches the display and dies in its own
		// range check.
		{"0", []int{0}},
		// Bytes past the second are ignored.
		{"17abc", []int{17}},
	} {
		t.Run(tc.payload, func(t *testing.T) {
			f := &fakeDisplay{}
			r := NewRouter(f, nil)
			n, err := r.Route(Position, []byte(tc.payload))
			if err != nil {
				t.Fatal(err)
			}
			if n != len(tc.payload) {
				t.Errorf("Route() = %d, want %d", n, len(tc.payload))
			}
			if diff := cmp.Diff(f.cursors, tc.want); diff != "" {
				t.Errorf("cursor calls difference (-got +want):\n%s", diff)
			}
		})
	}
}

func TestRoutePrint(t *testing.T) {
	for _, tc := range []struct {
		name    string
		payload string
		want    []string
	}{
		{"short", "hi", []string{"hi"}},
		{"sixteen", "0123456789abcdef", []string{"0123456789abcdef"}},
		{"thirty accepted", strings.Repeat("z", 30), []string{strings.Repeat("z", 16)}},
		{"embedded zero", "ok\x00no", []string{"ok"}},
		{"empty", "", []string{""}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeDisplay{}
			r := NewRouter(f, nil)
			n, err := r.Route(Print, []byte(tc.payload))
			if err != nil {
				t.Fatal(err)
			}
			if n != len(tc.payload) {
				t.Errorf("Route() = %d, want %d", n, len(tc.payload))
			}
			if diff := cmp.Diff(f.writes, tc.want); diff != "" {
				t.Errorf("writes difference (-got +want):\n%s", diff)
			}
		})
	}
}

func TestRoutePrintTooLong(t *testing.T) {
	f := &fakeDisplay{}
	var logged bytes.Buffer
	r := NewRouter(f, log.New(&logged, "", 0))
	payload := strings.Repeat("z", 31)
	n, err := r.Route(Print, []byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	// The caller is told the whole payload was accepted even though
	// nothing was written.
	if n != 31 {
		t.Errorf("Route() = %d, want 31", n)
	}
	if len(f.writes) != 0 {
		t.Errorf("over-length payload reached the display: %q", f.writes)
	}
	if !strings.Contains(logged.String(), "too long") {
		t.Errorf("expected a too long warning, got %q", logged.String())
	}
}

func TestRouteUnknownEndpoint(t *testing.T) {
	r := NewRouter(&fakeDisplay{}, nil)
	if _, err := r.Route(Endpoint(7), nil); err == nil {
		t.Error("Route() accepted an unknown endpoint")
	}
}

func TestEndpointString(t *testing.T) {
	for ep, want := range map[Endpoint]string{Print: "print", Clear: "clear", Position: "position", Endpoint(9): "9"} {
		if got := ep.String(); got != want {
			t.Errorf("Endpoint(%d).String() = %q, want %q", int(ep), got, want)
		}
	}
}
