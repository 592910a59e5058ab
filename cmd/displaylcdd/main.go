// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// displaylcdd exposes a GPIO-wired 16x2 HD44780 display through three
// write-only named pipes:
//
//	<dir>/displaylcd      print the payload at the cursor position
//	<dir>/displaylcd_cls  clear the display
//	<dir>/displaylcd_pos  move the cursor (1..32, ASCII digits)
//
// Example:
//
//	displaylcdd -line1 "booting..." &
//	echo -n "17" > /run/displaylcd/displaylcd_pos
//	echo -n "ready" > /run/displaylcd/displaylcd
//
// With -sim an emulated panel is driven instead of GPIO, and -http
// serves a rendering of it.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"periph.io/x/devices/v3/displaylcd"
	"periph.io/x/devices/v3/displaylcd/lcdsim"
	"periph.io/x/devices/v3/displaylcd/lcdsink"
)

var (
	rsName  = flag.String("rs", "GPIO10", "name of the RS line")
	enName  = flag.String("en", "GPIO9", "name of the EN line")
	db4Name = flag.String("db4", "GPIO6", "name of the DB4 line")
	db5Name = flag.String("db5", "GPIO13", "name of the DB5 line")
	db6Name = flag.String("db6", "GPIO19", "name of the DB6 line")
	db7Name = flag.String("db7", "GPIO26", "name of the DB7 line")
	line1   = flag.String("line1", " Raspberry Pi 3 ", "first row at startup (max 16 chars)")
	line2   = flag.String("line2", "  LCD  Display  ", "second row at startup (max 16 chars)")
	pipeDir = flag.String("dir", "/run/displaylcd", "directory holding the endpoint pipes")
	simMode = flag.Bool("sim", false, "drive an emulated panel instead of GPIO")
	hAddr   = flag.String("http", "", "with -sim, serve a rendering of the panel at this address")
)

var pipeNames = [...]struct {
	name     string
	endpoint displaylcd.Endpoint
}{
	{"displaylcd", displaylcd.Print},
	{"displaylcd_cls", displaylcd.Clear},
	{"displaylcd_pos", displaylcd.Position},
}

// createPipes makes the three FIFOs. On failure the already created
// ones are removed in reverse order.
func createPipes(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var created []string
	for _, p := range pipeNames {
		path := filepath.Join(dir, p.name)
		_ = os.Remove(path)
		if err := unix.Mkfifo(path, 0o666); err != nil {
			for i := len(created) - 1; i >= 0; i-- {
				_ = os.Remove(created[i])
			}
			return nil, fmt.Errorf("creating %s: %w", path, err)
		}
		created = append(created, path)
	}
	return created, nil
}

func removePipes(paths []string) {
	for i := len(paths) - 1; i >= 0; i-- {
		_ = os.Remove(paths[i])
	}
}

func lookupPin(name string) gpio.PinOut {
	p := gpioreg.ByName(name)
	if p == nil {
		log.Fatalf("no such pin %q", name)
	}
	return p
}

// serve delivers every write on the pipe to the router. Writers come
// and go; the pipe is reopened after each of them hangs up.
func serve(path string, ep displaylcd.Endpoint, mu *sync.Mutex, router *displaylcd.Router, refresh func()) {
	buf := make([]byte, 4096)
	for {
		f, err := os.OpenFile(path, os.O_RDONLY, 0)
		if err != nil {
			log.Printf("%s: %v", ep, err)
			return
		}
		for {
			n, rerr := f.Read(buf)
			if n > 0 {
				// Single-writer discipline: interleaved transfers from
				// two pipes would corrupt the controller's latch.
				mu.Lock()
				if _, err := router.Route(ep, buf[:n]); err != nil {
					log.Print(err)
				}
				if refresh != nil {
					refresh()
				}
				mu.Unlock()
			}
			if rerr != nil {
				break
			}
		}
		_ = f.Close()
	}
}

func mainImpl() error {
	flag.Parse()

	opts := displaylcd.Opts{Line1: *line1, Line2: *line2}
	var sim *lcdsim.Sim
	if *simMode {
		sim = lcdsim.New()
		opts.RS, opts.EN = sim.PinRS, sim.PinEN
		opts.DB4, opts.DB5 = sim.PinDB4, sim.PinDB5
		opts.DB6, opts.DB7 = sim.PinDB6, sim.PinDB7
	} else {
		if _, err := host.Init(); err != nil {
			return err
		}
		opts.RS = lookupPin(*rsName)
		opts.EN = lookupPin(*enName)
		opts.DB4 = lookupPin(*db4Name)
		opts.DB5 = lookupPin(*db5Name)
		opts.DB6 = lookupPin(*db6Name)
		opts.DB7 = lookupPin(*db7Name)
	}

	dev, err := displaylcd.New(&opts)
	if err != nil {
		return err
	}
	router := displaylcd.NewRouter(dev, nil)

	var refresh func()
	if sim != nil && *hAddr != "" {
		sink := lcdsink.New(&lcdsink.Options{})
		sink.Update(sim.Snapshot())
		refresh = func() { sink.Update(sim.Snapshot()) }
		go func() {
			log.Fatal(http.ListenAndServe(*hAddr, sink))
		}()
		log.Printf("panel rendering at http://%s/", *hAddr)
	}

	pipes, err := createPipes(*pipeDir)
	if err != nil {
		_ = dev.Halt()
		return err
	}
	defer removePipes(pipes)

	var mu sync.Mutex
	for i, p := range pipeNames {
		go serve(pipes[i], p.endpoint, &mu, router, refresh)
	}
	log.Printf("serving %s endpoints in %s", dev, *pipeDir)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, unix.SIGTERM)
	<-sig
	return dev.Halt()
}

func main() {
	if err := mainImpl(); err != nil {
		log.Fatal(err)
	}
}
