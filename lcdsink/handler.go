// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsink

import (
	"image"
	"image/jpeg"
	"image/png"
	"log"
	"net/http"
	"net/url"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Frame geometry in pixels.
const (
	cellW  = 12
	cellH  = 18
	rowGap = 6
	margin = 8

	frameW = 2*margin + cols*cellW
	frameH = 2*margin + rows*cellH + rowGap
)

// Options for the HTTP sink.
type Options struct {
	// Format specifies the image format to send to clients. Clients can
	// override it with the "format" URL parameter ("?format=png",
	// "?format=jpeg").
	Format ImageFormat
}

// Display serves a rendering of the panel contents over HTTP. Update
// it with fresh rows after every routed command.
type Display struct {
	defaultFormat ImageFormat

	mu     sync.Mutex
	screen [rows]string
}

var _ http.Handler = (*Display)(nil)

// New creates a new HTTP sink with blank rows.
func New(opt *Options) *Display {
	return &Display{
		defaultFormat: opt.Format,
		screen:        [rows]string{clip(""), clip("")},
	}
}

func (d *Display) String() string {
	return "lcdsink.Display"
}

// Halt implements conn.Resource.
func (d *Display) Halt() error {
	return nil
}

// Update replaces the displayed rows.
func (d *Display) Update(screen [rows]string) {
	d.mu.Lock()
	d.screen = screen
	d.mu.Unlock()
}

func (d *Display) formatFromQuery(values url.Values) (ImageFormat, error) {
	if value := values.Get("format"); value != "" {
		return ImageFormatFromString(value)
	}
	return d.defaultFormat, nil
}

// ServeHTTP handles GET requests with a single frame of the panel in
// the configured or requested image format.
func (d *Display) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.Body.Close(); err != nil {
		log.Printf("Closing request body failed: %v", err)
	}
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	format, err := d.formatFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	img := d.render()
	w.Header().Set("Content-Type", format.mimeType())
	switch format {
	case JPEG:
		err = jpeg.Encode(w, img, nil)
	default:
		err = png.Encode(w, img)
	}
	if err != nil {
		// The headers are gone; all that is left is dropping the
		// connection.
		log.Printf("Encoding frame failed: %v", err)
	}
}

// render draws the current rows as green-on-green LCD cells.
func (d *Display) render() image.Image {
	d.mu.Lock()
	screen := d.screen
	d.mu.Unlock()

	dc := gg.NewContext(frameW, frameH)
	dc.SetRGB(0.07, 0.20, 0.07)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)
	for ri := 0; ri < rows; ri++ {
		row := clip(screen[ri])
		for ci := 0; ci < cols; ci++ {
			x := float64(margin + ci*cellW)
			y := float64(margin + ri*(cellH+rowGap))
			dc.SetRGB(0.56, 0.78, 0.16)
			dc.DrawRectangle(x, y, cellW-1, cellH-1)
			dc.Fill()
			if c := row[ci]; c != ' ' {
				dc.SetRGB(0.04, 0.12, 0.04)
				dc.DrawString(string(c), x+2.5, y+13)
			}
		}
	}
	return dc.Image()
}
