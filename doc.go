// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package displaylcd drives a 16x2 HD44780 class character LCD wired
// directly to six GPIO lines (RS, EN, DB4..DB7) using the 4-bit bus
// protocol.
//
// Displays with native 8-bit wiring or I²C/SPI backpacks are out of
// scope; for those, use the hd44780 package from the periph devices
// collection.
//
// The package also contains a command router that maps the three
// write-only endpoints exposed by cmd/displaylcdd (print, clear,
// position) onto the display operations.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package displaylcd
