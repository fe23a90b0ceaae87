// Package sbus implements the SBUS serial protocol.
package sbus

// SBUS carries 16 proportional channels, two digital channels and link
// status flags in a fixed 25-byte frame: one header byte, 22 payload
// bytes with the channels packed as contiguous 11-bit values, one flag
// byte and one footer byte.
//
// The byte stream has no framing beyond the header and footer values,
// so this package provides a one-byte-at-a-time assembler which
// resynchronizes on the header byte after corruption. Frame integrity
// is limited to the footer and flag checks the protocol offers; SBUS
// has no CRC. The inverted UART signalling (100000 baud 8E2) is the
// transport's concern, not this package's: anything able to deliver
// bytes in wire order can feed the assembler.
//
// Producer: an SBUS receiver or flight controller
// Consumer: anything consuming channel values (telemetry, SITL, bridges)
