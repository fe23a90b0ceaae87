package sbus

import "fmt"

// InvalidFooterError indicates a completed frame whose footer byte is
// not one of the recognized end-of-frame or telemetry slot values.
type InvalidFooterError struct {
	Footer byte
}

// Error implements error.
func (e *InvalidFooterError) Error() string {
	return fmt.Sprintf("invalid footer 0x%02x", e.Footer)
}

// InvalidFlagsError indicates a completed frame whose flag byte has
// bits set outside the defined flag positions.
type InvalidFlagsError struct {
	Flags byte
}

// Error implements error.
func (e *InvalidFlagsError) Error() string {
	return fmt.Sprintf("invalid flags 0x%02x", e.Flags)
}
