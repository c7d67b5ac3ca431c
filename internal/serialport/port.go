// Package serialport provides the serial transport used to talk to the
// laser: a minimal port abstraction, the fixed port options, a factory backed
// by go.bug.st/serial and a line-oriented wrapper.
package serialport

import (
	"io"
	"time"
)

// SerialPorter defines the minimal interface needed for a serial port.
// This abstraction enables unit testing without real serial hardware.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// TimeoutSerialPorter extends SerialPorter with timeout capabilities.
// This is an optional interface that serial ports may implement.
type TimeoutSerialPorter interface {
	SerialPorter
	// SetReadTimeout sets the read timeout for the serial port.
	SetReadTimeout(timeout time.Duration) error
}

// Factory defines an interface for creating serial ports.
type Factory interface {
	// Open opens a serial port at the specified path with the given options.
	Open(path string, opts PortOptions) (SerialPorter, error)
}

// FactoryFunc adapts a plain function to Factory.
type FactoryFunc func(path string, opts PortOptions) (SerialPorter, error)

// Open calls f(path, opts).
func (f FactoryFunc) Open(path string, opts PortOptions) (SerialPorter, error) {
	return f(path, opts)
}
