package serialport

import (
	"go.bug.st/serial"
)

// SerialFactory opens real serial ports through go.bug.st/serial.
type SerialFactory struct{}

// Open opens the port at path using opts.
func (SerialFactory) Open(path string, opts PortOptions) (SerialPorter, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	return port, nil
}
