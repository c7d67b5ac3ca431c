package serialport

import (
	"bufio"
	"errors"
	"fmt"
	"time"
)

var ErrWriteFailed = fmt.Errorf("failed to write to serial port")

// ErrNoTimeout is returned by SetReadTimeout when the port has no timeout
// support.
var ErrNoTimeout = errors.New("serial port does not support read timeouts")

// ErrReadTimeout is returned by ReadLine when the read timeout expires
// before a full line arrives.
var ErrReadTimeout = errors.New("serial port read timed out")

// timeoutReader turns the empty, error-free read that go.bug.st/serial
// returns on timeout into ErrReadTimeout.
type timeoutReader struct {
	port    SerialPorter
	timeout bool
}

func (r *timeoutReader) Read(p []byte) (int, error) {
	n, err := r.port.Read(p)
	if n == 0 && err == nil && r.timeout && len(p) > 0 {
		return 0, ErrReadTimeout
	}
	return n, err
}

// LinePort wraps a SerialPorter with newline framed reads.
type LinePort struct {
	port   SerialPorter
	src    *timeoutReader
	reader *bufio.Reader
}

// NewLinePort returns a LinePort reading and writing through port.
func NewLinePort(port SerialPorter) *LinePort {
	src := &timeoutReader{port: port}
	return &LinePort{
		port:   port,
		src:    src,
		reader: bufio.NewReader(src),
	}
}

// Write writes all of p to the port.
func (l *LinePort) Write(p []byte) error {
	n, err := l.port.Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return ErrWriteFailed
	}
	return nil
}

// ReadLine blocks until a full line is read and returns it including the
// trailing '\n'. A partial line followed by an error is discarded.
func (l *LinePort) ReadLine() (string, error) {
	line, err := l.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return line, nil
}

// SetReadTimeout forwards to the port when it supports timeouts.
func (l *LinePort) SetReadTimeout(d time.Duration) error {
	tp, ok := l.port.(TimeoutSerialPorter)
	if !ok {
		return ErrNoTimeout
	}
	if err := tp.SetReadTimeout(d); err != nil {
		return err
	}
	l.src.timeout = d > 0
	return nil
}

// Close closes the underlying port.
func (l *LinePort) Close() error {
	return l.port.Close()
}
