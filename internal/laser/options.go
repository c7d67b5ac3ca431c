package laser

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/banshee-data/tunable-laser/internal/serialport"
)

// PowerMode selects how stored power relates to the active unit.
type PowerMode int

const (
	// PowerLiteral stores and returns power exactly as set or read, in
	// whichever unit is active. This is the default.
	PowerLiteral PowerMode = iota
	// PowerConverted keeps the stored power in dBm. With the unit set to mW,
	// SetPower stores ToLog(p) and GetPower returns ToLin of the stored value.
	PowerConverted
)

func (m PowerMode) String() string {
	switch m {
	case PowerLiteral:
		return "literal"
	case PowerConverted:
		return "converted"
	default:
		return fmt.Sprintf("PowerMode(%d)", int(m))
	}
}

// ParsePowerMode accepts "literal" or "converted". An empty string means
// PowerLiteral.
func ParsePowerMode(s string) (PowerMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "literal":
		return PowerLiteral, nil
	case "converted":
		return PowerConverted, nil
	default:
		return PowerLiteral, fmt.Errorf("unknown power mode %q: expected literal or converted", s)
	}
}

// Transport is the line-oriented byte stream a session talks through.
// *serialport.LinePort implements it.
type Transport interface {
	Write(p []byte) error
	ReadLine() (string, error)
	Close() error
}

type openConfig struct {
	factory     serialport.Factory
	transport   Transport
	powerMode   PowerMode
	logger      *slog.Logger
	readTimeout time.Duration
}

// Option configures Open.
type Option func(*openConfig)

// WithFactory opens the serial port through f instead of go.bug.st/serial.
func WithFactory(f serialport.Factory) Option {
	return func(c *openConfig) { c.factory = f }
}

// WithTransport uses t directly; no port is opened. The session takes
// ownership and closes t.
func WithTransport(t Transport) Option {
	return func(c *openConfig) { c.transport = t }
}

// WithPowerMode sets the power policy. Default PowerLiteral.
func WithPowerMode(m PowerMode) Option {
	return func(c *openConfig) { c.powerMode = m }
}

// WithLogger sets the session logger. Default monitoring.Logger().
func WithLogger(l *slog.Logger) Option {
	return func(c *openConfig) { c.logger = l }
}

// WithReadTimeout bounds every reply read. Zero, the default, blocks until a
// line arrives. Only ports implementing serialport.TimeoutSerialPorter
// support it. With WithTransport the transport itself must have a
// SetReadTimeout method, otherwise Open fails with KindConnectionOpen.
func WithReadTimeout(d time.Duration) Option {
	return func(c *openConfig) { c.readTimeout = d }
}
