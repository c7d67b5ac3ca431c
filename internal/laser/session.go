// Package laser drives a tunable laser source over its ASCII serial command
// set (WAV, POW, POW:UNIT, OUTP, LOCK).
//
// A Session owns the transport and an in-memory mirror of the instrument.
// Every argument is validated before anything is sent. Any failure closes the
// session without re-locking the front panel ("error-close"), after which
// every operation fails with ErrClosed. A Session is not safe for concurrent
// use; callers sharing one must serialise access to it.
package laser

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/tunable-laser/internal/monitoring"
	"github.com/banshee-data/tunable-laser/internal/serialport"
	"github.com/banshee-data/tunable-laser/internal/units"
)

// Session is one connection to a tunable laser.
type Session struct {
	id        string
	port      string
	simulated bool
	powerMode PowerMode
	transport Transport
	closed    bool
	state     State
	log       *slog.Logger
}

// Open connects to the laser on port and synchronises with it: the front
// panel is unlocked and the wavelength read back. When simulated is true no
// port is opened and every operation only updates local state.
//
// A port that cannot be opened yields an error of kind KindConnectionOpen.
// Open never exits the process; that decision belongs to the caller.
func Open(port string, simulated bool, opts ...Option) (*Session, error) {
	cfg := openConfig{
		factory:   serialport.SerialFactory{},
		powerMode: PowerLiteral,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = monitoring.Logger()
	}

	s := &Session{
		id:        uuid.NewString(),
		port:      port,
		simulated: simulated,
		powerMode: cfg.powerMode,
		state:     defaultState(),
	}
	s.log = cfg.logger.With("session", s.id, "port", port, "simulated", simulated)

	if !simulated {
		t, err := openTransport(port, cfg)
		if err != nil {
			s.log.Error("cannot open connection with tunable laser", "error", err)
			return nil, newError(KindConnectionOpen, port, err)
		}
		s.transport = t
	}
	s.log.Info("connected to tunable laser", "power_mode", s.powerMode.String())

	if err := s.UnLock(); err != nil {
		return nil, err
	}
	if _, err := s.GetWavelength(); err != nil {
		return nil, err
	}
	return s, nil
}

// timeoutTransport is a Transport that can bound its reads.
// *serialport.LinePort implements it.
type timeoutTransport interface {
	Transport
	SetReadTimeout(d time.Duration) error
}

func openTransport(port string, cfg openConfig) (Transport, error) {
	if cfg.transport != nil {
		if cfg.readTimeout <= 0 {
			return cfg.transport, nil
		}
		tt, ok := cfg.transport.(timeoutTransport)
		if !ok {
			return nil, fmt.Errorf("read timeout requested but transport %T cannot set one", cfg.transport)
		}
		if err := tt.SetReadTimeout(cfg.readTimeout); err != nil {
			return nil, fmt.Errorf("set read timeout: %w", err)
		}
		return tt, nil
	}
	p, err := cfg.factory.Open(port, serialport.LaserPortOptions())
	if err != nil {
		return nil, err
	}
	lp := serialport.NewLinePort(p)
	if cfg.readTimeout > 0 {
		if err := lp.SetReadTimeout(cfg.readTimeout); err != nil {
			lp.Close()
			return nil, fmt.Errorf("set read timeout: %w", err)
		}
	}
	return lp, nil
}

func (s *Session) String() string {
	return "New Focus Tunable Laser on " + s.port
}

// ID is a random identifier attached to every log line of the session.
func (s *Session) ID() string { return s.id }

// Port returns the port identifier given to Open.
func (s *Session) Port() string { return s.port }

// Simulated reports whether the session runs without a transport.
func (s *Session) Simulated() bool { return s.simulated }

// PowerMode returns the power policy chosen at Open.
func (s *Session) PowerMode() PowerMode { return s.powerMode }

// Closed reports whether Close or an error-close has happened.
func (s *Session) Closed() bool { return s.closed }

// State returns a copy of the device mirror.
func (s *Session) State() State { return s.state }

// Close ends the session. Unless dueToError is set, the front panel is locked
// first; a failure there is returned and the transport is still released.
// Closing a closed session is a no-op.
func (s *Session) Close(dueToError bool) error {
	if s.closed {
		return nil
	}
	if s.simulated {
		s.closed = true
		s.log.Info("simulated session closed")
		return nil
	}
	if dueToError {
		s.errorClose()
		return nil
	}

	if err := s.Lock(); err != nil {
		return err
	}
	s.closed = true
	if err := s.transport.Close(); err != nil {
		return fmt.Errorf("close serial port: %w", err)
	}
	s.log.Info("session closed")
	return nil
}

// errorClose releases the transport without the re-lock command.
func (s *Session) errorClose() {
	if s.closed {
		return
	}
	s.closed = true
	if s.transport != nil {
		if err := s.transport.Close(); err != nil {
			s.log.Warn("failed to release transport", "error", err)
		}
	}
	s.log.Warn("session closed after error")
}

// fail error-closes the session and returns e.
func (s *Session) fail(e *Error) *Error {
	s.errorClose()
	return e
}

func (s *Session) ensureOpen() error {
	if s.closed {
		return newError(KindCommunication, "Command", ErrClosed)
	}
	return nil
}

// Send writes a raw command; it must be a string terminated by '\n'.
// Simulated sessions send nothing.
func (s *Session) Send(command any) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	cmd, ok := command.(string)
	if !ok {
		return s.fail(newError(KindInvalidArgumentType, "Command", nil))
	}
	return s.send(cmd)
}

// Receive reads one reply line and returns it without its leading status
// byte. byteCount must be an integer but does not limit the read. Simulated
// sessions return "".
func (s *Session) Receive(byteCount any) (string, error) {
	if err := s.ensureOpen(); err != nil {
		return "", err
	}
	if _, ok := toInt(byteCount); !ok {
		return "", s.fail(newError(KindInvalidArgumentType, "ByteNumber", nil))
	}
	return s.receive()
}

func (s *Session) send(cmd string) error {
	if s.simulated {
		return nil
	}
	s.log.Debug("command sent", "command", strings.TrimSpace(cmd))
	if err := s.transport.Write([]byte(cmd)); err != nil {
		return s.fail(newError(KindCommunication, "Command", err))
	}
	return nil
}

func (s *Session) receive() (string, error) {
	if s.simulated {
		return "", nil
	}
	line, err := s.transport.ReadLine()
	if err != nil {
		return "", s.fail(newError(KindCommunication, "Last command", err))
	}
	s.log.Debug("reply received", "reply", strings.TrimSpace(line))
	return stripStatus(line), nil
}

// query sends cmd and returns the reply with its status byte removed.
func (s *Session) query(cmd string) (string, error) {
	if err := s.send(cmd); err != nil {
		return "", err
	}
	return s.receive()
}

func (s *Session) queryFloat(cmd string) (float64, error) {
	reply, err := s.query(cmd)
	if err != nil {
		return 0, err
	}
	v, err := ParseFloatReply(reply)
	if err != nil {
		return 0, s.fail(newError(KindBadResponse, strings.TrimSpace(cmd), err))
	}
	return v, nil
}

func (s *Session) queryIndex(cmd string) (int, error) {
	reply, err := s.query(cmd)
	if err != nil {
		return 0, err
	}
	i, err := ParseIndexReply(reply)
	if err != nil {
		return 0, s.fail(newError(KindBadResponse, strings.TrimSpace(cmd), err))
	}
	return i, nil
}

// number validates a numeric argument named name.
func (s *Session) number(name string, value any) (float64, error) {
	v, ok := toFloat(value)
	if !ok {
		return 0, s.fail(newError(KindInvalidArgumentType, name, nil))
	}
	if math.IsNaN(v) {
		return 0, s.fail(newError(KindInvalidArgumentValue, name, nil))
	}
	return v, nil
}

// SetWavelength tunes the laser. value is in nm and may be any Go number or
// a numeric string; it is clamped to [MinWavelength, MaxWavelength].
func (s *Session) SetWavelength(value any) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	nm, err := s.number("Wavelength", value)
	if err != nil {
		return err
	}
	nm = ClampWavelength(nm)

	if err := s.send(FormatSetWavelength(nm)); err != nil {
		return err
	}
	s.state.Wavelength = nm
	return nil
}

// GetWavelength returns the wavelength in nm, read from the instrument
// unless simulated.
func (s *Session) GetWavelength() (float64, error) {
	if err := s.ensureOpen(); err != nil {
		return 0, err
	}
	if !s.simulated {
		v, err := s.queryFloat(CmdGetWavelength)
		if err != nil {
			return 0, err
		}
		s.state.Wavelength = v
	}
	return s.state.Wavelength, nil
}

// SetPower sets the output power in the active unit. value is clamped to
// [MinPower, MaxPower] in that unit, whichever it is.
func (s *Session) SetPower(value any) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	p, err := s.number("Power", value)
	if err != nil {
		return err
	}
	p = ClampPower(p)

	unit := s.state.Unit
	if err := s.send(FormatSetPower(p, unit)); err != nil {
		return err
	}
	if s.converting() {
		p = units.ToLog(p)
	}
	s.state.Power = p
	return nil
}

// GetPower returns the power in the active unit.
func (s *Session) GetPower() (float64, error) {
	if err := s.ensureOpen(); err != nil {
		return 0, err
	}
	if s.simulated {
		if s.converting() {
			return units.ToLin(s.state.Power), nil
		}
		return s.state.Power, nil
	}

	v, err := s.queryFloat(CmdGetPower)
	if err != nil {
		return 0, err
	}
	s.state.Power = v
	if s.converting() {
		s.state.Power = units.ToLog(v)
	}
	return v, nil
}

// converting reports whether stored power differs from the active unit.
func (s *Session) converting() bool {
	return s.powerMode == PowerConverted && s.state.Unit == units.MW
}

// SetUnit selects the power unit. value must be a units.Unit or a string
// matching "dBm" or "mW" case-insensitively.
func (s *Session) SetUnit(value any) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	u, verr := toUnit(value)
	if verr != nil {
		return s.fail(verr)
	}

	s.state.Unit = u
	return s.send(FormatSetUnit(u))
}

// GetUnit returns the active power unit.
func (s *Session) GetUnit() (units.Unit, error) {
	if err := s.ensureOpen(); err != nil {
		return 0, err
	}
	if !s.simulated {
		i, err := s.queryIndex(CmdGetUnit)
		if err != nil {
			return 0, err
		}
		u, ok := units.FromIndex(i)
		if !ok {
			return 0, s.fail(newError(KindBadResponse, "POW:UNIT?", fmt.Errorf("unit index %d out of range", i)))
		}
		s.state.Unit = u
	}
	return s.state.Unit, nil
}

// On unlocks the front panel and switches the output on.
func (s *Session) On() error {
	if err := s.UnLock(); err != nil {
		return err
	}
	if err := s.send(CmdOutputOn); err != nil {
		return err
	}
	s.state.Output = OutputOn
	return nil
}

// Off switches the output off.
func (s *Session) Off() error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if err := s.send(CmdOutputOff); err != nil {
		return err
	}
	s.state.Output = OutputOff
	return nil
}

// GetStatus returns the output relay state.
func (s *Session) GetStatus() (Output, error) {
	if err := s.ensureOpen(); err != nil {
		return 0, err
	}
	if !s.simulated {
		i, err := s.queryIndex(CmdGetOutput)
		if err != nil {
			return 0, err
		}
		o, ok := outputFromIndex(i)
		if !ok {
			return 0, s.fail(newError(KindBadResponse, "OUTP?", fmt.Errorf("output index %d out of range", i)))
		}
		s.state.Output = o
	}
	return s.state.Output, nil
}

// Lock locks the front panel.
func (s *Session) Lock() error {
	return s.setLock(true)
}

// UnLock unlocks the front panel.
func (s *Session) UnLock() error {
	return s.setLock(false)
}

func (s *Session) setLock(locked bool) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if err := s.send(FormatLock(locked)); err != nil {
		return err
	}
	s.state.Locked = locked
	return nil
}

// ConvertToLog converts a linear power in mW to dBm. A value that is not a
// number error-closes the session.
func (s *Session) ConvertToLog(linear any) (float64, error) {
	v, ok := toFloat(linear)
	if !ok {
		return 0, s.fail(newError(KindInvalidArgumentType, "LinearPower", nil))
	}
	return units.ToLog(v), nil
}

// ConvertToLin converts a logarithmic power in dBm to mW. A value that is
// not a number error-closes the session.
func (s *Session) ConvertToLin(logarithmic any) (float64, error) {
	v, ok := toFloat(logarithmic)
	if !ok {
		return 0, s.fail(newError(KindInvalidArgumentType, "LogPower", nil))
	}
	return units.ToLin(v), nil
}

// IsClosedError reports whether err came from using a closed session.
func IsClosedError(err error) bool {
	return errors.Is(err, ErrClosed)
}
