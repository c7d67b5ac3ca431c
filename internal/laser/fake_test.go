package laser

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tunable-laser/internal/serialport"
)

// fakeLaser scripts the instrument side of the serial link. Replies carry a
// leading status byte and \r\n framing.
type fakeLaser struct {
	wavelength float64
	power      float64
	unit       int
	output     int
	locked     bool
	commands   []string

	// garbage, when set, is returned for the next query instead of a value.
	garbage string
}

func (f *fakeLaser) reply(written []byte) []byte {
	cmd := strings.TrimSuffix(string(written), "\n")
	f.commands = append(f.commands, cmd)

	value := ""
	switch {
	case cmd == "WAV?":
		value = strconv.FormatFloat(f.wavelength, 'f', 3, 64)
	case cmd == "POW?":
		value = strconv.FormatFloat(f.power, 'f', 2, 64)
	case cmd == "POW:UNIT?":
		value = strconv.Itoa(f.unit)
	case cmd == "OUTP?":
		value = strconv.Itoa(f.output)
	case strings.HasPrefix(cmd, "WAV "):
		f.wavelength, _ = strconv.ParseFloat(cmd[4:], 64)
		return nil
	case strings.HasPrefix(cmd, "POW:UNIT "):
		if cmd[9:] == "MW" {
			f.unit = 1
		} else {
			f.unit = 0
		}
		return nil
	case strings.HasPrefix(cmd, "POW "):
		f.power, _ = strconv.ParseFloat(strings.TrimRightFunc(cmd[4:], unicode.IsLetter), 64)
		return nil
	case cmd == "OUTP 1":
		f.output = 1
		return nil
	case cmd == "OUTP 0":
		f.output = 0
		return nil
	case cmd == "LOCK 1":
		f.locked = true
		return nil
	case cmd == "LOCK 0":
		f.locked = false
		return nil
	default:
		return nil
	}

	if f.garbage != "" {
		value, f.garbage = f.garbage, ""
	}
	return []byte(fmt.Sprintf(">%s\r\n", value))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// openFake opens a non-simulated session against a fresh fake instrument.
func openFake(t *testing.T, opts ...Option) (*Session, *serialport.TestableSerialPort, *fakeLaser) {
	t.Helper()

	port := serialport.NewTestableSerialPort()
	fake := &fakeLaser{wavelength: 1532.5, locked: true}
	port.Reply = fake.reply

	opts = append([]Option{WithFactory(serialport.NewMockFactory(port)), WithLogger(discardLogger())}, opts...)
	s, err := Open("/dev/ttyUSB0", false, opts...)
	require.NoError(t, err)
	return s, port, fake
}

func openSimulated(t *testing.T, opts ...Option) *Session {
	t.Helper()

	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	s, err := Open("sim", true, opts...)
	require.NoError(t, err)
	return s
}
