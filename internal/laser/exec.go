package laser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/banshee-data/tunable-laser/internal/units"
)

// Exec runs one allow-listed command line through the session. Set commands
// go through the matching setter so clamping and the state mirror apply;
// queries go through the matching getter and return the value as text.
// Anything else error-closes the session like an invalid argument.
func (s *Session) Exec(command string) (string, error) {
	if err := s.ensureOpen(); err != nil {
		return "", err
	}
	command = strings.TrimSpace(command)
	if !IsAllowedCommand(command) {
		return "", s.fail(newError(KindInvalidArgumentValue, "Command",
			fmt.Errorf("%q is not an allowed command", command)))
	}

	header, arg, _ := strings.Cut(command, " ")
	header = strings.ToUpper(header)
	arg = strings.TrimSpace(arg)

	if strings.HasSuffix(header, "?") {
		if arg != "" {
			return "", s.fail(newError(KindInvalidArgumentValue, "Command",
				fmt.Errorf("%s takes no argument", header)))
		}
		return s.execQuery(header)
	}
	if arg == "" {
		return "", s.fail(newError(KindInvalidArgumentValue, "Command",
			fmt.Errorf("%s needs an argument", header)))
	}

	switch header {
	case "WAV":
		return "", s.SetWavelength(arg)
	case "POW":
		return "", s.execSetPower(arg)
	case "POW:UNIT":
		return "", s.SetUnit(arg)
	case "OUTP":
		switch arg {
		case "1":
			return "", s.On()
		case "0":
			return "", s.Off()
		}
	case "LOCK":
		switch arg {
		case "1":
			return "", s.Lock()
		case "0":
			return "", s.UnLock()
		}
	}
	return "", s.fail(newError(KindInvalidArgumentValue, "Command",
		fmt.Errorf("bad argument %q for %s", arg, header)))
}

func (s *Session) execQuery(header string) (string, error) {
	switch header {
	case "WAV?":
		v, err := s.GetWavelength()
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(v, 'f', 3, 64), nil
	case "POW?":
		v, err := s.GetPower()
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(v, 'f', 2, 64), nil
	case "POW:UNIT?":
		u, err := s.GetUnit()
		if err != nil {
			return "", err
		}
		return u.String(), nil
	default:
		o, err := s.GetStatus()
		if err != nil {
			return "", err
		}
		return o.String(), nil
	}
}

// execSetPower accepts "5", "5.00" or the framed "05.00DBM". A unit suffix
// must name the active unit; switching unit is POW:UNIT's job.
func (s *Session) execSetPower(arg string) error {
	num := strings.TrimRightFunc(arg, unicode.IsLetter)
	if suffix := arg[len(num):]; suffix != "" {
		u, ok := units.Parse(suffix)
		if !ok || u != s.state.Unit {
			return s.fail(newError(KindInvalidArgumentValue, "Power",
				fmt.Errorf("unit %q does not match active unit %s", suffix, s.state.Unit)))
		}
	}
	return s.SetPower(num)
}
