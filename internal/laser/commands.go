package laser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/banshee-data/tunable-laser/internal/units"
)

// Query commands. Every command is terminated by a single '\n'.
const (
	CmdGetWavelength = "WAV?\n"
	CmdGetPower      = "POW?\n"
	CmdGetUnit       = "POW:UNIT?\n"
	CmdGetOutput     = "OUTP?\n"
	CmdOutputOn      = "OUTP 1\n"
	CmdOutputOff     = "OUTP 0\n"
	CmdLock          = "LOCK 1\n"
	CmdUnlock        = "LOCK 0\n"
)

// allowedCommands lists the command headers the instrument accepts. Raw
// commands from outside the session (e.g. the debug endpoint) are checked
// against it.
var allowedCommands = []string{
	"WAV",       // Set wavelength (nm)
	"WAV?",      // Query wavelength
	"POW",       // Set power in the current unit
	"POW?",      // Query power
	"POW:UNIT",  // Set power unit (DBM or MW)
	"POW:UNIT?", // Query power unit index
	"OUTP",      // Output relay on/off
	"OUTP?",     // Query output relay
	"LOCK",      // Front panel lock/unlock
}

// IsAllowedCommand reports whether command is a single line whose header
// (the text before the first space) is one the instrument understands.
func IsAllowedCommand(command string) bool {
	command = strings.TrimSpace(command)
	if strings.ContainsFunc(command, unicode.IsControl) {
		return false
	}
	header, _, _ := strings.Cut(command, " ")
	header = strings.ToUpper(header)
	for _, c := range allowedCommands {
		if header == c {
			return true
		}
	}
	return false
}

// FormatSetWavelength frames a WAV command. The value is written with three
// decimals, zero-padded to eight characters.
func FormatSetWavelength(nm float64) string {
	return "WAV " + zeroPad(strconv.FormatFloat(nm, 'f', 3, 64), 8) + "\n"
}

// FormatSetPower frames a POW command: two decimals zero-padded to five
// characters, followed by the upper-case unit.
func FormatSetPower(p float64, u units.Unit) string {
	return "POW " + zeroPad(strconv.FormatFloat(p, 'f', 2, 64), 5) + u.Wire() + "\n"
}

// FormatSetUnit frames a POW:UNIT command.
func FormatSetUnit(u units.Unit) string {
	return "POW:UNIT " + u.Wire() + "\n"
}

// FormatOutput frames OUTP 1 or OUTP 0.
func FormatOutput(on bool) string {
	if on {
		return CmdOutputOn
	}
	return CmdOutputOff
}

// FormatLock frames LOCK 1 or LOCK 0.
func FormatLock(locked bool) string {
	if locked {
		return CmdLock
	}
	return CmdUnlock
}

// zeroPad left-pads s with zeros to width, keeping a leading sign in front.
func zeroPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	sign := ""
	if s[0] == '-' || s[0] == '+' {
		sign, s = s[:1], s[1:]
	}
	return sign + strings.Repeat("0", width-len(sign)-len(s)) + s
}

// stripStatus drops the leading status byte the instrument puts in front of
// every reply.
func stripStatus(raw string) string {
	if raw == "" {
		return ""
	}
	return raw[1:]
}

// payload drops the trailing delimiter from a reply that already had its
// status byte removed. Surrounding whitespace left by \r\n framing is
// ignored.
func payload(reply string) (string, error) {
	if reply == "" {
		return "", fmt.Errorf("empty reply")
	}
	return strings.TrimSpace(reply[:len(reply)-1]), nil
}

// ParseFloatReply parses a WAV? or POW? reply.
func ParseFloatReply(reply string) (float64, error) {
	p, err := payload(reply)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(p, 64)
}

// ParseIndexReply parses a POW:UNIT? or OUTP? reply.
func ParseIndexReply(reply string) (int, error) {
	p, err := payload(reply)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(p)
}
