// Package units provides the optical power units understood by the laser and
// the conversions between them.
package units

import (
	"fmt"
	"math"
	"strings"
)

// Unit is a power reporting unit. The numeric value is the index the
// instrument uses on the wire for POW:UNIT? replies.
type Unit int

const (
	// DBm is logarithmic power referenced to 1 mW.
	DBm Unit = 0
	// MW is linear power in milliwatts.
	MW Unit = 1
)

// ValidUnits contains all valid unit values, ordered by wire index.
var ValidUnits = []Unit{DBm, MW}

// String returns the display form, "dBm" or "mW".
func (u Unit) String() string {
	switch u {
	case DBm:
		return "dBm"
	case MW:
		return "mW"
	default:
		return fmt.Sprintf("Unit(%d)", int(u))
	}
}

// Wire returns the upper-case token used in POW and POW:UNIT commands.
func (u Unit) Wire() string {
	return strings.ToUpper(u.String())
}

// IsValid reports whether u is one of ValidUnits.
func (u Unit) IsValid() bool {
	return u == DBm || u == MW
}

// Parse matches s case-insensitively against the valid unit names.
func Parse(s string) (Unit, bool) {
	for _, u := range ValidUnits {
		if strings.EqualFold(s, u.String()) {
			return u, true
		}
	}
	return 0, false
}

// FromIndex maps a wire index to a Unit.
func FromIndex(i int) (Unit, bool) {
	u := Unit(i)
	if !u.IsValid() {
		return 0, false
	}
	return u, true
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "dBm, mW"
}

// ToLog converts a linear power in mW to dBm.
func ToLog(mw float64) float64 {
	return 10 * math.Log10(mw)
}

// ToLin converts a logarithmic power in dBm to mW.
func ToLin(dbm float64) float64 {
	return math.Pow(10, dbm/10)
}
