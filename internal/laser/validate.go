package laser

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/banshee-data/tunable-laser/internal/units"
)

// Wavelength and power limits. Power limits apply in whichever unit is
// active when SetPower is called.
const (
	MinWavelength = 1510.0
	MaxWavelength = 1580.0
	MinPower      = 0.0
	MaxPower      = 10.0
)

// toFloat converts v to a float64 the way a numeric field is read from user
// input: any Go number, a bool, or a string holding a decimal literal.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		v = s
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// toInt accepts only integer kinds; strings and floats are rejected.
func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		i, err := cast.ToIntE(x)
		return i, err == nil
	default:
		return 0, false
	}
}

// toUnit accepts a units.Unit or a string naming one.
func toUnit(v any) (units.Unit, *Error) {
	switch x := v.(type) {
	case units.Unit:
		if !x.IsValid() {
			return 0, newError(KindInvalidArgumentValue, "Unit", nil)
		}
		return x, nil
	case string:
		u, ok := units.Parse(x)
		if !ok {
			return 0, newError(KindInvalidArgumentValue, "Unit",
				fmt.Errorf("%q is not one of %s", x, units.GetValidUnitsString()))
		}
		return u, nil
	default:
		return 0, newError(KindInvalidArgumentType, "Unit", nil)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampWavelength constrains nm to [MinWavelength, MaxWavelength].
func ClampWavelength(nm float64) float64 {
	return clamp(nm, MinWavelength, MaxWavelength)
}

// ClampPower constrains p to [MinPower, MaxPower].
func ClampPower(p float64) float64 {
	return clamp(p, MinPower, MaxPower)
}
