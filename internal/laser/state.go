package laser

import (
	"fmt"

	"github.com/banshee-data/tunable-laser/internal/units"
)

// Output is the state of the output relay. The value is the OUTP? index.
type Output int

const (
	OutputOff Output = 0
	OutputOn  Output = 1
)

func (o Output) String() string {
	switch o {
	case OutputOff:
		return "OFF"
	case OutputOn:
		return "ON"
	default:
		return fmt.Sprintf("Output(%d)", int(o))
	}
}

func outputFromIndex(i int) (Output, bool) {
	switch Output(i) {
	case OutputOff, OutputOn:
		return Output(i), true
	}
	return 0, false
}

// Default device state before the first exchange with the instrument.
const (
	DefaultWavelength = 1550.0
	DefaultPower      = 0.0
)

// State mirrors the instrument. Power is the stored value: in the active unit
// under PowerLiteral, in dBm under PowerConverted.
type State struct {
	Wavelength float64
	Power      float64
	Unit       units.Unit
	Output     Output
	Locked     bool
}

func defaultState() State {
	return State{
		Wavelength: DefaultWavelength,
		Power:      DefaultPower,
		Unit:       units.DBm,
		Output:     OutputOff,
		Locked:     true,
	}
}
