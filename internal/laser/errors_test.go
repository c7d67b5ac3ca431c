package laser

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Messages(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{newError(KindCommunication, "Command", nil), "communication with equipment failed during 'Command'"},
		{newError(KindBadResponse, "WAV?", errors.New("bad")), "response to 'WAV?' can't be interpreted: bad"},
		{newError(KindInvalidArgumentType, "Power", nil), "wrong argument type for 'Power'"},
		{newError(KindInvalidArgumentValue, "Unit", nil), "wrong argument value for 'Unit'"},
		{newError(KindConnectionOpen, "COM1", nil), "cannot open connection to tunable laser on 'COM1'"},
		{newError(Kind(99), "x", nil), "laser error 99 for 'x'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("set power: %w", newError(KindInvalidArgumentType, "Power", nil))

	assert.ErrorIs(t, err, ErrInvalidArgumentType)
	assert.ErrorIs(t, err, &Error{Kind: KindInvalidArgumentType, Cause: "Power"})
	assert.NotErrorIs(t, err, &Error{Kind: KindInvalidArgumentType, Cause: "Wavelength"})
	assert.NotErrorIs(t, err, ErrInvalidArgumentValue)
	assert.Equal(t, KindInvalidArgumentType, KindOf(err))
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "communication", KindCommunication.String())
	assert.Equal(t, "invalid argument value", KindInvalidArgumentValue.String())
	assert.Equal(t, "Kind(0)", Kind(0).String())
}

func TestParsePowerMode(t *testing.T) {
	m, err := ParsePowerMode("")
	assert.NoError(t, err)
	assert.Equal(t, PowerLiteral, m)

	m, err = ParsePowerMode("Converted")
	assert.NoError(t, err)
	assert.Equal(t, PowerConverted, m)
	assert.Equal(t, "converted", m.String())

	_, err = ParsePowerMode("magic")
	assert.Error(t, err)
}
