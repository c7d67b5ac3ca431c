package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tunable-laser/internal/laser"
	"github.com/banshee-data/tunable-laser/internal/serialport"
)

// instrument answers queries with fixed values; set commands get no reply.
type instrument struct {
	wavelength string
	power      string
	unit       string
	output     string
}

func newInstrument() *instrument {
	return &instrument{wavelength: "1532.500", power: "3.25", unit: "0", output: "1"}
}

func (in *instrument) reply(written []byte) []byte {
	var value string
	switch strings.TrimSuffix(string(written), "\n") {
	case "WAV?":
		value = in.wavelength
	case "POW?":
		value = in.power
	case "POW:UNIT?":
		value = in.unit
	case "OUTP?":
		value = in.output
	default:
		return nil
	}
	return []byte(fmt.Sprintf(">%s\r\n", value))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newSimulatedServer(t *testing.T) *Server {
	t.Helper()

	s, err := laser.Open("sim", true, laser.WithLogger(discardLogger()))
	require.NoError(t, err)
	return NewServer(s, discardLogger())
}

func newDeviceServer(t *testing.T) (*Server, *serialport.TestableSerialPort) {
	t.Helper()

	port := serialport.NewTestableSerialPort()
	port.Reply = newInstrument().reply
	s, err := laser.Open("/dev/ttyUSB0", false,
		laser.WithFactory(serialport.NewMockFactory(port)),
		laser.WithLogger(discardLogger()),
	)
	require.NoError(t, err)
	return NewServer(s, discardLogger()), port
}

var errUnplugged = errors.New("device unplugged")

// localHostRequest creates an httptest request that appears to come from localhost.
// This bypasses tsweb.AllowDebugAccess which checks for loopback IPs.
func localHostRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.RemoteAddr = "127.0.0.1:12345"
	return req
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
