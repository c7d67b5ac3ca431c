package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachAdminRoutes_LaserPage(t *testing.T) {
	srv := newSimulatedServer(t)
	mux := http.NewServeMux()
	srv.AttachAdminRoutes(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, localHostRequest(http.MethodGet, "/debug/laser", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "port:       sim")
	assert.Contains(t, body, "wavelength: 1550.000 nm")
	assert.Contains(t, body, "output:     OFF")
}

func TestAttachAdminRoutes_SendCommandAPI(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		formData       url.Values
		expectedStatus int
		checkBody      func(t *testing.T, body string)
		wantWritten    string
		wantWavelength float64
	}{
		{
			name:           "query returns the reply",
			method:         http.MethodPost,
			formData:       url.Values{"command": {"WAV?"}},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, body string) {
				assert.Contains(t, body, `Wrote command "WAV?"`)
				assert.Contains(t, body, "Reply: 1532.500")
			},
			wantWritten: "WAV?\n",
		},
		{
			name:           "set command has no reply",
			method:         http.MethodPost,
			formData:       url.Values{"command": {"OUTP 0"}},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, body string) {
				assert.Contains(t, body, `Wrote command "OUTP 0"`)
				assert.NotContains(t, body, "Reply:")
			},
			wantWritten: "OUTP 0\n",
		},
		{
			name:           "set command is clamped and mirrored",
			method:         http.MethodPost,
			formData:       url.Values{"command": {"WAV 9999.000"}},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, body string) {
				assert.Contains(t, body, `Wrote command "WAV 9999.000"`)
			},
			wantWritten:    "WAV 1580.000\n",
			wantWavelength: 1580,
		},
		{
			name:           "second command smuggled after a newline",
			method:         http.MethodPost,
			formData:       url.Values{"command": {"OUTP 1\n*RST"}},
			expectedStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, body string) {
				assert.Contains(t, body, "single line")
			},
		},
		{
			name:           "carriage return inside command",
			method:         http.MethodPost,
			formData:       url.Values{"command": {"WAV?\rLOCK 0"}},
			expectedStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, body string) {
				assert.Contains(t, body, "single line")
			},
		},
		{
			name:           "POST with whitespace-only command",
			method:         http.MethodPost,
			formData:       url.Values{"command": {"   "}},
			expectedStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, body string) {
				assert.Contains(t, body, "Missing command")
			},
		},
		{
			name:           "unknown command",
			method:         http.MethodPost,
			formData:       url.Values{"command": {"*RST"}},
			expectedStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, body string) {
				assert.Contains(t, body, "not allowed")
			},
		},
		{
			name:           "GET method not allowed",
			method:         http.MethodGet,
			expectedStatus: http.StatusMethodNotAllowed,
			checkBody: func(t *testing.T, body string) {
				assert.Contains(t, body, "Method not allowed")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, port := newDeviceServer(t)
			mux := http.NewServeMux()
			srv.AttachAdminRoutes(mux)
			before := port.WriteBuffer.Len()

			req := localHostRequest(tt.method, "/debug/send-command-api", strings.NewReader(tt.formData.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			tt.checkBody(t, w.Body.String())
			assert.Equal(t, tt.wantWritten, string(port.GetWrittenData()[before:]))
			if tt.wantWavelength != 0 {
				assert.Equal(t, tt.wantWavelength, srv.snapshot().WavelengthNM)
			}
			assert.False(t, srv.snapshot().Closed)
		})
	}
}

func TestAttachAdminRoutes_SendCommandAPI_ClosedSession(t *testing.T) {
	srv := newSimulatedServer(t)
	require.NoError(t, srv.session.Close(false))

	mux := http.NewServeMux()
	srv.AttachAdminRoutes(mux)

	form := url.Values{"command": {"WAV?"}}
	req := localHostRequest(http.MethodPost, "/debug/send-command-api", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to write command")
}
