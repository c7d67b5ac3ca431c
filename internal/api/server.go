// Package api exposes a laser session over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/banshee-data/tunable-laser/internal/laser"
	"github.com/banshee-data/tunable-laser/internal/monitoring"
	"github.com/banshee-data/tunable-laser/internal/units"
)

// Server serialises every request onto one laser session. A failed
// operation error-closes the session, after which requests get 503.
type Server struct {
	mu      sync.Mutex
	session *laser.Session
	log     *slog.Logger
}

// NewServer wraps session. A nil logger means monitoring.Logger().
func NewServer(session *laser.Session, logger *slog.Logger) *Server {
	if logger == nil {
		logger = monitoring.Logger()
	}
	return &Server{
		session: session,
		log:     logger,
	}
}

// Do runs fn with exclusive access to the session.
func (s *Server) Do(fn func(*laser.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.session)
}

// StateResponse is the JSON form of the session and device state. Power is
// in Unit and null when not finite.
type StateResponse struct {
	Port         string   `json:"port"`
	Simulated    bool     `json:"simulated"`
	Closed       bool     `json:"closed"`
	PowerMode    string   `json:"power_mode"`
	WavelengthNM float64  `json:"wavelength_nm"`
	Power        *float64 `json:"power"`
	Unit         string   `json:"unit"`
	Output       string   `json:"output"`
	Locked       bool     `json:"locked"`
}

// ValueResponse carries a single reading.
type ValueResponse struct {
	Value any    `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// SetRequest is the body of every PUT/POST that sets a value. Value is passed
// to the session untouched so that its own validation applies.
type SetRequest struct {
	Value any `json:"value"`
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/wavelength", s.handleWavelength)
	mux.HandleFunc("/api/power", s.handlePower)
	mux.HandleFunc("/api/unit", s.handleUnit)
	mux.HandleFunc("/api/output", s.handleOutput)
	mux.HandleFunc("/api/output/on", s.handleOutputSwitch(true))
	mux.HandleFunc("/api/output/off", s.handleOutputSwitch(false))
	return mux
}

func (s *Server) snapshot() StateResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session.State()
	power := st.Power
	if s.session.PowerMode() == laser.PowerConverted && st.Unit == units.MW {
		// Stored in dBm; report in the active unit.
		power = units.ToLin(power)
	}
	return StateResponse{
		Port:         s.session.Port(),
		Simulated:    s.session.Simulated(),
		Closed:       s.session.Closed(),
		PowerMode:    s.session.PowerMode().String(),
		WavelengthNM: st.Wavelength,
		Power:        finite(power),
		Unit:         st.Unit.String(),
		Output:       st.Output.String(),
		Locked:       st.Locked,
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshot())
}

// decodeSet reads a SetRequest body.
func decodeSet(w http.ResponseWriter, r *http.Request) (SetRequest, bool) {
	var req SetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return req, false
	}
	return req, true
}

func (s *Server) handleWavelength(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var nm float64
		err := s.Do(func(l *laser.Session) (err error) {
			nm, err = l.GetWavelength()
			return err
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ValueResponse{Value: nm, Unit: "nm"})
	case http.MethodPut, http.MethodPost:
		req, ok := decodeSet(w, r)
		if !ok {
			return
		}
		if err := s.Do(func(l *laser.Session) error { return l.SetWavelength(req.Value) }); err != nil {
			s.log.Warn("set wavelength failed", "error", err)
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.snapshot())
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handlePower(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var p float64
		var unit string
		err := s.Do(func(l *laser.Session) (err error) {
			p, err = l.GetPower()
			unit = l.State().Unit.String()
			return err
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ValueResponse{Value: finite(p), Unit: unit})
	case http.MethodPut, http.MethodPost:
		req, ok := decodeSet(w, r)
		if !ok {
			return
		}
		if err := s.Do(func(l *laser.Session) error { return l.SetPower(req.Value) }); err != nil {
			s.log.Warn("set power failed", "error", err)
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.snapshot())
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleUnit(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var unit string
		err := s.Do(func(l *laser.Session) error {
			u, err := l.GetUnit()
			unit = u.String()
			return err
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ValueResponse{Value: unit})
	case http.MethodPut, http.MethodPost:
		req, ok := decodeSet(w, r)
		if !ok {
			return
		}
		if err := s.Do(func(l *laser.Session) error { return l.SetUnit(req.Value) }); err != nil {
			s.log.Warn("set unit failed", "error", err)
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.snapshot())
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleOutput(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	var status string
	err := s.Do(func(l *laser.Session) error {
		o, err := l.GetStatus()
		status = o.String()
		return err
	})
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ValueResponse{Value: status})
}

func (s *Server) handleOutputSwitch(on bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		err := s.Do(func(l *laser.Session) error {
			if on {
				return l.On()
			}
			return l.Off()
		})
		if err != nil {
			s.log.Warn("output switch failed", "on", on, "error", err)
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.snapshot())
	}
}
