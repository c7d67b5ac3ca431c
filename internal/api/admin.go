package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode"

	"tailscale.com/tsweb"

	"github.com/banshee-data/tunable-laser/internal/laser"
)

// AttachAdminRoutes registers the laser pages under /debug/. tsweb only
// serves them to loopback and tailnet callers.
func (s *Server) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.HandleFunc("laser", "tunable laser session state", func(w http.ResponseWriter, r *http.Request) {
		st := s.snapshot()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "port:       %s\n", st.Port)
		fmt.Fprintf(w, "simulated:  %t\n", st.Simulated)
		fmt.Fprintf(w, "closed:     %t\n", st.Closed)
		fmt.Fprintf(w, "power mode: %s\n", st.PowerMode)
		fmt.Fprintf(w, "wavelength: %.3f nm\n", st.WavelengthNM)
		if st.Power != nil {
			fmt.Fprintf(w, "power:      %.2f %s\n", *st.Power, st.Unit)
		} else {
			fmt.Fprintf(w, "power:      -inf %s\n", st.Unit)
		}
		fmt.Fprintf(w, "output:     %s\n", st.Output)
		fmt.Fprintf(w, "locked:     %t\n", st.Locked)
	})

	// Raw commands, restricted to single allow-listed lines and run through
	// the session so clamping and the state mirror apply.
	debug.HandleSilentFunc("send-command-api", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		command := strings.TrimSpace(r.FormValue("command"))
		if command == "" {
			http.Error(w, "Missing command", http.StatusBadRequest)
			return
		}
		if strings.ContainsFunc(command, unicode.IsControl) {
			http.Error(w, "Command must be a single line", http.StatusBadRequest)
			return
		}
		if !laser.IsAllowedCommand(command) {
			http.Error(w, fmt.Sprintf("Command %q not allowed", command), http.StatusBadRequest)
			return
		}

		var reply string
		err := s.Do(func(l *laser.Session) (err error) {
			reply, err = l.Exec(command)
			return err
		})
		if err != nil {
			http.Error(w, "Failed to write command: "+err.Error(), statusFor(err))
			return
		}
		io.WriteString(w, fmt.Sprintf("Wrote command %q to serial port\n", command))
		if reply != "" {
			io.WriteString(w, "Reply: "+reply+"\n")
		}
	})
}
