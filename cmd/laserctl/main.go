// Command laserctl opens a tunable laser session, applies any requested
// settings, prints the instrument status and optionally serves the HTTP
// control API until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/banshee-data/tunable-laser/internal/api"
	"github.com/banshee-data/tunable-laser/internal/config"
	"github.com/banshee-data/tunable-laser/internal/laser"
	"github.com/banshee-data/tunable-laser/internal/monitoring"
	"github.com/banshee-data/tunable-laser/internal/version"
)

type cliFlags struct {
	configPath string
	port       string
	simulate   bool
	powerMode  string
	logLevel   string
	logFormat  string
	listen     string

	unit       string
	wavelength string
	power      string
	output     string

	version bool
}

func registerFlags(fs *flag.FlagSet) *cliFlags {
	f := &cliFlags{}
	fs.StringVar(&f.configPath, "config", "", "Path to TOML config file (optional)")
	fs.StringVar(&f.port, "port", config.DefaultPort, "Serial port the laser is attached to")
	fs.BoolVar(&f.simulate, "simulate", false, "Run without hardware")
	fs.StringVar(&f.powerMode, "power-mode", laser.PowerLiteral.String(), "Power handling: literal or converted")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	fs.StringVar(&f.logFormat, "log-format", monitoring.FormatConsole, "Log format: console or json")
	fs.StringVar(&f.listen, "listen", "", "Serve the HTTP API on this address (e.g. :8080)")

	fs.StringVar(&f.unit, "unit", "", "Set the power unit (dBm or mW)")
	fs.StringVar(&f.wavelength, "wavelength", "", "Set the wavelength in nm")
	fs.StringVar(&f.power, "power", "", "Set the power in the current unit")
	fs.StringVar(&f.output, "output", "", "Switch the output on or off")

	fs.BoolVar(&f.version, "version", false, "Print version and exit")
	return f
}

// loadConfig layers the flags the user actually set over the file and
// environment configuration.
func (f *cliFlags) loadConfig(fs *flag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "port":
			cfg.Port = f.port
		case "simulate":
			cfg.Simulated = f.simulate
		case "power-mode":
			cfg.PowerMode = f.powerMode
		case "log-level":
			cfg.LogLevel = f.logLevel
		case "log-format":
			cfg.LogFormat = f.logFormat
		case "listen":
			cfg.Listen = f.listen
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// outputSwitch parses -output. ok is false when the flag was not given.
func (f *cliFlags) outputSwitch() (on, ok bool, err error) {
	switch strings.ToLower(strings.TrimSpace(f.output)) {
	case "":
		return false, false, nil
	case "on", "1":
		return true, true, nil
	case "off", "0":
		return false, true, nil
	default:
		return false, false, fmt.Errorf("invalid -output %q: want on or off", f.output)
	}
}

// applySettings sends the requested settings in the order unit, wavelength,
// power, output. The power value is interpreted in the unit just set.
func applySettings(s *laser.Session, f *cliFlags) error {
	if f.unit != "" {
		if err := s.SetUnit(f.unit); err != nil {
			return fmt.Errorf("set unit: %w", err)
		}
	}
	if f.wavelength != "" {
		if err := s.SetWavelength(f.wavelength); err != nil {
			return fmt.Errorf("set wavelength: %w", err)
		}
	}
	if f.power != "" {
		if err := s.SetPower(f.power); err != nil {
			return fmt.Errorf("set power: %w", err)
		}
	}
	on, ok, err := f.outputSwitch()
	if err != nil {
		return err
	}
	if ok {
		if on {
			err = s.On()
		} else {
			err = s.Off()
		}
		if err != nil {
			return fmt.Errorf("set output: %w", err)
		}
	}
	return nil
}

// printStatus queries the instrument and writes a short report to w.
func printStatus(w io.Writer, s *laser.Session) error {
	nm, err := s.GetWavelength()
	if err != nil {
		return err
	}
	p, err := s.GetPower()
	if err != nil {
		return err
	}
	out, err := s.GetStatus()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, s)
	fmt.Fprintf(w, "  wavelength: %.3f nm\n", nm)
	fmt.Fprintf(w, "  power:      %.2f %s\n", p, s.State().Unit)
	fmt.Fprintf(w, "  output:     %s\n", out)
	return nil
}

// serve runs the HTTP API until ctx is cancelled.
func serve(ctx context.Context, srv *api.Server, addr string, logger *slog.Logger) error {
	mux := srv.ServeMux()
	srv.AttachAdminRoutes(mux)

	server := &http.Server{
		Addr:    addr,
		Handler: api.LoggingMiddleware(mux),
	}

	errc := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	logger.Info("serving laser API", "addr", addr)

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", "error", err)
		if err := server.Close(); err != nil {
			logger.Warn("HTTP server force close error", "error", err)
		}
	}
	return nil
}

// closeSession closes the session under the API lock, so a handler still
// waiting on a reply after shutdown finishes before the front panel is
// re-locked.
func closeSession(srv *api.Server) error {
	return srv.Do(func(l *laser.Session) error { return l.Close(false) })
}

// run drives an open session and always closes it. A session that an
// operation already error-closed stays closed without the re-lock.
func run(ctx context.Context, s *laser.Session, f *cliFlags, listen string, stdout io.Writer, logger *slog.Logger) (err error) {
	srv := api.NewServer(s, logger)
	defer func() {
		if cerr := closeSession(srv); cerr != nil && err == nil {
			err = cerr
		}
	}()

	err = srv.Do(func(l *laser.Session) error {
		if err := applySettings(l, f); err != nil {
			return err
		}
		return printStatus(stdout, l)
	})
	if err != nil || listen == "" {
		return err
	}
	return serve(ctx, srv, listen, logger)
}

func main() {
	flags := registerFlags(flag.CommandLine)
	flag.Parse()

	if flags.version {
		fmt.Println(version.String("laserctl"))
		return
	}

	cfg, err := flags.loadConfig(flag.CommandLine)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if _, _, err := flags.outputSwitch(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := monitoring.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	monitoring.SetLogger(logger)

	opts, err := cfg.SessionOptions()
	if err != nil {
		logger.Error("invalid session options", "error", err)
		os.Exit(2)
	}
	opts = append(opts, laser.WithLogger(logger))

	session, err := laser.Open(cfg.Port, cfg.Simulated, opts...)
	if err != nil {
		logger.Error("failed to open laser", "port", cfg.Port, "error", err)
		os.Exit(1)
	}
	logger.Info("opened laser", "session", session.ID(), "port", cfg.Port, "simulated", cfg.Simulated)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, session, flags, cfg.Listen, os.Stdout, logger)
	stop()
	if err != nil {
		logger.Error("laserctl failed", "error", err)
		os.Exit(1)
	}
}
