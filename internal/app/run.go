package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sudharshan41/apartmentrentalportal/internal/cli"
	"github.com/sudharshan41/apartmentrentalportal/internal/config"
	"github.com/sudharshan41/apartmentrentalportal/internal/telemetry"
)

// Main runs program with args and returns the process exit code. Startup
// failures are reported on stderr and exit 1.
func Main(program string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load(program)
	if err != nil {
		fmt.Fprintf(stderr, "%s: config: %v\n", program, err)
		return cli.ExitFailure
	}
	logger := cli.NewLogger(stderr, cfg.LogLevel)
	if cfg.Source != "" {
		logger.Debug("config loaded", "path", cfg.Source)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := telemetry.Setup(ctx, "rental-"+program, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	st, err := OpenStorage(ctx, cfg)
	if err != nil {
		logger.Error("open session storage", "error", err)
		return cli.ExitFailure
	}
	defer st.Close()

	a, err := New(ctx, Options{
		Program: program,
		Config:  cfg,
		Storage: st,
		Logger:  logger,
		Out:     stdout,
		In:      stdin,
	})
	if err != nil {
		logger.Error("start "+program, "error", err)
		return cli.ExitFailure
	}
	defer a.Close()

	runErr := a.Command().Execute(ctx, args)
	code, report := cli.Code(runErr)
	if report {
		fmt.Fprintf(stderr, "%s: %v\n", program, runErr)
	}
	return code
}
