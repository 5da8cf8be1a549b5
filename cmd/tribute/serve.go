package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tribute/internal/audio"
	"tribute/internal/config"
	"tribute/internal/sequence"
	"tribute/internal/telemetry"
	"tribute/internal/wshost"
)

func runServe(args []string, settings config.Settings, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", settings.Addr, "listen address")
	scriptPath := fs.String("script", settings.Script, "path to YAML script (default: built-in tribute)")
	audioPath := fs.String("audio", settings.Audio, "audio file played on the host")
	player := fs.String("player", settings.Player, "external audio player binary")
	if err := fs.Parse(args); err != nil {
		return ExitError
	}

	cfg, err := loadSequence(*scriptPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitError
	}

	logger := log.New(stderr, "", log.LstdFlags)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint: settings.OTelEndpoint,
		Host:     "serve",
		Script:   scriptLabel(*scriptPath),
	})
	if err != nil {
		logger.Printf("telemetry: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Printf("telemetry: shutdown: %v", err)
		}
	}()

	opts := []wshost.Option{
		wshost.WithLogger(logger),
		wshost.WithSequenceOptions(sequence.WithTracer(telemetry.Tracer())),
	}
	if *audioPath != "" {
		opts = append(opts, wshost.WithAudio(audio.NewProcess(*audioPath, *player, logger)))
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", wshost.NewServer(cfg, opts...))
	server := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("tribute: serving on %s", *addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return ExitError
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("tribute: shutdown: %v", err)
		}
	}
	return ExitSuccess
}
