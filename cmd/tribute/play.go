package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"tribute/internal/audio"
	"tribute/internal/clock"
	"tribute/internal/collector"
	"tribute/internal/config"
	"tribute/internal/display"
	"tribute/internal/overlay"
	"tribute/internal/random"
	"tribute/internal/render"
	"tribute/internal/sequence"
	"tribute/internal/telemetry"
)

func runPlay(args []string, settings config.Settings, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	fs.SetOutput(stderr)
	scriptPath := fs.String("script", settings.Script, "path to YAML script (default: built-in tribute)")
	audioPath := fs.String("audio", settings.Audio, "audio file to play with the sequence")
	player := fs.String("player", settings.Player, "external audio player binary")
	seed := fs.Uint64("seed", settings.Seed, "random seed (0 = random)")
	output := fs.String("output", settings.Output, "summary format: text, json")
	fps := fs.Float64("fps", settings.FPS, "maximum repaints per second")
	if err := fs.Parse(args); err != nil {
		return ExitError
	}

	if *output != "text" && *output != "json" {
		fmt.Fprintf(stderr, "error: --output must be 'text' or 'json', got %q\n", *output)
		return ExitError
	}

	cfg, err := loadSequence(*scriptPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitError
	}

	stderr = &lockedWriter{w: stderr}
	logger := log.New(stderr, "", log.LstdFlags)
	ctx := context.Background()
	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint: settings.OTelEndpoint,
		Host:     "play",
		Script:   scriptLabel(*scriptPath),
		Seed:     *seed,
	})
	if err != nil {
		logger.Printf("telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			logger.Printf("telemetry: shutdown: %v", err)
		}
	}()

	rng := random.NewRandom()
	if *seed != 0 {
		rng = random.New(*seed)
	}

	var handle audio.Handle
	if *audioPath != "" {
		handle = audio.NewProcess(*audioPath, *player, logger)
	}

	loop := clock.NewLoop(logger)
	defer loop.Close()

	term := render.NewTerminal(*fps)
	term.SetOutput(stderr)
	coll := collector.NewCollector()

	done := make(chan struct{})
	var finish sync.Once
	stop := func() { finish.Do(func() { close(done) }) }

	ov := overlay.New(loop, cfg,
		overlay.WithSink(display.Multi(term, coll)),
		overlay.WithAudio(handle),
		overlay.WithLogger(logger),
		overlay.WithSequenceOptions(
			sequence.WithRand(rng),
			sequence.WithTracer(telemetry.Tracer()),
		),
		overlay.OnComplete(func(*sequence.Sequence) { stop() }),
	)
	if err := ov.Open(stop); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitError
	}
	term.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			stop()
		case <-done:
		}
	}()

	go readControls(stdin, ov, term)

	<-done
	ov.Close()
	term.Stop()
	coll.Close()

	summary := coll.Compute()
	if *output == "json" {
		collector.FormatJSON(stdout, summary)
	} else {
		collector.FormatText(stdout, summary)
	}
	return ExitSuccess
}

// lockedWriter serialises writes from the renderer and the logger.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// readControls maps stdin lines to overlay controls until stdin closes.
func readControls(r io.Reader, ov *overlay.Overlay, term *render.Terminal) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "m", "mute":
			term.SetMuted(ov.ToggleMute())
		case "i", "interact":
			ov.Interact()
		case "q", "quit", "close":
			_ = ov.RequestClose()
		}
	}
}
