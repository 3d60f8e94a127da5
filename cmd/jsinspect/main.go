// Package main runs a demo debug host: a simulated script engine exposed to
// DevTools frontends through the debug service.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/jsinspect"
	"github.com/dshills/jsinspect/engine"
	"github.com/dshills/jsinspect/engine/enginetest"
	"github.com/dshills/jsinspect/internal/config"
	"github.com/dshills/jsinspect/internal/service"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "jsinspect.toml", "path to configuration file")
	port := flag.Uint("port", 0, "listen port (overrides config)")
	breakOnStart := flag.Bool("break", false, "break on first statement (overrides config)")
	debugLogs := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		return 1
	}
	if *port != 0 {
		cfg.Service.Port = uint16(*port)
	}
	if *breakOnStart {
		cfg.Debugger.BreakOnStart = true
	}

	log, err := newLogger(*debugLogs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	eng := newDemoEngine()

	handler, err := jsinspect.New(eng, jsinspect.WithLogger(log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create handler: %v\n", err)
		return 1
	}
	defer handler.Close()

	svc := service.New(
		service.WithLogger(log),
		service.WithName(cfg.Service.Name, cfg.Service.Description),
		service.WithFavIcon(cfg.Service.FavIcon),
		service.WithVersion(version),
	)

	id := svc.RegisterHandler("", handler, cfg.Debugger.BreakOnStart)
	if err := svc.Listen(cfg.Service.Port); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to listen: %v\n", err)
		return 1
	}
	defer func() { _ = svc.Close() }()

	log.Info("debug target registered",
		zap.String("id", id),
		zap.String("url", fmt.Sprintf("ws://localhost:%d/%s", svc.Port(), id)))

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	// The demo's engine thread: wait for a frontend, load the demo
	// scripts, then pump pending break requests at a steady cadence the
	// way a real engine reaches safe points between statements.
	handler.WaitForDebugger()

	eng.AddScript("demo/main.js", "var total = 0;\nfor (var i = 0; i < 10; i++) {\n  total += i;\n}\n")
	eng.AddScript("demo/util.js", "function add(a, b) {\n  return a + b;\n}\n")

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-signals:
			log.Info("shutting down")
			return 0
		case <-ticker.C:
			eng.PumpAsyncBreak()
		}
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newDemoEngine builds the simulated engine, wiring a global evaluator
// that answers every expression with undefined.
func newDemoEngine() *enginetest.Engine {
	eng := enginetest.New()

	eng.EvaluateGlobalFunc = func(script, sourceName string) (any, error) {
		return map[string]any{"value": engine.Undefined}, nil
	}

	return eng
}
