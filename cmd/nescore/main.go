// Package main implements the nescore executable.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"nescore/internal/app"
	"nescore/internal/debug"
	"nescore/internal/version"
)

// headlessFrames bounds a headless run that was given no -frames
const headlessFrames = 600

func main() {
	var (
		romFile     = flag.String("rom", "", "Path to NES ROM file")
		configFile  = flag.String("config", "", "Path to configuration file")
		frontend    = flag.String("frontend", "", "Frontend: ebiten, terminal or headless")
		frames      = flag.Uint64("frames", 0, "Stop after this many frames (0 runs until quit)")
		trace       = flag.String("trace", "", "Write a nestest-style CPU trace to this file ('-' for stderr)")
		traceLimit  = flag.Uint64("trace-limit", 0, "Stop tracing after this many instructions")
		statsview   = flag.Bool("statsview", false, "Serve runtime stats at "+statsAddress())
		memvizFile  = flag.String("memviz", "", "Write a Graphviz dump of the machine state on exit")
		screenshot  = flag.String("screenshot", "", "Headless only: write the last frame as PPM")
		debugLog    = flag.Bool("debug", false, "Log CPU and controller activity")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		version.PrintBuildInfo()
		os.Exit(0)
	}

	if *romFile == "" {
		if flag.NArg() != 1 {
			printUsage()
			os.Exit(2)
		}
		*romFile = flag.Arg(0)
	}

	configPath := *configFile
	if configPath == "" {
		configPath = app.GetDefaultConfigPath()
	}
	config := app.NewConfig()
	if err := config.LoadFromFile(configPath); err != nil {
		var cfgErr *app.ConfigError
		if errors.As(err, &cfgErr) {
			log.Fatalf("Failed to load config: %v", err)
		}
		log.Printf("[APP] Could not load config from %s, using defaults: %v", configPath, err)
	}

	// flags given explicitly win over the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "frontend":
			config.Frontend.Backend = *frontend
		case "frames":
			config.Emulation.MaxFrames = *frames
		case "trace":
			config.Debug.TraceCPU = true
			if *trace != "-" {
				config.Debug.TracePath = *trace
			}
		case "trace-limit":
			config.Debug.TraceLimit = *traceLimit
		case "statsview":
			config.Debug.Statsview = *statsview
		case "memviz":
			config.Debug.MemvizPath = *memvizFile
		case "screenshot":
			config.Frontend.Screenshot = *screenshot
		case "debug":
			config.Debug.LogCPU = *debugLog
			config.Input.LogInput = *debugLog
		}
	})
	if config.Frontend.Backend == "headless" && config.Emulation.MaxFrames == 0 {
		config.Emulation.MaxFrames = headlessFrames
	}

	application, err := app.NewApplication(config)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	setupGracefulShutdown(application)

	if err := application.LoadROM(*romFile); err != nil {
		application.Cleanup()
		log.Fatalf("Failed to load ROM: %v", err)
	}

	runErr := application.Run()
	if err := application.Cleanup(); err != nil {
		log.Printf("Application cleanup error: %v", err)
	}
	if runErr != nil {
		log.Fatalf("Emulation stopped: %v", runErr)
	}

	fmt.Printf("%d frames, %d CPU cycles\n",
		application.GetEmulator().GetFrameCount(), application.GetBus().Cycles())
}

// setupGracefulShutdown flushes traces and restores the terminal on SIGINT
// or SIGTERM
func setupGracefulShutdown(application *app.Application) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintln(os.Stderr, "\ninterrupt received, shutting down")
		application.Cleanup()
		os.Exit(130)
	}()
}

func statsAddress() string {
	if debug.StatsAvailable() {
		return debug.StatsAddress
	}
	return "localhost (needs -tags statsview)"
}

func printUsage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "nescore - NES CPU and memory-mapping core")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "USAGE:")
	fmt.Fprintln(out, "  nescore [options] -rom <file>")
	fmt.Fprintln(out, "  nescore [options] <file>")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "OPTIONS:")
	flag.PrintDefaults()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "EXAMPLES:")
	fmt.Fprintln(out, "  nescore game.nes                                # pattern/nametable viewer window")
	fmt.Fprintln(out, "  nescore -frontend terminal game.nes             # keyboard in a raw terminal")
	fmt.Fprintln(out, "  nescore -frontend headless -frames 1 -trace cpu.log nestest.nes")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "CONTROLS:")
	fmt.Fprintln(out, "  Player 1: arrows/WASD, J/Z = A, K/X = B, Enter = Start, Space = Select")
	fmt.Fprintln(out, "  Player 2: 1-8 (ebiten only)")
	fmt.Fprintln(out, "  Quit:     Escape (q or ctrl-C in the terminal)")
}
