// Package app wires the emulator core to a frontend: configuration,
// ROM loading, battery saves, the frame loop and the debug tools.
package app

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"nescore/internal/bus"
	"nescore/internal/cartridge"
	"nescore/internal/debug"
	"nescore/internal/graphics"
)

const windowTitle = "nescore"

// Application represents the main NES emulator application
type Application struct {
	bus *bus.Bus

	graphicsBackend graphics.Backend
	window          graphics.Window

	config   *Config
	emulator *Emulator
	saves    *SaveManager

	tracer    *debug.Tracer
	traceFile io.Closer

	romPath   string
	cartridge *cartridge.Cartridge

	initialized bool
}

// ApplicationError represents application-specific errors
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// NewApplication creates an application from an already loaded config
func NewApplication(config *Config) (*Application, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	app := &Application{config: config}
	if err := app.initializeComponents(); err != nil {
		app.Cleanup()
		return nil, &ApplicationError{
			Component: "initialization",
			Operation: "component setup",
			Err:       err,
		}
	}
	return app, nil
}

func (app *Application) initializeComponents() error {
	app.bus = bus.New()
	app.emulator = NewEmulator(app.bus, app.config)
	app.saves = NewSaveManager(app.config.Emulation.SaveDir)

	if err := app.ApplyDebugSettings(); err != nil {
		return err
	}

	if err := app.initializeGraphicsBackend(); err != nil {
		return fmt.Errorf("failed to initialize graphics backend: %w", err)
	}

	app.initialized = true
	return nil
}

// initializeGraphicsBackend creates the configured frontend. An ebiten
// backend that cannot start falls back to headless.
func (app *Application) initializeGraphicsBackend() error {
	backendType := graphics.BackendType(app.config.Frontend.Backend)

	var err error
	app.graphicsBackend, err = graphics.CreateBackend(backendType)
	if err != nil {
		return err
	}

	graphicsConfig := graphics.Config{
		WindowTitle:  windowTitle,
		WindowWidth:  app.config.Window.Width,
		WindowHeight: app.config.Window.Height,
		Fullscreen:   app.config.Window.Fullscreen,
		VSync:        app.config.Frontend.VSync,
		Filter:       app.config.Frontend.Filter,
		Headless:     backendType == graphics.BackendHeadless,
		Debug:        app.config.Debug.LogCPU,
	}

	if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
		if backendType != graphics.BackendEbitengine {
			return err
		}
		log.Printf("[APP] Ebitengine backend failed (%v), falling back to headless mode", err)
		app.graphicsBackend = graphics.NewHeadlessBackend()
		graphicsConfig.Headless = true
		if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
			return fmt.Errorf("failed to initialize fallback headless backend: %w", err)
		}
	}

	app.window, err = app.graphicsBackend.CreateWindow(
		graphicsConfig.WindowTitle,
		graphicsConfig.WindowWidth,
		graphicsConfig.WindowHeight,
	)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}

	if hw, ok := app.window.(*graphics.HeadlessWindow); ok && app.config.Frontend.Screenshot != "" {
		hw.SetOutputPath(app.config.Frontend.Screenshot)
	}
	return nil
}

// ApplyDebugSettings turns on the logging, tracing and stats options
// from the debug config
func (app *Application) ApplyDebugSettings() error {
	cfg := app.config.Debug

	app.bus.EnableCPUDebug(cfg.LogCPU)
	app.bus.EnableInputDebug(app.config.Input.LogInput)

	if cfg.TraceCPU && app.tracer == nil {
		var out io.Writer = os.Stderr
		if cfg.TracePath != "" {
			f, err := os.Create(cfg.TracePath)
			if err != nil {
				return fmt.Errorf("failed to create trace file: %w", err)
			}
			app.traceFile = f
			out = f
		}
		app.tracer = debug.NewTracer(out)
		app.tracer.SetLimit(cfg.TraceLimit)
		app.tracer.Attach(app.bus)
	}

	if cfg.Statsview {
		debug.LaunchStats(os.Stdout)
	}
	return nil
}

// LoadROM loads a ROM file, restores its battery RAM and resets the
// machine
func (app *Application) LoadROM(romPath string) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	cart, err := cartridge.LoadFromFile(romPath)
	if err != nil {
		return &ApplicationError{
			Component: "cartridge",
			Operation: "load ROM",
			Err:       err,
		}
	}

	if app.config.Emulation.BatterySaves {
		if err := app.saves.Load(cart, romPath); err != nil {
			return &ApplicationError{
				Component: "saves",
				Operation: "load battery RAM",
				Err:       err,
			}
		}
	}

	app.cartridge = cart
	app.romPath = romPath

	app.bus.LoadCartridge(cart)
	app.emulator.Reset()
	app.emulator.Start()

	app.window.SetTitle(fmt.Sprintf("%s - %s", windowTitle, filepath.Base(romPath)))
	return nil
}

// Run drives the frontend until the user quits, the frame limit is reached
// or the bus halts. Battery RAM and the memviz dump are written on the way
// out either way.
func (app *Application) Run() error {
	if !app.initialized {
		return errors.New("application not initialized")
	}
	if app.cartridge == nil {
		return &ApplicationError{Component: "emulator", Operation: "run", Err: bus.ErrNoCartridge}
	}

	runErr := app.window.Run(func() error {
		return app.emulator.Update(app.window)
	})

	if err := app.persist(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func (app *Application) persist() error {
	var lastErr error

	if app.config.Emulation.BatterySaves {
		if err := app.saves.Save(app.cartridge, app.romPath); err != nil {
			log.Printf("[APP] Battery save failed: %v", err)
			lastErr = err
		}
	}

	if path := app.config.Debug.MemvizPath; path != "" {
		if err := app.dumpState(path); err != nil {
			log.Printf("[APP] State dump failed: %v", err)
			lastErr = err
		}
	}
	return lastErr
}

func (app *Application) dumpState(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	debug.DumpState(f, app.bus)
	log.Printf("[APP] Wrote state graph to %s", path)
	return nil
}

// Reset resets the console as if the reset button was pressed
func (app *Application) Reset() {
	app.bus.Reset()
	app.emulator.Reset()
	app.emulator.Start()
}

// GetBus returns the system bus
func (app *Application) GetBus() *bus.Bus {
	return app.bus
}

// GetEmulator returns the frame loop
func (app *Application) GetEmulator() *Emulator {
	return app.emulator
}

// GetConfig returns the active configuration
func (app *Application) GetConfig() *Config {
	return app.config
}

// GetROMPath returns the loaded ROM's path
func (app *Application) GetROMPath() string {
	return app.romPath
}

// Cleanup releases all resources and shuts down the application
func (app *Application) Cleanup() error {
	var lastErr error

	if app.tracer != nil {
		if err := app.tracer.Flush(); err != nil {
			lastErr = err
			log.Printf("[APP] Trace flush error: %v", err)
		}
	}
	if app.traceFile != nil {
		if err := app.traceFile.Close(); err != nil {
			lastErr = err
		}
		app.traceFile = nil
	}

	if app.emulator != nil {
		app.emulator.Stop()
	}

	if app.window != nil {
		if err := app.window.Cleanup(); err != nil {
			lastErr = err
			log.Printf("[APP] Window cleanup error: %v", err)
		}
		app.window = nil
	}

	if app.graphicsBackend != nil {
		if err := app.graphicsBackend.Cleanup(); err != nil {
			lastErr = err
			log.Printf("[APP] Graphics backend cleanup error: %v", err)
		}
		app.graphicsBackend = nil
	}

	app.initialized = false
	return lastErr
}
