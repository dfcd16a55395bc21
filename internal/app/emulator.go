package app

import (
	"fmt"
	"log"
	"time"

	"nescore/internal/bus"
	"nescore/internal/graphics"
	"nescore/internal/input"
)

// Emulator runs the bus one frame per frontend tick and turns the PPU's
// memory into something a window can show
type Emulator struct {
	bus    *bus.Bus
	config *Config

	frame     [graphics.FramePixels]uint32
	isRunning bool

	frameCount    uint64
	emulationTime time.Duration
	lastResetTime time.Time

	halted error
}

// NewEmulator creates an emulator driving b
func NewEmulator(b *bus.Bus, config *Config) *Emulator {
	e := &Emulator{
		bus:    b,
		config: config,
	}
	e.Reset()
	return e
}

// Reset clears counters and the last halt. The bus is reset separately.
func (e *Emulator) Reset() {
	e.frameCount = 0
	e.emulationTime = 0
	e.lastResetTime = time.Now()
	e.halted = nil
	for i := range e.frame {
		e.frame[i] = 0
	}
}

// Start starts the emulator
func (e *Emulator) Start() {
	e.isRunning = true
}

// Stop stops the emulator
func (e *Emulator) Stop() {
	e.isRunning = false
}

// IsRunning reports whether frames are being emulated
func (e *Emulator) IsRunning() bool {
	return e.isRunning
}

// HandleEvents applies frontend input. A quit event returns graphics.ErrQuit.
func (e *Emulator) HandleEvents(events []graphics.InputEvent) error {
	for _, event := range events {
		switch event.Type {
		case graphics.InputEventTypeQuit:
			return graphics.ErrQuit
		case graphics.InputEventTypeButton:
			if pad := e.controller(event.Port); pad != nil {
				pad.SetButton(event.Button, event.Pressed)
			}
		}
	}
	return nil
}

func (e *Emulator) controller(port int) *input.Controller {
	switch port {
	case 1:
		return e.bus.Input.Controller1
	case 2:
		if e.config.Input.Controller2 {
			return e.bus.Input.Controller2
		}
	}
	return nil
}

// StepFrame runs the bus until the PPU finishes a frame and redraws the
// debug view. A bus fault stops the emulator and is returned.
func (e *Emulator) StepFrame() error {
	if e.halted != nil {
		return e.halted
	}
	if e.bus.Cartridge == nil {
		return fmt.Errorf("frame execution error: %w", bus.ErrNoCartridge)
	}

	start := time.Now()
	if err := e.bus.RunFrame(); err != nil {
		e.halted = fmt.Errorf("emulation halted at frame %d: %w", e.frameCount, err)
		e.Stop()
		log.Printf("[APP] %v", e.halted)
		return e.halted
	}
	e.frameCount++
	e.emulationTime = time.Since(start)

	if err := graphics.ComposeDebugView(e.bus.VRAM, &e.frame); err != nil {
		return fmt.Errorf("frame %d: %w", e.frameCount, err)
	}
	return nil
}

// Update is the per-frame callback handed to graphics.Window.Run
func (e *Emulator) Update(w graphics.Window) error {
	if err := e.HandleEvents(w.PollEvents()); err != nil {
		return err
	}
	if w.ShouldClose() {
		return graphics.ErrQuit
	}

	if e.isRunning {
		if err := e.StepFrame(); err != nil {
			return err
		}
	}

	if s, ok := w.(graphics.StatusDisplay); ok {
		s.SetStatus(e.StatusLine())
	}
	if err := w.RenderFrame(&e.frame); err != nil {
		return err
	}

	if limit := e.config.Emulation.MaxFrames; limit != 0 && e.frameCount >= limit {
		return graphics.ErrQuit
	}
	return nil
}

// StatusLine summarizes the machine in one line of text
func (e *Emulator) StatusLine() string {
	c := e.bus.CPU
	return fmt.Sprintf("frame %d  PC:%04X A:%02X X:%02X Y:%02X P:%02X SP:%02X CYC:%d  %v",
		e.frameCount, c.PC, c.A, c.X, c.Y, c.GetStatusByte(), c.SP, e.bus.Cycles(),
		e.emulationTime.Round(time.Microsecond))
}

// Frame returns the last composed frame
func (e *Emulator) Frame() *[graphics.FramePixels]uint32 {
	return &e.frame
}

// Halted returns the error that stopped emulation, if any
func (e *Emulator) Halted() error {
	return e.halted
}

// GetFrameCount returns frames emulated since the last reset
func (e *Emulator) GetFrameCount() uint64 {
	return e.frameCount
}

// GetUptime returns time since the last reset
func (e *Emulator) GetUptime() time.Duration {
	return time.Since(e.lastResetTime)
}
