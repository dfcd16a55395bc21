// Package graphics provides the frontends the emulator can run under: an
// Ebitengine window, a raw-mode terminal and a headless runner.
package graphics

import (
	"errors"
	"fmt"

	"nescore/internal/input"
)

// Frame dimensions
const (
	FrameWidth  = 256
	FrameHeight = 240
	FramePixels = FrameWidth * FrameHeight
)

// ErrQuit is returned by an update function to end Window.Run cleanly
var ErrQuit = errors.New("quit requested")

// Backend represents a frontend implementation
type Backend interface {
	// Initialize initializes the graphics backend
	Initialize(config Config) error

	// CreateWindow creates the surface frames are presented on
	CreateWindow(title string, width, height int) (Window, error)

	// Cleanup releases all resources
	Cleanup() error

	// IsHeadless returns true if nothing is shown to the user
	IsHeadless() bool

	// GetName returns the backend name for identification
	GetName() string
}

// Window represents a rendering surface plus its input source
type Window interface {
	SetTitle(title string)

	// ShouldClose returns true once the user asked to quit
	ShouldClose() bool

	// PollEvents returns input events since the previous call
	PollEvents() []InputEvent

	// RenderFrame presents a 256x240 0xRRGGBB frame
	RenderFrame(frame *[FramePixels]uint32) error

	// Run calls update once per frame until it returns an error or the
	// window closes. ErrQuit ends the loop without error.
	Run(update func() error) error

	// Cleanup releases window resources
	Cleanup() error
}

// StatusDisplay is implemented by windows that can show a line of text
type StatusDisplay interface {
	SetStatus(line string)
}

// Config contains configuration for graphics backends
type Config struct {
	WindowTitle  string
	WindowWidth  int
	WindowHeight int
	Fullscreen   bool
	VSync        bool
	Filter       string // "nearest", "linear"

	Headless bool
	Debug    bool
}

// InputEvent represents an input event from the window
type InputEvent struct {
	Type    InputEventType
	Port    int // controller 1 or 2
	Button  input.Button
	Pressed bool
}

// InputEventType represents the type of input event
type InputEventType int

const (
	InputEventTypeButton InputEventType = iota
	InputEventTypeQuit
)

// BackendType represents different graphics backend types
type BackendType string

const (
	BackendEbitengine BackendType = "ebiten"
	BackendHeadless   BackendType = "headless"
	BackendTerminal   BackendType = "terminal"
)

// CreateBackend creates a graphics backend of the specified type
func CreateBackend(backendType BackendType) (Backend, error) {
	switch backendType {
	case BackendEbitengine:
		return NewEbitengineBackend(), nil
	case BackendHeadless:
		return NewHeadlessBackend(), nil
	case BackendTerminal:
		return NewTerminalBackend(), nil
	default:
		return nil, fmt.Errorf("unknown frontend %q", backendType)
	}
}
