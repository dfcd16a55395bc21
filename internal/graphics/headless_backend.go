package graphics

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// HeadlessBackend implements the Backend interface for headless operation
type HeadlessBackend struct {
	initialized bool
	config      Config
}

// HeadlessWindow runs the update loop as fast as possible and keeps the
// last frame it was given.
type HeadlessWindow struct {
	title      string
	running    bool
	frameCount int
	lastFrame  [FramePixels]uint32
	outputPath string
}

// NewHeadlessBackend creates a new headless graphics backend
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize initializes the headless backend
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("headless backend already initialized")
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates a headless "window" (no actual window)
func (b *HeadlessBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}
	return &HeadlessWindow{title: title, running: true}, nil
}

// Cleanup releases all headless resources
func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true (this is a headless backend)
func (b *HeadlessBackend) IsHeadless() bool {
	return true
}

// GetName returns the backend name
func (b *HeadlessBackend) GetName() string {
	return "Headless"
}

// SetTitle sets the window title (for logging purposes)
func (w *HeadlessWindow) SetTitle(title string) {
	w.title = title
}

// ShouldClose returns true if window should close
func (w *HeadlessWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents returns no events; there is no input in headless mode
func (w *HeadlessWindow) PollEvents() []InputEvent {
	return nil
}

// RenderFrame keeps a copy of frame
func (w *HeadlessWindow) RenderFrame(frame *[FramePixels]uint32) error {
	w.frameCount++
	w.lastFrame = *frame
	return nil
}

// Run calls update until it fails or asks to quit
func (w *HeadlessWindow) Run(update func() error) error {
	for w.running {
		if err := update(); err != nil {
			w.running = false
			if errors.Is(err, ErrQuit) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Cleanup writes the last frame when an output path is set
func (w *HeadlessWindow) Cleanup() error {
	w.running = false
	if w.outputPath == "" || w.frameCount == 0 {
		return nil
	}
	return w.saveFrameAsPPM(w.outputPath)
}

// saveFrameAsPPM saves the last frame as a plain PPM image
func (w *HeadlessWindow) saveFrameAsPPM(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filename, err)
	}
	defer file.Close()

	out := bufio.NewWriter(file)
	fmt.Fprintf(out, "P3\n%d %d\n255\n", FrameWidth, FrameHeight)
	for y := 0; y < FrameHeight; y++ {
		for x := 0; x < FrameWidth; x++ {
			pixel := w.lastFrame[y*FrameWidth+x]
			fmt.Fprintf(out, "%d %d %d ", (pixel>>16)&0xFF, (pixel>>8)&0xFF, pixel&0xFF)
		}
		fmt.Fprintln(out)
	}
	return out.Flush()
}

// SetOutputPath sets where Cleanup dumps the last frame
func (w *HeadlessWindow) SetOutputPath(path string) {
	w.outputPath = path
}

// GetFrameCount returns the number of frames rendered
func (w *HeadlessWindow) GetFrameCount() int {
	return w.frameCount
}
