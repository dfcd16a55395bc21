//go:build !headless
// +build !headless

package graphics

import (
	"errors"
	"fmt"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"nescore/internal/input"
)

// EbitengineBackend implements the Backend interface using Ebitengine
type EbitengineBackend struct {
	initialized bool
	config      Config
}

// EbitengineWindow implements the Window interface for Ebitengine
type EbitengineWindow struct {
	title   string
	game    *EbitengineGame
	running bool
	events  []InputEvent
	update  func() error
	debug   bool
}

// EbitengineGame implements ebiten.Game for the emulator
type EbitengineGame struct {
	window *EbitengineWindow

	frameImage *ebiten.Image
	pixels     []byte // RGBA, reused every frame

	drawCount int
}

// keyBinding maps a key to a controller button
type keyBinding struct {
	key    ebiten.Key
	port   int
	button input.Button
}

// Player 1 on arrows/WASD + J/K, player 2 on the number row
var keyBindings = []keyBinding{
	{ebiten.KeyArrowUp, 1, input.ButtonUp},
	{ebiten.KeyArrowDown, 1, input.ButtonDown},
	{ebiten.KeyArrowLeft, 1, input.ButtonLeft},
	{ebiten.KeyArrowRight, 1, input.ButtonRight},
	{ebiten.KeyW, 1, input.ButtonUp},
	{ebiten.KeyS, 1, input.ButtonDown},
	{ebiten.KeyA, 1, input.ButtonLeft},
	{ebiten.KeyD, 1, input.ButtonRight},
	{ebiten.KeyJ, 1, input.ButtonA},
	{ebiten.KeyZ, 1, input.ButtonA},
	{ebiten.KeyK, 1, input.ButtonB},
	{ebiten.KeyX, 1, input.ButtonB},
	{ebiten.KeyEnter, 1, input.ButtonStart},
	{ebiten.KeySpace, 1, input.ButtonSelect},
	{ebiten.Key1, 2, input.ButtonUp},
	{ebiten.Key2, 2, input.ButtonDown},
	{ebiten.Key3, 2, input.ButtonLeft},
	{ebiten.Key4, 2, input.ButtonRight},
	{ebiten.Key5, 2, input.ButtonA},
	{ebiten.Key6, 2, input.ButtonB},
	{ebiten.Key7, 2, input.ButtonStart},
	{ebiten.Key8, 2, input.ButtonSelect},
}

// NewEbitengineBackend creates a new Ebitengine graphics backend
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

// Initialize initializes the Ebitengine backend
func (b *EbitengineBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("Ebitengine backend already initialized")
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates an Ebitengine window
func (b *EbitengineBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}
	if b.config.Headless {
		return nil, fmt.Errorf("cannot create window in headless mode")
	}

	window := &EbitengineWindow{
		title:   title,
		running: true,
		debug:   b.config.Debug,
	}
	window.game = &EbitengineGame{
		window:     window,
		frameImage: ebiten.NewImage(FrameWidth, FrameHeight),
		pixels:     make([]byte, FramePixels*4),
	}

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(b.config.VSync)
	ebiten.SetFullscreen(b.config.Fullscreen)
	ebiten.SetScreenFilterEnabled(b.config.Filter == "linear")

	return window, nil
}

// Cleanup releases all Ebitengine resources
func (b *EbitengineBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true if running in headless mode
func (b *EbitengineBackend) IsHeadless() bool {
	return b.config.Headless
}

// GetName returns the backend name
func (b *EbitengineBackend) GetName() string {
	return "Ebitengine"
}

// SetTitle sets the window title
func (w *EbitengineWindow) SetTitle(title string) {
	w.title = title
	ebiten.SetWindowTitle(title)
}

// ShouldClose returns true if window should close
func (w *EbitengineWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents returns events gathered in the current Update
func (w *EbitengineWindow) PollEvents() []InputEvent {
	events := w.events
	w.events = nil
	return events
}

// RenderFrame uploads frame to the texture drawn on the next Draw
func (w *EbitengineWindow) RenderFrame(frame *[FramePixels]uint32) error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}
	fillRGBA(w.game.pixels, frame)
	w.game.frameImage.WritePixels(w.game.pixels)
	return nil
}

// fillRGBA expands 0xRRGGBB pixels into an opaque RGBA byte slice
func fillRGBA(dst []byte, frame *[FramePixels]uint32) {
	for i, pixel := range frame {
		dst[i*4] = uint8(pixel >> 16)
		dst[i*4+1] = uint8(pixel >> 8)
		dst[i*4+2] = uint8(pixel)
		dst[i*4+3] = 0xFF
	}
}

// Cleanup releases window resources
func (w *EbitengineWindow) Cleanup() error {
	w.running = false
	return nil
}

// Run starts the Ebitengine game loop; it blocks until the window closes
func (w *EbitengineWindow) Run(update func() error) error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}
	w.update = update

	err := ebiten.RunGame(w.game)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Update implements ebiten.Game.Update
func (g *EbitengineGame) Update() error {
	w := g.window
	if !w.running {
		return ebiten.Termination
	}

	g.collectInput()

	if w.update == nil {
		return nil
	}
	if err := w.update(); err != nil {
		w.running = false
		if errors.Is(err, ErrQuit) {
			return ebiten.Termination
		}
		return err
	}
	return nil
}

// Draw implements ebiten.Game.Draw
func (g *EbitengineGame) Draw(screen *ebiten.Image) {
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()

	// Fit the frame while keeping its aspect ratio
	scale := float64(sw) / FrameWidth
	if s := float64(sh) / FrameHeight; s < scale {
		scale = s
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate((float64(sw)-FrameWidth*scale)/2, (float64(sh)-FrameHeight*scale)/2)
	screen.DrawImage(g.frameImage, op)

	g.drawCount++
	if g.window.debug && g.drawCount%1800 == 0 {
		log.Printf("[Ebitengine] Drawing frame %d scaled %.2fx", g.drawCount, scale)
	}
}

// Layout implements ebiten.Game.Layout
func (g *EbitengineGame) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return outsideWidth, outsideHeight
}

// collectInput turns key transitions into controller events
func (g *EbitengineGame) collectInput() {
	w := g.window
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		w.events = append(w.events, InputEvent{Type: InputEventTypeQuit, Pressed: true})
	}

	for _, binding := range keyBindings {
		switch {
		case inpututil.IsKeyJustPressed(binding.key):
			w.events = append(w.events, buttonEvent(binding, true))
		case inpututil.IsKeyJustReleased(binding.key):
			w.events = append(w.events, buttonEvent(binding, false))
		}
	}
}

func buttonEvent(binding keyBinding, pressed bool) InputEvent {
	return InputEvent{
		Type:    InputEventTypeButton,
		Port:    binding.port,
		Button:  binding.button,
		Pressed: pressed,
	}
}
