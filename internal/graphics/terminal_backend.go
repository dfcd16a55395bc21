package graphics

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/term"

	"nescore/internal/input"
)

// Terminals report key presses but never releases, so a pressed button is
// held for this many frames.
const terminalHoldFrames = 8

// Status line refresh interval in frames
const terminalStatusEvery = 6

// TerminalBackend implements the Backend interface on a raw-mode tty
type TerminalBackend struct {
	initialized bool
	config      Config
}

type terminalButton struct {
	port   int
	button input.Button
}

var terminalKeys = map[byte]terminalButton{
	'w':  {1, input.ButtonUp},
	's':  {1, input.ButtonDown},
	'a':  {1, input.ButtonLeft},
	'd':  {1, input.ButtonRight},
	'j':  {1, input.ButtonA},
	'k':  {1, input.ButtonB},
	'\r': {1, input.ButtonStart},
	'\n': {1, input.ButtonStart},
	' ':  {1, input.ButtonSelect},
}

// TerminalWindow reads keys on a goroutine and prints a status line
type TerminalWindow struct {
	tty *term.Term
	out io.Writer

	keys    chan byte
	held    map[terminalButton]int
	running bool

	status     string
	frameCount int
	frameTime  time.Duration
}

// NewTerminalBackend creates a new terminal graphics backend
func NewTerminalBackend() Backend {
	return &TerminalBackend{}
}

// Initialize initializes the terminal backend
func (b *TerminalBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("terminal backend already initialized")
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow puts the controlling terminal in raw mode
func (b *TerminalBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	tty, err := term.Open("/dev/tty", term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("failed to open terminal: %w", err)
	}

	w := newTerminalWindow(tty, os.Stdout)
	w.tty = tty
	w.SetTitle(title)
	return w, nil
}

// Cleanup releases all terminal resources
func (b *TerminalBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns false (terminal has basic output)
func (b *TerminalBackend) IsHeadless() bool {
	return false
}

// GetName returns the backend name
func (b *TerminalBackend) GetName() string {
	return "Terminal"
}

func newTerminalWindow(keys io.Reader, out io.Writer) *TerminalWindow {
	w := &TerminalWindow{
		out:       out,
		keys:      make(chan byte, 64),
		held:      make(map[terminalButton]int),
		running:   true,
		frameTime: time.Second / 60,
	}
	go readKeys(keys, w.keys)
	return w
}

// readKeys forwards single bytes until the reader fails
func readKeys(r io.Reader, keys chan<- byte) {
	defer close(keys)
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n == 1 {
			keys <- buf[0]
		}
		if err != nil {
			return
		}
	}
}

// SetTitle sets the terminal title
func (w *TerminalWindow) SetTitle(title string) {
	fmt.Fprintf(w.out, "\033]0;%s\007", title)
}

// SetStatus replaces the status line
func (w *TerminalWindow) SetStatus(line string) {
	w.status = line
}

// ShouldClose returns true if window should close
func (w *TerminalWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents ages held buttons and drains keys read since the last call
func (w *TerminalWindow) PollEvents() []InputEvent {
	var events []InputEvent

	for b, frames := range w.held {
		if frames <= 1 {
			delete(w.held, b)
			events = append(events, InputEvent{Type: InputEventTypeButton, Port: b.port, Button: b.button})
			continue
		}
		w.held[b] = frames - 1
	}

drain:
	for w.keys != nil {
		select {
		case key, ok := <-w.keys:
			if !ok {
				w.keys = nil
				break drain
			}
			events = append(events, w.translate(key)...)
		default:
			break drain
		}
	}
	return events
}

func (w *TerminalWindow) translate(key byte) []InputEvent {
	switch key {
	case 'q', 0x1B, 0x03: // q, escape, ctrl-c
		w.running = false
		return []InputEvent{{Type: InputEventTypeQuit, Pressed: true}}
	}

	b, ok := terminalKeys[key]
	if !ok {
		return nil
	}
	w.held[b] = terminalHoldFrames
	return []InputEvent{{Type: InputEventTypeButton, Port: b.port, Button: b.button, Pressed: true}}
}

// RenderFrame refreshes the status line every few frames. The picture
// itself is not drawn.
func (w *TerminalWindow) RenderFrame(frame *[FramePixels]uint32) error {
	w.frameCount++
	if w.frameCount%terminalStatusEvery != 0 {
		return nil
	}
	line := w.status
	if line == "" {
		line = fmt.Sprintf("frame %d", w.frameCount)
	}
	_, err := fmt.Fprintf(w.out, "\r\033[K%s", line)
	return err
}

// Run calls update at the NTSC frame rate
func (w *TerminalWindow) Run(update func() error) error {
	ticker := time.NewTicker(w.frameTime)
	defer ticker.Stop()

	for w.running {
		if err := update(); err != nil {
			w.running = false
			if errors.Is(err, ErrQuit) {
				return nil
			}
			return err
		}
		<-ticker.C
	}
	return nil
}

// Cleanup restores the terminal mode
func (w *TerminalWindow) Cleanup() error {
	w.running = false
	fmt.Fprint(w.out, "\r\n")
	if w.tty == nil {
		return nil
	}
	if err := w.tty.Restore(); err != nil {
		return err
	}
	return w.tty.Close()
}
