//go:build !headless
// +build !headless

package graphics

import (
	"testing"

	"nescore/internal/input"
)

func TestFillRGBA(t *testing.T) {
	var frame [FramePixels]uint32
	frame[0] = 0x00AABBCC
	frame[FramePixels-1] = 0x00010203
	pixels := make([]byte, FramePixels*4)

	fillRGBA(pixels, &frame)

	if pixels[0] != 0xAA || pixels[1] != 0xBB || pixels[2] != 0xCC || pixels[3] != 0xFF {
		t.Errorf("Expected AA BB CC FF, got % X", pixels[:4])
	}
	last := pixels[len(pixels)-4:]
	if last[0] != 0x01 || last[1] != 0x02 || last[2] != 0x03 || last[3] != 0xFF {
		t.Errorf("Expected 01 02 03 FF, got % X", last)
	}
}

func TestKeyBindings_CoverBothControllers(t *testing.T) {
	all := []input.Button{
		input.ButtonA, input.ButtonB, input.ButtonSelect, input.ButtonStart,
		input.ButtonUp, input.ButtonDown, input.ButtonLeft, input.ButtonRight,
	}
	for port := 1; port <= 2; port++ {
		bound := make(map[input.Button]bool)
		for _, b := range keyBindings {
			if b.port == port {
				bound[b.button] = true
			}
		}
		for _, button := range all {
			if !bound[button] {
				t.Errorf("Controller %d: no key bound to %s", port, button)
			}
		}
	}
}

func TestEbitengineBackend_Initialize(t *testing.T) {
	backend := NewEbitengineBackend()
	if err := backend.Initialize(Config{WindowTitle: "test"}); err != nil {
		t.Fatalf("Expected successful initialization, got error: %v", err)
	}
	if err := backend.Initialize(Config{}); err == nil {
		t.Error("Expected error on double initialization")
	}
	if backend.GetName() != "Ebitengine" {
		t.Errorf("Expected name Ebitengine, got %s", backend.GetName())
	}

	headless := NewEbitengineBackend()
	headless.Initialize(Config{Headless: true})
	if _, err := headless.CreateWindow("test", 512, 480); err == nil {
		t.Error("Expected CreateWindow to refuse headless config")
	}
}
