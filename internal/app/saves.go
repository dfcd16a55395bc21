package app

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"nescore/internal/cartridge"
)

// SaveManager keeps battery-backed PRG RAM in one .sav file per ROM
type SaveManager struct {
	saveDirectory string
}

// NewSaveManager creates a save manager rooted at dir
func NewSaveManager(dir string) *SaveManager {
	return &SaveManager{saveDirectory: dir}
}

// Path returns the save file used for romPath
func (sm *SaveManager) Path(romPath string) string {
	base := filepath.Base(romPath)
	return filepath.Join(sm.saveDirectory, strings.TrimSuffix(base, filepath.Ext(base))+".sav")
}

// Load restores PRG RAM for a battery cartridge. A missing save file is
// not an error.
func (sm *SaveManager) Load(cart *cartridge.Cartridge, romPath string) error {
	if !cart.HasBattery() {
		return nil
	}

	path := sm.Path(romPath)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read save file: %w", err)
	}

	if err := cart.LoadRAM(data); err != nil {
		return fmt.Errorf("save file %s: %w", path, err)
	}
	log.Printf("[APP] Loaded battery RAM from %s", path)
	return nil
}

// Save writes PRG RAM for a battery cartridge
func (sm *SaveManager) Save(cart *cartridge.Cartridge, romPath string) error {
	if !cart.HasBattery() {
		return nil
	}

	if err := os.MkdirAll(sm.saveDirectory, 0755); err != nil {
		return fmt.Errorf("failed to create save directory: %w", err)
	}

	path := sm.Path(romPath)
	if err := os.WriteFile(path, cart.SaveRAM(), 0644); err != nil {
		return fmt.Errorf("failed to write save file: %w", err)
	}
	log.Printf("[APP] Saved battery RAM to %s", path)
	return nil
}

// GetSaveDirectory returns the directory save files live in
func (sm *SaveManager) GetSaveDirectory() string {
	return sm.saveDirectory
}
