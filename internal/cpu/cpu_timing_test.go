package cpu

import (
	"testing"
)

// TimingTest checks the cycles reported for the last instruction of a program
type TimingTest struct {
	Name           string
	Setup          func(h *CPUTestHelper)
	Program        []uint8
	Steps          int // including the measured instruction
	ExpectedCycles uint64
}

func runTimingTests(t *testing.T, tests []TimingTest) {
	t.Helper()
	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			h := NewCPUTestHelper()
			h.Start(test.Program...)
			if test.Setup != nil {
				test.Setup(h)
			}
			steps := test.Steps
			if steps == 0 {
				steps = 1
			}
			if steps > 1 {
				h.Run(t, steps-1)
			}
			before := h.CPU.Cycles()
			cycles := h.Step(t)

			if cycles != test.ExpectedCycles {
				t.Errorf("Expected %d cycles, got %d", test.ExpectedCycles, cycles)
			}
			if h.CPU.Cycles()-before != cycles {
				t.Errorf("Cycle counter advanced %d, Step reported %d", h.CPU.Cycles()-before, cycles)
			}
		})
	}
}

// pointer stores a zero page pointer at $10
func pointer(target uint16) func(h *CPUTestHelper) {
	return func(h *CPUTestHelper) {
		h.Memory.SetBytes(0x10, uint8(target), uint8(target>>8))
	}
}

func TestBasicInstructionTiming(t *testing.T) {
	runTimingTests(t, []TimingTest{
		{Name: "LDA immediate", Program: []uint8{0xA9, 0x01}, ExpectedCycles: 2},
		{Name: "LDA zero page", Program: []uint8{0xA5, 0x10}, ExpectedCycles: 3},
		{Name: "LDA zero page,X", Program: []uint8{0xB5, 0x10}, ExpectedCycles: 4},
		{Name: "LDA absolute", Program: []uint8{0xAD, 0x00, 0x02}, ExpectedCycles: 4},
		{Name: "LDA (zp,X)", Program: []uint8{0xA1, 0x10}, ExpectedCycles: 6},
		{Name: "STA zero page", Program: []uint8{0x85, 0x10}, ExpectedCycles: 3},
		{Name: "INC zero page,X", Program: []uint8{0xF6, 0x10}, ExpectedCycles: 6},
		{Name: "ASL absolute", Program: []uint8{0x0E, 0x00, 0x02}, ExpectedCycles: 6},
		{Name: "PHA", Program: []uint8{0x48}, ExpectedCycles: 3},
		{Name: "PLA", Program: []uint8{0x68}, ExpectedCycles: 4},
		{Name: "PHP", Program: []uint8{0x08}, ExpectedCycles: 3},
		{Name: "PLP", Program: []uint8{0x28}, ExpectedCycles: 4},
		{Name: "JMP absolute", Program: []uint8{0x4C, 0x00, 0x90}, ExpectedCycles: 3},
		{Name: "JMP indirect", Program: []uint8{0x6C, 0x00, 0x02}, ExpectedCycles: 5},
		{Name: "JSR", Program: []uint8{0x20, 0x00, 0x90}, ExpectedCycles: 6},
		{Name: "RTS", Program: []uint8{0x60}, ExpectedCycles: 6},
		{Name: "RTI", Program: []uint8{0x40}, ExpectedCycles: 6},
		{Name: "BRK", Program: []uint8{0x00}, ExpectedCycles: 7},
		{Name: "NOP", Program: []uint8{0xEA}, ExpectedCycles: 2},
		{Name: "SLO (zp,X)", Program: []uint8{0x03, 0x10}, ExpectedCycles: 8},
	})
}

func TestPageCrossTiming(t *testing.T) {
	runTimingTests(t, []TimingTest{
		{Name: "LDA abs,X same page", Program: []uint8{0xA2, 0x01, 0xBD, 0x00, 0x02}, Steps: 2, ExpectedCycles: 4},
		{Name: "LDA abs,X crossing", Program: []uint8{0xA2, 0x01, 0xBD, 0xFF, 0x02}, Steps: 2, ExpectedCycles: 5},
		{Name: "LDA abs,Y crossing", Program: []uint8{0xA0, 0x01, 0xB9, 0xFF, 0x02}, Steps: 2, ExpectedCycles: 5},
		{Name: "LDX abs,Y crossing", Program: []uint8{0xA0, 0x01, 0xBE, 0xFF, 0x02}, Steps: 2, ExpectedCycles: 5},
		{Name: "LDY abs,X crossing", Program: []uint8{0xA2, 0x01, 0xBC, 0xFF, 0x02}, Steps: 2, ExpectedCycles: 5},
		{Name: "ADC abs,X crossing", Program: []uint8{0xA2, 0x01, 0x7D, 0xFF, 0x02}, Steps: 2, ExpectedCycles: 5},
		{Name: "CMP abs,Y crossing", Program: []uint8{0xA0, 0x01, 0xD9, 0xFF, 0x02}, Steps: 2, ExpectedCycles: 5},
		{Name: "STA abs,X never pays", Program: []uint8{0xA2, 0x01, 0x9D, 0xFF, 0x02}, Steps: 2, ExpectedCycles: 5},
		{Name: "STA abs,X same page", Program: []uint8{0xA2, 0x01, 0x9D, 0x00, 0x02}, Steps: 2, ExpectedCycles: 5},
		{Name: "ASL abs,X never pays", Program: []uint8{0xA2, 0x01, 0x1E, 0xFF, 0x02}, Steps: 2, ExpectedCycles: 7},
		{
			Name:           "LDA (zp),Y same page",
			Setup:          pointer(0x0200),
			Program:        []uint8{0xA0, 0x01, 0xB1, 0x10},
			Steps:          2,
			ExpectedCycles: 5,
		},
		{
			Name:           "LDA (zp),Y crossing",
			Setup:          pointer(0x02FF),
			Program:        []uint8{0xA0, 0x01, 0xB1, 0x10},
			Steps:          2,
			ExpectedCycles: 6,
		},
		{
			Name:           "STA (zp),Y crossing",
			Setup:          pointer(0x02FF),
			Program:        []uint8{0xA0, 0x01, 0x91, 0x10},
			Steps:          2,
			ExpectedCycles: 6,
		},
		{
			Name:           "LDA (zp,X) never pays",
			Setup:          pointer(0x02FF),
			Program:        []uint8{0xA2, 0x00, 0xA1, 0x10},
			Steps:          2,
			ExpectedCycles: 6,
		},
		{Name: "NOP abs,X crossing", Program: []uint8{0xA2, 0x01, 0x1C, 0xFF, 0x02}, Steps: 2, ExpectedCycles: 5},
		{Name: "LAX abs,Y crossing", Program: []uint8{0xA0, 0x01, 0xBF, 0xFF, 0x02}, Steps: 2, ExpectedCycles: 5},
		{Name: "LAS abs,Y crossing", Program: []uint8{0xA0, 0x01, 0xBB, 0xFF, 0x02}, Steps: 2, ExpectedCycles: 5},
		{Name: "DCP abs,Y never pays", Program: []uint8{0xA0, 0x01, 0xDB, 0xFF, 0x02}, Steps: 2, ExpectedCycles: 7},
		{
			Name:           "ISC (zp),Y never pays",
			Setup:          pointer(0x02FF),
			Program:        []uint8{0xA0, 0x01, 0xF3, 0x10},
			Steps:          2,
			ExpectedCycles: 8,
		},
	})
}

func TestBranchTiming(t *testing.T) {
	runTimingTests(t, []TimingTest{
		// LDX #1 clears Z
		{Name: "BNE not taken", Program: []uint8{0xA2, 0x00, 0xD0, 0x10}, Steps: 2, ExpectedCycles: 2},
		{Name: "BNE taken same page", Program: []uint8{0xA2, 0x01, 0xD0, 0x7F}, Steps: 2, ExpectedCycles: 3},
		{Name: "BNE taken crossing backward", Program: []uint8{0xA2, 0x01, 0xD0, 0xF0}, Steps: 2, ExpectedCycles: 4},
		{Name: "BCC taken", Program: []uint8{0x90, 0x02}, ExpectedCycles: 3},
		{Name: "BCS not taken", Program: []uint8{0xB0, 0x02}, ExpectedCycles: 2},
	})
}

func TestBranchTargets(t *testing.T) {
	h := NewCPUTestHelper()
	h.Start(0xA2, 0x01, 0xD0, 0xF0) // LDX #1; BNE -16
	h.Run(t, 2)
	if h.CPU.PC != 0x7FF4 {
		t.Errorf("Expected backward branch to $7FF4, got $%04X", h.CPU.PC)
	}

	h = NewCPUTestHelper()
	h.Start(0xA2, 0x01, 0xD0, 0x7F)
	h.Run(t, 2)
	if h.CPU.PC != 0x8083 {
		t.Errorf("Expected forward branch to $8083, got $%04X", h.CPU.PC)
	}
}
