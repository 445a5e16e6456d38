package model

import "fmt"

type Chemistry string

const (
	ChemistryLFP Chemistry = "LFP"
	ChemistryNMC Chemistry = "NMC"
	ChemistryLTO Chemistry = "LTO"
)

var Chemistries = []Chemistry{
	ChemistryLFP,
	ChemistryNMC,
	ChemistryLTO,
}

func (c Chemistry) String() string {
	return string(c)
}

// ParseChemistry rejects anything outside the known set. Configuration is
// the only place an unknown tag can enter the system, so it never defaults.
func ParseChemistry(s string) (Chemistry, error) {
	switch c := Chemistry(s); c {
	case ChemistryLFP, ChemistryNMC, ChemistryLTO:
		return c, nil
	}
	return "", fmt.Errorf("unknown cell chemistry: %q", s)
}

type OperatingMode string

const (
	ModeIdle        OperatingMode = "Idle"
	ModeCharging    OperatingMode = "Charging"
	ModeDischarging OperatingMode = "Discharging"
	ModePaused      OperatingMode = "Paused"
)

func (m OperatingMode) String() string {
	return string(m)
}

// Active reports whether the bench is driving current through the cells.
func (m OperatingMode) Active() bool {
	return m == ModeCharging || m == ModeDischarging
}

func ParseOperatingMode(s string) (OperatingMode, error) {
	switch m := OperatingMode(s); m {
	case ModeIdle, ModeCharging, ModeDischarging, ModePaused:
		return m, nil
	}
	return "", fmt.Errorf("unknown operating mode: %q", s)
}

type Severity string

const (
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

func (s Severity) String() string {
	return string(s)
}
