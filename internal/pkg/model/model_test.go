package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() CellConfig {
	return CellConfig{ID: "Cell_1", Chemistry: ChemistryLFP, Voltage: 3.2, Current: 2, Temperature: 25}
}

func TestCellConfigValidate(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validConfig().Validate())

	empty := validConfig()
	empty.ID = ""
	assert.Error(t, empty.Validate())

	unknown := validConfig()
	unknown.Chemistry = "NaS"
	assert.Error(t, unknown.Validate())

	nan := validConfig()
	nan.Voltage = math.NaN()
	assert.Error(t, nan.Validate())

	inf := validConfig()
	inf.Temperature = math.Inf(1)
	assert.Error(t, inf.Validate())
}

func TestParseChemistry(t *testing.T) {
	t.Parallel()
	for _, c := range Chemistries {
		got, err := ParseChemistry(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseChemistry("lfp")
	assert.Error(t, err)
}

func TestParseOperatingMode(t *testing.T) {
	t.Parallel()
	for _, m := range []OperatingMode{ModeIdle, ModeCharging, ModeDischarging, ModePaused} {
		got, err := ParseOperatingMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseOperatingMode("Standby")
	assert.Error(t, err)
}

func TestOperatingModeActive(t *testing.T) {
	t.Parallel()
	assert.True(t, ModeCharging.Active())
	assert.True(t, ModeDischarging.Active())
	assert.False(t, ModePaused.Active())
	assert.False(t, ModeIdle.Active())
}
