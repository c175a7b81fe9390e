package links

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanRejectsNonPositiveReferenceDensity(t *testing.T) {
	nodes := twoNodeNetwork(t)
	_, err := NewFan(FanConfig{
		Name:             "fan1",
		Ports:            [2]int{0, 1},
		ReferenceDensity: 0,
		ReferenceCoeffs:  [6]float64{1, 0, 0, 0, 0, 0},
		ReferenceQMax:    1,
		FilterGain:       0.1,
	}, nodes, 2)
	assert.Error(t, err)
}

func TestFanAtZeroSpeedProducesNoPressure(t *testing.T) {
	nodes := twoNodeNetwork(t)
	f, err := NewFan(FanConfig{
		Name:             "fan1",
		Ports:            [2]int{0, 1},
		ReferenceDensity: 1.2,
		ReferenceCoeffs:  [6]float64{0.357, -24.6528, 1167.09, -21093.2, 168250, -549729},
		ReferenceQMax:    0.3,
		FilterGain:       0.1,
	}, nodes, 2)
	require.NoError(t, err)
	require.NoError(t, f.Step(0.1))
	assert.Equal(t, 0.0, f.SourcePressure())
}

func TestFanFindsCurveRootAtFullSpeed(t *testing.T) {
	nodes := twoNodeNetwork(t)
	f, err := NewFan(FanConfig{
		Name:             "fan1",
		Ports:            [2]int{0, 1},
		ReferenceDensity: 1.2,
		ReferenceCoeffs:  [6]float64{0.357, -24.6528, 1167.09, -21093.2, 168250, -549729},
		ReferenceQMax:    0.3,
		FilterGain:       1.0,
	}, nodes, 2)
	require.NoError(t, err)
	f.SetSpeedFraction(1.0)
	require.NoError(t, f.Step(0.1))
	assert.Greater(t, f.SourcePressure(), 0.0)
}
