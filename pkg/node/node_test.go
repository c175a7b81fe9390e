package node

import (
	"testing"

	"github.com/nasa-gunns/gunns-go/pkg/fluid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func air() fluid.State {
	return fluid.State{
		Phase:         fluid.Gas,
		Constituents:  []fluid.Constituent{{Name: "N2", MolarMW: 0.028, GammaRatio: 1.4}, {Name: "O2", MolarMW: 0.032, GammaRatio: 1.4}},
		MassFractions: []float64{0.79, 0.21},
		Density:       1.2,
		Temperature:   300,
		Pressure:      100,
	}
}

func TestInitVolumeRejectsNegative(t *testing.T) {
	n := New(Config{Name: "n1", InitialState: air()})
	assert.Error(t, n.InitVolume(-1))
}

func TestInitVolumeSeedsMassFromDensity(t *testing.T) {
	n := New(Config{Name: "n1", InitialState: air()})
	require.NoError(t, n.InitVolume(0.01))
	assert.InDelta(t, 0.012, n.Contents().Mass, 1e-9)
}

func TestOverflowingNodeDumpsToInflowShadow(t *testing.T) {
	n := New(Config{Name: "n1", InitialState: air()})
	require.NoError(t, n.InitVolume(0.01))
	n.ResetFlows()

	inflow := air()
	inflow.Temperature = 310
	n.CollectInflux(0.0001, inflow, 0)
	n.ScheduleOutflux(1000) // far exceeds stored moles over dt

	dt := 0.1
	assert.True(t, n.IsOverflowing(dt))

	require.NoError(t, n.IntegrateFlows(dt))
	assert.True(t, n.Overflowing())
	assert.GreaterOrEqual(t, n.Contents().Mass, massFloor)
	assert.InDelta(t, n.Inflow().Temperature, n.Contents().Temperature, 1e-9)
}

func TestIntegrateCapacitiveNormalAppliesNetHeatFlux(t *testing.T) {
	n := New(Config{Name: "n1", InitialState: air()})
	require.NoError(t, n.InitVolume(0.01))
	n.ResetFlows()

	n.CollectHeatFlux(50) // W, no mass added or removed this step

	require.NoError(t, n.IntegrateFlows(0.1))
	assert.Greater(t, n.Contents().Temperature, 300.0)
}

func TestPressureCorrectionGainHalvesOnSignFlip(t *testing.T) {
	n := New(Config{Name: "n1", InitialState: air()})
	require.NoError(t, n.InitVolume(0.01))
	n.contents.Pressure = 100

	n.SetPotential(101)
	c1 := n.ComputePressureCorrection()
	assert.InDelta(t, -1.0, c1, 1e-9)

	n.SetPotential(99.5)
	c2 := n.ComputePressureCorrection()
	assert.InDelta(t, 0.25, c2, 1e-9)
}

func TestPressureCorrectionSuppressedBelowThreshold(t *testing.T) {
	n := New(Config{Name: "n1", InitialState: air()})
	require.NoError(t, n.InitVolume(0.01))
	n.contents.Pressure = 100
	n.SetPotential(100 + 1e-9)
	assert.Equal(t, 0.0, n.ComputePressureCorrection())
}

func TestNonCapacitiveNodeNeverCorrects(t *testing.T) {
	n := New(Config{Name: "n1", InitialState: air()})
	n.SetPotential(50)
	assert.Equal(t, 0.0, n.ComputePressureCorrection())
}

func TestCollectTcBoundsChecked(t *testing.T) {
	cfg := Config{Name: "n1", InitialState: air(), TraceCompound: true}
	cfg.InitialState.TraceMoles = []float64{0.1, 0.2}
	n := New(cfg)
	assert.NoError(t, n.CollectTc(0, 1.0))
	assert.Error(t, n.CollectTc(5, 1.0))

	plain := New(Config{Name: "n2", InitialState: air()})
	assert.Error(t, plain.CollectTc(0, 1.0))
}
