package fluid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMolarMassOfMixture(t *testing.T) {
	s := &State{
		Constituents: []Constituent{
			{Name: "O2", MolarMW: 0.032},
			{Name: "N2", MolarMW: 0.028},
			{Name: "CO2", MolarMW: 0.044},
		},
		MassFractions: []float64{0.2, 0.79, 0.01},
		Mass:          1,
		Temperature:   300,
	}
	mw := s.MolarMass()
	assert.Greater(t, mw, 0.0)
	assert.NoError(t, s.Validate())
}

func TestNormalizeFractionsSumsToOne(t *testing.T) {
	s := &State{MassFractions: []float64{0.5, 0.3, 0.3}, Mass: 1, Temperature: 300}
	s.NormalizeFractions()
	sum := 0.0
	for _, f := range s.MassFractions {
		sum += f
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestValidateCatchesNonPhysicalState(t *testing.T) {
	neg := &State{Mass: -1}
	assert.Error(t, neg.Validate())

	coldWithMass := &State{Mass: 1, Temperature: 0, MassFractions: []float64{1}}
	assert.Error(t, coldWithMass.Validate())
}

func TestThermalCapacitanceMatchesFiniteDifference(t *testing.T) {
	// scenario: O2/N2/CO2 mixture at 300K, 100kPa, V=1m3; dT = 0.1K.
	mw := (&State{
		Constituents:  []Constituent{{MolarMW: 0.032}, {MolarMW: 0.028}, {MolarMW: 0.044}},
		MassFractions: []float64{0.2, 0.79, 0.01},
	}).MolarMass()

	drhoDT := DensityDerivativeWRTTemperature(100, 300, mw, 0.3)
	// formula from spec scenario 6: C = (rho(299.7) - rho(300.3)) / (MW * 0.6)
	directExpected := (IdealGasDensity(100, 299.7, mw) - IdealGasDensity(100, 300.3, mw)) / (mw * 0.6)
	assert.InDelta(t, directExpected, drhoDT/mw, 1e-10)
}

func TestIsentropicExpansionTemperatureScalesWithFactor(t *testing.T) {
	full := IsentropicExpansionTemperature(300, 200, 100, 1.4, 1.0)
	none := IsentropicExpansionTemperature(300, 200, 100, 1.4, 0.0)
	half := IsentropicExpansionTemperature(300, 200, 100, 1.4, 0.5)

	assert.Less(t, full, 300.0)
	assert.Equal(t, 300.0, none)
	assert.InDelta(t, (full+none)/2, half, 1e-9)
}
