// Package fluid implements the minimal conserved-state bundle a node
// carries: molar mass, density, temperature, mass fractions and optional
// trace compounds, plus the mixing and state-equation relations the node
// integration step needs. It intentionally stops short of a full fluid
// property regression (explicitly out of scope for the network solver
// core) and implements only ideal-gas and simple incompressible-liquid
// relations.
package fluid

import (
	"math"

	"github.com/nasa-gunns/gunns-go/pkg/gunnserr"
)

// GasConstant is the universal gas constant, J/(mol*K).
const GasConstant = 8.314462618

// massFractionFloor zeroes out any constituent fraction below this value
// when normalizing, matching the source's numeric floor.
const massFractionFloor = 1.0e-15

// Phase distinguishes gas from liquid nodes, used by link port-rule checks
// ("no port on a liquid node for a gas link").
type Phase int

const (
	Gas Phase = iota
	Liquid
)

// Constituent names one compound in the mixture and its molar mass.
type Constituent struct {
	Name     string
	MolarMW  float64 // kg/mol
	GammaRatio float64 // cp/cv, used for isentropic expansion; 1 for liquids
}

// State is the conserved content state of a node or a link's internal
// mixing scratchpad: mass, density, temperature and composition.
type State struct {
	Phase         Phase
	Constituents  []Constituent
	MassFractions []float64 // parallel to Constituents, sums to ~1
	Mass          float64   // kg
	Density       float64   // kg/m3
	Temperature   float64   // K
	Pressure      float64   // kPa
	TraceMoles    []float64 // optional trace-compound molar concentrations
}

// MolarMass returns the mixture's mean molar mass.
func (s State) MolarMass() float64 {
	mw := 0.0
	for i, f := range s.MassFractions {
		if s.Constituents[i].MolarMW > 0 {
			mw += f / s.Constituents[i].MolarMW
		}
	}
	if mw <= 0 {
		return 0
	}
	return 1.0 / mw
}

// Validate checks the invariants spec §3 places on node content state: mass
// >= 0, mass fractions normalize to 1 within tolerance, and temperature > 0
// whenever mass > 0. It does not throw during a run (state equations are
// allowed to produce nonphysical intermediate values); it only reports.
func (s *State) Validate() error {
	if s.Mass < 0 {
		return gunnserr.NewNumericError("fluid.State", "mass is negative", false)
	}
	if s.Mass > 0 && s.Temperature <= 0 {
		return gunnserr.NewNumericError("fluid.State", "temperature non-positive with nonzero mass", false)
	}
	sum := 0.0
	for _, f := range s.MassFractions {
		sum += f
	}
	if s.Mass > 0 && math.Abs(sum-1.0) > 1.0e-6 {
		return gunnserr.NewNumericError("fluid.State", "mass fractions do not sum to 1", false)
	}
	return nil
}

// NormalizeFractions rescales MassFractions to sum to exactly 1 (within
// floating tolerance) and zeroes any fraction below the numeric floor, per
// spec §4.7 step 5. A zero-sum mixture is left unchanged.
func (s *State) NormalizeFractions() {
	normalize(s.MassFractions)
	if len(s.TraceMoles) > 0 {
		normalize(s.TraceMoles)
	}
}

func normalize(fractions []float64) {
	sum := 0.0
	for i, f := range fractions {
		if f < massFractionFloor {
			fractions[i] = 0
		}
		sum += fractions[i]
	}
	if sum <= 0 {
		return
	}
	for i := range fractions {
		fractions[i] /= sum
	}
}

// Mix blends state b into a with mass-rate weight wB against a's own weight
// wA, returning the resulting mixture. Supports a negative wB (withdrawal):
// the caller is responsible for ensuring the combined weight stays
// nonnegative. Used both for node inflow-shadow mixing (collectInflux) and
// for the capacitive node mass-weighted content blend (spec §4.7 step 2).
func Mix(a State, wA float64, b State, wB float64) State {
	total := wA + wB
	if total <= 0 {
		return a
	}

	base := a
	if len(a.MassFractions) == 0 {
		base = b
	}
	out := State{
		Phase:         base.Phase,
		Constituents:  base.Constituents,
		MassFractions: make([]float64, len(base.MassFractions)),
		Mass:          a.Mass,
		Density:       a.Density,
	}
	for i := range out.MassFractions {
		af, bf := 0.0, 0.0
		if i < len(a.MassFractions) {
			af = a.MassFractions[i]
		}
		if i < len(b.MassFractions) {
			bf = b.MassFractions[i]
		}
		out.MassFractions[i] = (af*wA + bf*wB) / total
	}
	out.Temperature = (a.Temperature*wA + b.Temperature*wB) / total
	out.NormalizeFractions()
	return out
}

// IdealGasDensity returns the density (kg/m3) of an ideal gas mixture at
// the given pressure (kPa) and temperature (K) with the given molar mass
// (kg/mol). Returns 0 if temperature is non-positive (caller floors mass at
// a small epsilon rather than dividing by zero).
func IdealGasDensity(pressureKPa, temperatureK, molarMassKgPerMol float64) float64 {
	if temperatureK <= 0 {
		return 0
	}
	// rho = P*MW / (R*T); P in kPa -> Pa by *1000.
	return pressureKPa * 1000.0 * molarMassKgPerMol / (GasConstant * temperatureK)
}

// IdealGasPressure is the inverse of IdealGasDensity: returns pressure
// (kPa) given density, temperature and molar mass.
func IdealGasPressure(densityKgPerM3, temperatureK, molarMassKgPerMol float64) float64 {
	if molarMassKgPerMol <= 0 {
		return 0
	}
	return densityKgPerM3 * GasConstant * temperatureK / (molarMassKgPerMol * 1000.0)
}

// DensityDerivativeWRTTemperature numerically differentiates ideal-gas
// density with respect to temperature at fixed pressure and molar mass,
// central-difference over +/-deltaT, for node thermal capacitance (spec
// §4.1's computeThermalCapacitance). It returns the negated derivative,
// (rho(T-deltaT) - rho(T+deltaT)) / (2*deltaT), which is positive for an
// ideal gas.
func DensityDerivativeWRTTemperature(pressureKPa, temperatureK, molarMassKgPerMol, deltaT float64) float64 {
	rhoHigh := IdealGasDensity(pressureKPa, temperatureK+deltaT, molarMassKgPerMol)
	rhoLow := IdealGasDensity(pressureKPa, temperatureK-deltaT, molarMassKgPerMol)
	return (rhoLow - rhoHigh) / (2.0 * deltaT)
}

// SpecificHeatCv returns the mixture's mass-fraction-weighted specific heat
// at constant volume (J/(kg*K)), derived per constituent from the ideal-gas
// relation Cv = R/((gamma-1)*MW). Constituents with gamma <= 1 (liquids, by
// convention) contribute nothing, since the incompressible-liquid relations
// this package implements don't model a distinct heat capacity. Used by the
// node's energy balance to turn a net heat flux into a temperature change.
func (s *State) SpecificHeatCv() float64 {
	cv := 0.0
	for i, f := range s.MassFractions {
		if i >= len(s.Constituents) {
			continue
		}
		c := s.Constituents[i]
		if c.MolarMW <= 0 || c.GammaRatio <= 1 {
			continue
		}
		cv += f * GasConstant / ((c.GammaRatio - 1) * c.MolarMW)
	}
	return cv
}

// IsentropicExpansionTemperature computes T_out = T_in * (P_out/P_in)^((gamma-1)/gamma),
// scaled by expansionScale in [0,1] (0 disables cooling, 1 is fully
// isentropic), per spec §4.2. Pressures are absolute (kPa); if either is
// non-positive the input temperature is returned unchanged.
func IsentropicExpansionTemperature(tIn, pIn, pOut, gamma, expansionScale float64) float64 {
	if pIn <= 0 || pOut <= 0 || tIn <= 0 {
		return tIn
	}
	exponent := (gamma - 1.0) / gamma
	ideal := tIn * math.Pow(pOut/pIn, exponent)
	return tIn + expansionScale*(ideal-tIn)
}
