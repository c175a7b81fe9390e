// Package node implements the network solver's Node: the potential-bearing
// vertex that accumulates link flow contributions each major step and
// integrates its own conserved state, per spec §4.1 and §4.7.
package node

import (
	"math"

	"github.com/nasa-gunns/gunns-go/pkg/fluid"
	"github.com/nasa-gunns/gunns-go/pkg/gunnserr"
)

// massFloor is the minimum mass an overflowing capacitive node is clamped
// to, preventing sign inversions (spec §4.7 step 3).
const massFloor = 1.0e-12

// correctionThreshold is the magnitude below which a pressure-correction
// term is suppressed to avoid chatter (spec §4.1).
const correctionThreshold = 1.0e-6

// correctionScale converts the raw potential/state-equation-pressure error
// into the feedback term's units. The source's feedback gain is tuned per
// node capacitance in units that make a 1 kPa error on a 0.01 m3 node
// produce a 1.0 (kPa-equivalent) correction at unity gain; this constant
// reproduces that scaling without requiring a unit system plumbed all the
// way through.
const correctionScale = 100.0

// correctionGainGrowth and correctionGainCap bound the pressure-correction
// gain's slow growth after a same-sign error.
const (
	correctionGainGrowth = 1.01
	correctionGainCap    = 1.0
)

// correctionState names the pressure-correction state machine's three
// states (spec §4.1).
type correctionState int

const (
	noCorrection correctionState = iota
	positiveCorrection
	negativeCorrection
)

// Config describes how a Node is constructed: whether it is the network's
// ground (fixed-potential sink, always last in the node list) and the
// initial fluid/electrical configuration it carries.
type Config struct {
	Name          string
	Ground        bool
	InitialState  fluid.State
	TraceCompound bool // whether this node tracks trace-compound moles
}

// Node is one vertex of the network: it owns conserved state, accepts flow
// contributions from links over a major step, and integrates its own
// potential and content state.
type Node struct {
	name   string
	ground bool

	potential         float64
	previousPotential float64
	capacitance       float64

	volume         float64
	previousVolume float64

	contents fluid.State

	previousTemperature float64

	inflow  fluid.State // mixture seen by inbound flow (this step's shadow)
	outflow fluid.State // mixture seen by outbound flow

	scheduledOutflux float64 // moles/s, pre-declared by computeFlows
	collectedInflux  float64 // kg/s accumulated via collectInflux
	collectedOutflux float64 // kg/s accumulated via collectOutflux
	collectedHeat    float64 // W accumulated via collectInflux/collectHeatFlux
	inflowWeight     float64 // running mass-rate weight used for shadow mixing

	traceCompound   bool
	traceInflux     []float64
	traceFractions  []float64

	overflowing bool

	massError float64 // measured - state-equation-implied mass, from last integrate

	correctionState correctionState
	correctionGain  float64
	networkCapFlux  float64
}

// New constructs a Node from cfg. The node starts with zero volume; call
// InitVolume to seed it.
func New(cfg Config) *Node {
	n := &Node{
		name:            cfg.Name,
		ground:          cfg.Ground,
		contents:        cfg.InitialState,
		traceCompound:   cfg.TraceCompound,
		correctionGain:  1.0,
		correctionState: noCorrection,
	}
	if cfg.TraceCompound {
		n.traceInflux = make([]float64, len(cfg.InitialState.TraceMoles))
		n.traceFractions = append([]float64(nil), cfg.InitialState.TraceMoles...)
	}
	return n
}

func (n *Node) Name() string { return n.name }

func (n *Node) IsGround() bool { return n.ground }

func (n *Node) Potential() float64 { return n.potential }

func (n *Node) PreviousPotential() float64 { return n.previousPotential }

func (n *Node) Capacitance() float64 { return n.capacitance }

func (n *Node) Volume() float64 { return n.volume }

func (n *Node) Contents() fluid.State { return n.contents }

func (n *Node) Inflow() fluid.State { return n.inflow }

func (n *Node) Outflow() fluid.State { return n.outflow }

// SetPotential is used by the assembler to write back the solved potential
// for this step before flow transport begins.
func (n *Node) SetPotential(p float64) { n.potential = p }

// SetCapacitance overrides the node's capacitance, e.g. after the
// network-capacitance probe identifies it.
func (n *Node) SetCapacitance(c float64) { n.capacitance = c }

// InitVolume seeds the node's volume and derives its initial mass from
// density times volume. Fails with an InitError if v < 0.
func (n *Node) InitVolume(v float64) error {
	if v < 0 {
		return gunnserr.NewInitError(n.name, "volume must be >= 0", v)
	}
	n.volume = v
	n.previousVolume = v
	if v > 0 && n.contents.Density > 0 {
		n.contents.Mass = n.contents.Density * v
	}
	n.capacitance = n.volume
	return nil
}

// SetVolume adjusts the node's volume after construction. If the node was
// previously at zero volume this seeds its mass from density; otherwise
// the change feeds the compression term on the next step via
// ComputeCompression.
func (n *Node) SetVolume(v float64) error {
	if v < 0 {
		return gunnserr.NewInitError(n.name, "volume must be >= 0", v)
	}
	if n.volume == 0 && v > 0 && n.contents.Density > 0 {
		n.contents.Mass = n.contents.Density * v
	}
	n.previousVolume = n.volume
	n.volume = v
	n.capacitance = n.volume
	return nil
}

// CollectInflux mixes an inbound flow into the node's inflow shadow,
// weighted by mass rate (supports negative rates for withdrawal), and
// accumulates heat flux and raw influx rate.
func (n *Node) CollectInflux(massRate float64, in fluid.State, heatFlux float64) {
	if n.inflowWeight+massRate != 0 {
		n.inflow = fluid.Mix(n.inflow, n.inflowWeight, in, massRate)
	}
	n.inflowWeight += massRate
	n.collectedInflux += massRate
	n.collectedHeat += heatFlux
}

// CollectOutflux accumulates an outgoing mass rate.
func (n *Node) CollectOutflux(massRate float64) {
	n.collectedOutflux += massRate
}

// CollectHeatFlux accumulates externally injected heat (e.g. from a
// non-mass-carrying thermal link), independent of CollectInflux.
func (n *Node) CollectHeatFlux(heatFlux float64) {
	n.collectedHeat += heatFlux
}

// ScheduleOutflux pre-declares an outflow rate used to determine overflow.
func (n *Node) ScheduleOutflux(moleRate float64) {
	n.scheduledOutflux += moleRate
}

// CollectTc accumulates a trace-compound inflow at the given index. Fails
// with a BoundsError if index is out of range or the node has no
// trace-compound configuration.
func (n *Node) CollectTc(index int, rate float64) error {
	if !n.traceCompound {
		return gunnserr.NewBoundsError(n.name, "node has no trace-compound configuration", index)
	}
	if index < 0 || index >= len(n.traceInflux) {
		return gunnserr.NewBoundsError(n.name, "trace-compound index out of range", index)
	}
	n.traceInflux[index] += rate
	return nil
}

// IsOverflowing reports whether the node's scheduled outflux over dt would
// exceed its currently stored moles.
func (n *Node) IsOverflowing(dt float64) bool {
	if n.ground || n.contents.Mass <= 0 {
		return false
	}
	mw := n.contents.MolarMass()
	if mw <= 0 {
		return false
	}
	moles := n.contents.Mass / mw
	return n.scheduledOutflux*dt > moles
}

// SetNetworkCapacitanceRequest sets the per-node flux magnitude the
// network-capacitance probe will use to pulse this node, per the node
// contract in spec §6.
func (n *Node) SetNetworkCapacitanceRequest(flux float64) { n.networkCapFlux = flux }

// NetworkCapacitanceRequest returns the last requested pulse flux.
func (n *Node) NetworkCapacitanceRequest() float64 { return n.networkCapFlux }

// ComputeThermalCapacitance numerically differentiates density with
// respect to temperature at fixed pressure to produce a source-vector
// contribution proportional to (T - T_prev). Zero-volume nodes return 0.
func (n *Node) ComputeThermalCapacitance(deltaT float64) float64 {
	if n.volume <= 0 || n.contents.Mass <= 0 {
		return 0
	}
	mw := n.contents.MolarMass()
	if mw <= 0 {
		return 0
	}
	drhoDT := fluid.DensityDerivativeWRTTemperature(n.contents.Pressure, n.contents.Temperature, mw, deltaT)
	c := drhoDT * n.volume / mw
	return c * (n.contents.Temperature - n.previousTemperature)
}

// ComputeCompression returns the source-vector contribution from a change
// in volume: rho * deltaV / MW.
func (n *Node) ComputeCompression() float64 {
	mw := n.contents.MolarMass()
	if mw <= 0 {
		return 0
	}
	deltaV := n.volume - n.previousVolume
	return n.contents.Density * deltaV / mw
}

// ComputePressureCorrection compares the solved potential against the
// contents' state-equation pressure and returns a damped feedback term,
// running the oscillation-damping state machine described in spec §4.1.
// Non-capacitive nodes never emit corrections.
func (n *Node) ComputePressureCorrection() float64 {
	if n.volume <= 0 {
		return 0
	}

	statePressure := n.contents.Pressure
	err := n.potential - statePressure

	if math.Abs(err) < correctionThreshold {
		return 0
	}

	newState := positiveCorrection
	if err < 0 {
		newState = negativeCorrection
	}

	if n.correctionState != noCorrection && newState != n.correctionState {
		n.correctionGain *= 0.5
	} else if n.correctionState != noCorrection {
		n.correctionGain = math.Min(n.correctionGain*correctionGainGrowth, correctionGainCap)
	}
	n.correctionState = newState

	return -n.volume * n.correctionGain * err * correctionScale
}

// ResetFlows clears the inflow shadow, heat accumulators, and sets
// previous-potential to the current potential, readying the node for the
// next major step's accumulation phase.
func (n *Node) ResetFlows() {
	n.previousPotential = n.potential
	n.inflow = fluid.State{Constituents: n.contents.Constituents, MassFractions: make([]float64, len(n.contents.MassFractions))}
	n.inflowWeight = 0
	n.collectedInflux = 0
	n.collectedOutflux = 0
	n.collectedHeat = 0
	n.scheduledOutflux = 0
	n.overflowing = false
	if n.traceCompound {
		for i := range n.traceInflux {
			n.traceInflux[i] = 0
		}
	}
}

// IntegrateFlows applies the per-step state update described in spec §4.7:
// determine overflow, then integrate mass/energy/composition for
// capacitive or non-capacitive nodes accordingly.
func (n *Node) IntegrateFlows(dt float64) error {
	if n.ground {
		n.previousPotential = n.potential
		return nil
	}

	n.overflowing = n.IsOverflowing(dt)
	n.previousTemperature = n.contents.Temperature

	switch {
	case n.volume > 0 && !n.overflowing:
		n.integrateCapacitiveNormal(dt)
	case n.volume > 0 && n.overflowing:
		n.integrateCapacitiveOverflow()
	default:
		n.integrateNonCapacitive()
	}

	n.contents.NormalizeFractions()
	if n.traceCompound {
		normalizeInPlace(n.traceFractions)
	}
	n.previousPotential = n.potential

	return n.contents.Validate()
}

func (n *Node) integrateCapacitiveNormal(dt float64) {
	added := n.collectedInflux * dt
	removed := n.collectedOutflux * dt

	oldMass := n.contents.Mass
	remaining := oldMass - removed
	if remaining < 0 {
		remaining = 0
	}
	newMass := remaining + added
	if newMass < massFloor {
		newMass = massFloor
	}

	n.contents = fluid.Mix(n.contents, remaining, n.inflow, added)
	n.contents.Mass = newMass

	// Energy balance: fluid.Mix already advected temperature in proportion
	// to mass, so only the net heat flux collected this step (collectedHeat,
	// W) remains to fold in, damped by the mixture's heat capacity.
	if cv := n.contents.SpecificHeatCv(); cv > 0 {
		n.contents.Temperature += n.collectedHeat * dt / (newMass * cv)
	}

	if n.volume > 0 {
		n.contents.Density = n.contents.Mass / n.volume
	}

	mw := n.contents.MolarMass()
	if mw > 0 {
		impliedDensity := fluid.IdealGasDensity(n.potential, n.contents.Temperature, mw)
		impliedMass := impliedDensity * n.volume
		n.massError = newMass - impliedMass
		n.contents.Pressure = n.potential
	}

	n.outflow = n.contents
}

func (n *Node) integrateCapacitiveOverflow() {
	n.contents = n.inflow
	if n.contents.Mass < massFloor {
		n.contents.Mass = massFloor
	}
	n.outflow = n.inflow
}

func (n *Node) integrateNonCapacitive() {
	n.contents = n.inflow
	n.contents.Mass = 0
	// advection in == advection out for a zero-capacitance node; only
	// externally injected heat (already isolated in collectedHeat by the
	// caller's accounting) affects net heat flux, so nothing further to do
	// here beyond taking on the inflow composition and temperature.
	n.outflow = n.contents
}

func normalizeInPlace(fractions []float64) {
	sum := 0.0
	for _, f := range fractions {
		sum += f
	}
	if sum <= 0 {
		return
	}
	for i := range fractions {
		fractions[i] /= sum
	}
}

// MassError returns the discrepancy between measured and state-equation-
// implied mass recorded during the last IntegrateFlows call. It is reported
// only: ComputePressureCorrection does not read it and works from the
// potential/state-pressure difference alone.
func (n *Node) MassError() float64 { return n.massError }

// Overflowing reports the overflow flag computed during the most recent
// IsOverflowing/IntegrateFlows call.
func (n *Node) Overflowing() bool { return n.overflowing }
