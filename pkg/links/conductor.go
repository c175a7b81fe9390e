// Package links implements the concrete link types: Conductor (a fixed- or
// variable-conductance two-port), Potential (a pressure/voltage source),
// MultiInputSupply (a selectable multi-input supply with REJECT-driven
// reconfiguration), and Fan (a pressure-rise device solved from a
// performance-curve root).
package links

import (
	"math"

	"github.com/nasa-gunns/gunns-go/pkg/gunnserr"
	"github.com/nasa-gunns/gunns-go/pkg/link"
	"github.com/nasa-gunns/gunns-go/pkg/node"
)

// minLinearizationPotential floors |deltaP| before computing conductance
// from mdot, per spec §4.2's admittance linearization, to avoid division
// collapse as flow approaches zero.
const minLinearizationPotential = 1.0e-6

// ConductorConfig configures a Conductor link.
type ConductorConfig struct {
	Name        string
	Ports       [2]int // [0]=port A, [1]=port B
	Conductance float64 // molar conductance, G
	Exponent    float64 // x in flux = G * |deltaP|^x (density is not applied); defaults to 0.5 if 0
}

// Conductor is a linear or power-law two-port pressure-flow link, grounded
// on the teacher's Resistor (pkg/device/resistor.go) generalized from a
// fixed G = 1/R stamp to the gas-network momentum-equation admittance
// linearization of spec §4.2.
type Conductor struct {
	link.BaseLink
	conductance float64
	exponent    float64
	flux        float64 // molar flow, mol/s, positive port0->port1
	flowRate    float64 // mass flow, kg/s
	power       float64 // W
	potentialDrop float64
}

// NewConductor initializes a Conductor against the given node slice (the
// ground node is whichever node is flagged Ground; nodeCount is the node
// list length including ground). Fails if the exponent is outside [1/2, 1]
// or a port is invalid.
func NewConductor(cfg ConductorConfig, nodes []*node.Node, nodeCount int) (*Conductor, error) {
	exponent := cfg.Exponent
	if exponent == 0 {
		exponent = 0.5
	}
	if exponent < 0.5 || exponent > 1.0 {
		return nil, gunnserr.NewInitError(cfg.Name, "flow exponent out of [0.5, 1] range", exponent)
	}
	ports := []int{cfg.Ports[0], cfg.Ports[1]}
	base, err := link.InitBase(cfg.Name, false, ports, portNodes(nodes, ports), nodeCount, false)
	if err != nil {
		return nil, err
	}
	return &Conductor{BaseLink: base, conductance: cfg.Conductance, exponent: exponent}, nil
}

func portNodes(nodes []*node.Node, ports []int) []*node.Node {
	out := make([]*node.Node, len(ports))
	for i, p := range ports {
		if p >= 0 && p < len(nodes) {
			out[i] = nodes[p]
		}
	}
	return out
}

// IsNonLinear reports false for a fixed-exponent conductor: the stamped
// conductance is recomputed every step from instantaneous potentials (a
// "linear per step" relinearization), but the link never returns REJECT/
// DELAY, so the minor-step controller treats it as always-confirming.
func (c *Conductor) IsNonLinear() bool { return false }

// Step recomputes the admittance stamp from the current potential
// difference using the power-law linearization of spec §4.2, and sets the
// update flag iff the stamp differs materially from the previous one.
func (c *Conductor) Step(dt float64) error {
	prior := append([]float64(nil), c.AdmittanceMatrix()...)
	c.ClearStamp()

	a, b := c.NodeAt(0), c.NodeAt(1)
	deltaP := a.Potential() - b.Potential()
	c.potentialDrop = deltaP

	g := c.conductance
	if c.exponent != 1.0 {
		absP := math.Abs(deltaP)
		if absP < minLinearizationPotential {
			absP = minLinearizationPotential
		}
		g = c.conductance * math.Pow(absP, c.exponent-1.0)
	}

	switch {
	case a.IsGround():
		c.StampToGround(1, g)
	case b.IsGround():
		c.StampToGround(0, g)
	default:
		c.StampSymmetric(0, 1, g)
	}

	if !admittanceEqual(prior, c.AdmittanceMatrix()) {
		c.MarkUpdated()
	}
	return nil
}

func admittanceEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-12 {
			return false
		}
	}
	return true
}

// MinorStep re-runs Step; a fixed conductor has no additional nonlinear
// state to iterate.
func (c *Conductor) MinorStep(dt float64, iterationIndex int) error { return c.Step(dt) }

// ConfirmSolutionAcceptable always confirms: a conductor is linear and
// never votes REJECT/DELAY.
func (c *Conductor) ConfirmSolutionAcceptable(convergedStep, absoluteStep int) link.Vote {
	return link.Confirm
}

// ComputeFlows derives flux/flow-rate/power and pre-declares the scheduled
// outflux on whichever port is upstream, without moving mass.
func (c *Conductor) ComputeFlows(dt float64) error {
	a, b := c.NodeAt(0), c.NodeAt(1)

	m := c.AdmittanceMatrix()
	g := m[0] // diagonal at port 0 carries the effective conductance
	if a.IsGround() {
		g = m[3] // port 0 grounded: only port 1's diagonal was stamped
	}
	deltaP := a.Potential() - b.Potential()
	c.flux = g * deltaP
	if c.flux == 0 {
		c.SetDirection(0, link.None)
		c.SetDirection(1, link.None)
		return nil
	}

	source, sink := a, b
	srcPort, sinkPort := 0, 1
	flux := c.flux
	if flux < 0 {
		source, sink = b, a
		srcPort, sinkPort = 1, 0
		flux = -flux
	}
	c.SetDirection(srcPort, link.Source)
	c.SetDirection(sinkPort, link.Sink)

	mw := source.Contents().MolarMass()
	if mw <= 0 {
		mw = sink.Contents().MolarMass()
	}
	c.flowRate = flux * mw
	c.power = c.flowRate * math.Abs(deltaP)

	if !source.IsGround() {
		source.ScheduleOutflux(flux)
	}
	return nil
}

// TransportFlows moves the computed mass/molar flow from the upstream
// port's outflow shadow into the downstream port's inflow accumulator.
func (c *Conductor) TransportFlows(dt float64) error {
	dirs := c.PortDirections()
	var source, sink *node.Node
	for i, d := range dirs {
		switch d {
		case link.Source:
			source = c.NodeAt(i)
		case link.Sink:
			sink = c.NodeAt(i)
		}
	}
	if source == nil || sink == nil {
		return nil
	}

	massRate := c.flowRate
	if !source.IsGround() {
		source.CollectOutflux(massRate)
	}
	if !sink.IsGround() {
		outflow := source.Outflow()
		if outflow.Mass <= 0 {
			outflow = source.Contents()
		}
		sink.CollectInflux(massRate, outflow, 0)
	}
	return nil
}

// CheckSpecificPortRules enforces that neither port maps to a node whose
// fluid phase disagrees with the other, per the "gas only" rule family of
// spec §6.
func (c *Conductor) CheckSpecificPortRules(port int, n *node.Node) bool {
	other := c.NodeAt(1 - port)
	if other == nil || other.IsGround() || n.IsGround() {
		return true
	}
	return n.Contents().Phase == other.Contents().Phase
}

// PotentialDrop returns the most recently computed port0-to-port1 pressure
// or voltage drop.
func (c *Conductor) PotentialDrop() float64 { return c.potentialDrop }

// Flux returns the most recently computed molar flow rate.
func (c *Conductor) Flux() float64 { return c.flux }

// FlowRate returns the most recently computed mass flow rate.
func (c *Conductor) FlowRate() float64 { return c.flowRate }

// Power returns the most recently computed power dissipation.
func (c *Conductor) Power() float64 { return c.power }

var _ link.Link = (*Conductor)(nil)
