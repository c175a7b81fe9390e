// Package netcap implements the network-capacitance probe: a calibration
// pass that pulses each capacitive node with a small known molar flux,
// re-solves the admittance system, and reads back the node's effective
// capacitance from the resulting potential perturbation (dQ/dP). This
// supplements spec.md, which names "Network-Capacitance Probe" only in its
// component table without detailing an algorithm; the estimator here
// generalizes the capacitance-sensitivity pattern implied by the node's own
// computeThermalCapacitance/computeCompression terms (spec §4.1) to
// arbitrary network topology, rather than requiring each link to expose an
// analytic capacitance contribution.
package netcap

import (
	"github.com/nasa-gunns/gunns-go/pkg/assembler"
	"github.com/nasa-gunns/gunns-go/pkg/node"
)

// defaultPulseFlux is the molar flux (mol/s-equivalent) used to perturb a
// node during probing. Small enough not to disturb a converged solution's
// linearization, large enough to stay well above solver residual noise.
const defaultPulseFlux = 1.0e-6

// Prober estimates nodal network capacitance by pulsing one node at a time.
type Prober struct {
	pulseFlux float64
}

// New constructs a Prober. A non-positive pulseFlux falls back to the
// default.
func New(pulseFlux float64) *Prober {
	if pulseFlux <= 0 {
		pulseFlux = defaultPulseFlux
	}
	return &Prober{pulseFlux: pulseFlux}
}

// Estimate probes every non-ground node in nodes: it records the node's
// current (converged) potential, stamps a source pulse, re-solves, derives
// capacitance from the potential shift, writes it back via
// node.SetCapacitance, then un-stamps the pulse and re-solves again to
// restore the network to its pre-probe state. Nodes whose potential does
// not move under the pulse (e.g. a node pinned by a Potential link) are
// left with their previously configured capacitance.
func (p *Prober) Estimate(asm *assembler.Assembler, nodes []*node.Node) error {
	for _, n := range nodes {
		if n.IsGround() {
			continue
		}

		basePotential := n.Potential()

		n.SetNetworkCapacitanceRequest(p.pulseFlux)
		asm.StampNodeSource(n, p.pulseFlux)
		if err := asm.Solve(); err != nil {
			return err
		}
		perturbed := n.Potential()

		asm.StampNodeSource(n, -p.pulseFlux)
		if err := asm.Solve(); err != nil {
			return err
		}
		n.SetNetworkCapacitanceRequest(0)

		deltaP := perturbed - basePotential
		if deltaP != 0 {
			n.SetCapacitance(p.pulseFlux / deltaP)
		}
	}
	return nil
}
