// Package network wires nodes, links, the assembler, the minor-step
// solver, the flow orchestrator, and the network-capacitance prober into
// the major-step protocol of spec §2: step every link, assemble and solve
// the admittance system, poll confirmations, transport and integrate
// flows, apply pressure correction, and reset for the next step.
//
// Adapts pkg/circuit/circuit.go's Circuit as the aggregate root, renamed
// to the network-solver vocabulary (New, Step, Solution) since the
// underlying model is a node/link flow network rather than a SPICE
// circuit graph.
package network

import (
	"fmt"

	"github.com/nasa-gunns/gunns-go/pkg/assembler"
	"github.com/nasa-gunns/gunns-go/pkg/link"
	"github.com/nasa-gunns/gunns-go/pkg/netcap"
	"github.com/nasa-gunns/gunns-go/pkg/node"
	"github.com/nasa-gunns/gunns-go/pkg/notify"
	"github.com/nasa-gunns/gunns-go/pkg/orchestrator"
	"github.com/nasa-gunns/gunns-go/pkg/solver"
)

// thermalProbeDeltaT is the finite-difference step used to numerically
// differentiate density with respect to temperature each major step.
const thermalProbeDeltaT = 0.1

// Config bounds the network's minor-step controller and optional
// diagnostics channel.
type Config struct {
	MaxMinorIterations int
	Notify             *notify.Channel

	// CapacitanceProbeInterval, if > 0, runs the network-capacitance probe
	// every that many major steps (0 disables it).
	CapacitanceProbeInterval int
}

// Network is the aggregate root: the fixed set of nodes and links that
// make up one simulated network, plus the solver machinery wired over
// them.
type Network struct {
	name  string
	nodes []*node.Node
	links []link.Link

	asm    *assembler.Assembler
	solver *solver.Controller
	orch   *orchestrator.Orchestrator
	prober *netcap.Prober
	notify *notify.Channel

	probeInterval int
	stepCount     int
}

// New builds a Network over nodes and links. nodes must include exactly
// one ground node (checked by netconfig.Validate before construction);
// links' NodeMap indices must resolve against nodes.
func New(name string, nodes []*node.Node, links []link.Link, cfg Config) (*Network, error) {
	asm, err := assembler.New(nodes)
	if err != nil {
		return nil, fmt.Errorf("network %q: %w", name, err)
	}

	n := &Network{
		name:          name,
		nodes:         nodes,
		links:         links,
		asm:           asm,
		orch:          orchestrator.New(links, nodes, cfg.Notify),
		prober:        netcap.New(0),
		notify:        cfg.Notify,
		probeInterval: cfg.CapacitanceProbeInterval,
	}

	n.solver = solver.New(solver.Config{
		MaxIterations:  cfg.MaxMinorIterations,
		Notify:         cfg.Notify,
		NodeSourceHook: n.stampNodeSources,
	})

	return n, nil
}

func (n *Network) Name() string { return n.name }

// Nodes returns the network's node slice, in registration order (ground
// last).
func (n *Network) Nodes() []*node.Node { return n.nodes }

// Links returns the network's link slice, in registration order.
func (n *Network) Links() []link.Link { return n.links }

// Solution returns the current potential of every node, in registration
// order.
func (n *Network) Solution() []float64 {
	out := make([]float64, len(n.nodes))
	for i, nd := range n.nodes {
		out[i] = nd.Potential()
	}
	return out
}

// Step advances the network by one major step of size dt: converge the
// minor-step loop, run the flow orchestrator's transport/integrate pass,
// apply each node's pressure correction for next step's source vector,
// then reset flow accumulators. Optionally runs the network-capacitance
// probe every probeInterval steps, restoring the solved state afterward.
func (n *Network) Step(dt float64) error {
	if _, err := n.solver.Run(n.asm, n.links, dt); err != nil {
		return fmt.Errorf("network %q: minor-step loop: %w", n.name, err)
	}

	if err := n.orch.Update(dt); err != nil {
		return fmt.Errorf("network %q: flow orchestrator: %w", n.name, err)
	}

	n.stepCount++
	if n.probeInterval > 0 && n.stepCount%n.probeInterval == 0 {
		if err := n.prober.Estimate(n.asm, n.nodes); err != nil {
			return fmt.Errorf("network %q: capacitance probe: %w", n.name, err)
		}
	}

	for _, nd := range n.nodes {
		nd.ResetFlows()
	}

	return nil
}

// stampNodeSources adds the per-node pressure-correction, thermal-
// capacitance, and compression source-vector contributions on top of
// whatever the links just stamped. Wired as the solver's NodeSourceHook so
// it runs exactly once per system rebuild rather than once per minor-step
// iteration.
func (n *Network) stampNodeSources(asm *assembler.Assembler) {
	for _, nd := range n.nodes {
		if nd.IsGround() {
			continue
		}
		asm.StampNodeSource(nd, nd.ComputePressureCorrection())
		asm.StampNodeSource(nd, nd.ComputeThermalCapacitance(thermalProbeDeltaT))
		asm.StampNodeSource(nd, nd.ComputeCompression())
	}
}

// Destroy releases the underlying sparse matrix resources.
func (n *Network) Destroy() {
	n.asm.Destroy()
}
