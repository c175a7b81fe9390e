package links

import (
	"github.com/nasa-gunns/gunns-go/pkg/gunnserr"
	"github.com/nasa-gunns/gunns-go/pkg/link"
	"github.com/nasa-gunns/gunns-go/pkg/node"
)

// invalidSource marks "no input selected".
const invalidSource = -1

// MultiInputSupplyConfig configures a MultiInputSupply link.
type MultiInputSupplyConfig struct {
	Name                string
	Ports               []int // one port per candidate input
	PowerConsumed       float64
	UnderVoltageLimit   float64
	BackupVoltageThresh float64 // a source above this is preferred outright
	PotentialTolerance  float64 // margin by which a later input must exceed the best earlier input (in port order) to be chosen
	CommandOnUsed       bool
	MaxSwitchesPerStep  int // bound on REJECTs from input-switching per major step, spec §4.2
	UnselectedConductance float64
}

// MultiInputSupply is a nonlinear link that selects one of N input ports to
// draw power from, rejecting the solution whenever it switches inputs so
// the minor-step controller re-solves with the new stamp. Grounded on
// original_source/aspects/electrical/IPS/GunnsElectIps.cpp, simplified to
// the single-tier (no backup-source) selection rule exercised by spec
// scenario 2.
type MultiInputSupply struct {
	link.BaseLink
	cfg MultiInputSupplyConfig

	commandOn     bool
	activeSource  int
	lastActive    int
	switches      int
	conductance   []float64
	malfDisabled  []bool

	flux  float64
	power float64
}

// NewMultiInputSupply initializes a MultiInputSupply. Fails if fewer than
// one port is given.
func NewMultiInputSupply(cfg MultiInputSupplyConfig, nodes []*node.Node, nodeCount int) (*MultiInputSupply, error) {
	if len(cfg.Ports) < 1 {
		return nil, gunnserr.NewInitError(cfg.Name, "multi-input supply requires at least one port", len(cfg.Ports))
	}
	base, err := link.InitBase(cfg.Name, true, cfg.Ports, portNodes(nodes, cfg.Ports), nodeCount, false)
	if err != nil {
		return nil, err
	}
	return &MultiInputSupply{
		BaseLink:     base,
		cfg:          cfg,
		activeSource: invalidSource,
		lastActive:   invalidSource,
		conductance:  make([]float64, len(cfg.Ports)),
		malfDisabled: make([]bool, len(cfg.Ports)),
	}, nil
}

func (s *MultiInputSupply) IsNonLinear() bool { return true }

// SetCommandOn toggles the commanded-on input; has effect only if the
// config enables command-on gating.
func (s *MultiInputSupply) SetCommandOn(on bool) { s.commandOn = on }

// SetInputDisabled applies or clears a power-input-failed malfunction on
// one candidate source.
func (s *MultiInputSupply) SetInputDisabled(index int, disabled bool) error {
	if index < 0 || index >= len(s.malfDisabled) {
		return gunnserr.NewBoundsError(s.Name(), "input index out of range", index)
	}
	s.malfDisabled[index] = disabled
	return nil
}

// ActiveSource returns the currently selected input index, or invalidSource
// if none is selected.
func (s *MultiInputSupply) ActiveSource() int { return s.activeSource }

func (s *MultiInputSupply) commandGatesOn() bool {
	return !s.cfg.CommandOnUsed || s.commandOn
}

// selectSource applies the single-tier selection rule: among enabled
// inputs at or above the under-voltage limit, pick the highest potential
// that exceeds the current choice by more than the hysteresis tolerance;
// a source above the backup threshold is preferred outright.
func (s *MultiInputSupply) selectSource() int {
	if !s.commandGatesOn() {
		return invalidSource
	}
	nodes := s.nodesForPorts()

	chosen := invalidSource
	chosenV := 0.0
	for i, n := range nodes {
		if s.malfDisabled[i] {
			continue
		}
		v := n.Potential()
		if v < s.cfg.UnderVoltageLimit {
			continue
		}
		if v > s.cfg.BackupVoltageThresh {
			return i
		}
		if chosen == invalidSource || v-chosenV > s.cfg.PotentialTolerance {
			chosen = i
			chosenV = v
		}
	}
	return chosen
}

func (s *MultiInputSupply) nodesForPorts() []*node.Node {
	out := make([]*node.Node, s.NumPorts())
	for i := range out {
		out[i] = s.NodeAt(i)
	}
	return out
}

// Step stamps the unselected-input leakage conductance on every port and
// the load conductance (power/V^2) on the active port.
func (s *MultiInputSupply) Step(dt float64) error {
	s.ClearStamp()
	changed := false
	for i := range s.conductance {
		g := s.cfg.UnselectedConductance
		changed = changed || s.conductance[i] != g
		s.conductance[i] = g
	}
	if s.activeSource != invalidSource {
		v := s.NodeAt(s.activeSource).Potential()
		if v > 1e-12 {
			g := s.cfg.PowerConsumed / (v * v)
			changed = changed || s.conductance[s.activeSource] != g
			s.conductance[s.activeSource] = g
		}
	}
	for i, g := range s.conductance {
		s.StampToGround(i, g)
	}
	if changed {
		s.MarkUpdated()
	}
	return nil
}

func (s *MultiInputSupply) MinorStep(dt float64, iterationIndex int) error { return s.Step(dt) }

// ConfirmSolutionAcceptable implements the selection/REJECT rule of spec
// §4.2's nonlinear confirmation algorithm: while convergedStep is 0 it
// confirms without reselecting; once convergedStep > 0 it reselects, and
// switching sources rejects the solution up to MaxSwitchesPerStep times.
func (s *MultiInputSupply) ConfirmSolutionAcceptable(convergedStep, absoluteStep int) link.Vote {
	if convergedStep <= 0 {
		return link.Confirm
	}
	s.lastActive = s.activeSource
	if s.switches < s.cfg.MaxSwitchesPerStep {
		s.activeSource = s.selectSource()
	}
	if s.activeSource == s.lastActive {
		return link.Confirm
	}
	s.switches++
	return link.Reject
}

// ComputeFlows derives total flux/power drawn from the active source.
func (s *MultiInputSupply) ComputeFlows(dt float64) error {
	totalFlux := 0.0
	totalPower := 0.0
	for i := range s.conductance {
		n := s.NodeAt(i)
		v := n.Potential()
		flux := v * s.conductance[i]
		totalFlux += flux
		totalPower += flux * v
		if flux > 0 {
			s.SetDirection(i, link.Source)
			if !n.IsGround() {
				n.ScheduleOutflux(flux)
			}
		} else {
			s.SetDirection(i, link.None)
		}
	}
	s.flux = totalFlux
	s.power = totalPower
	s.switches = 0
	return nil
}

// TransportFlows withdraws the computed flux from whichever ports sourced
// it this step.
func (s *MultiInputSupply) TransportFlows(dt float64) error {
	for i := range s.conductance {
		if s.PortDirections()[i] != link.Source {
			continue
		}
		n := s.NodeAt(i)
		v := n.Potential()
		if !n.IsGround() {
			n.CollectOutflux(v * s.conductance[i])
		}
	}
	return nil
}

// CheckSpecificPortRules: a multi-input supply may not connect any port to
// ground (every input must be a real source node).
func (s *MultiInputSupply) CheckSpecificPortRules(port int, n *node.Node) bool {
	return !n.IsGround()
}

func (s *MultiInputSupply) Flux() float64  { return s.flux }
func (s *MultiInputSupply) Power() float64 { return s.power }

var _ link.Link = (*MultiInputSupply)(nil)
