// Package link defines the contract every network component stamping into
// the global admittance system must satisfy (spec §3 Link, §4.2, §6), plus
// a BaseLink helper carrying the port/blockage bookkeeping shared by every
// concrete link in pkg/links.
package link

import (
	"github.com/nasa-gunns/gunns-go/pkg/gunnserr"
	"github.com/nasa-gunns/gunns-go/pkg/node"
)

// Vote is a nonlinear link's answer to confirmSolutionAcceptable.
type Vote int

const (
	Confirm Vote = iota
	Reject
	Delay
)

func (v Vote) String() string {
	switch v {
	case Confirm:
		return "CONFIRM"
	case Reject:
		return "REJECT"
	case Delay:
		return "DELAY"
	default:
		return "UNKNOWN"
	}
}

// PortDirection records which way fluid/charge is flowing at a port this
// step, used by the orchestrator's readiness rule.
type PortDirection int

const (
	None PortDirection = iota
	Source
	Sink
	Both
)

// Link is the contract the core (assembler, minor-step controller, flow
// orchestrator) drives every network component through. Concrete link
// types embed BaseLink and implement IsNonLinear/Step/MinorStep/
// ConfirmSolutionAcceptable/ComputeFlows/TransportFlows/
// CheckSpecificPortRules themselves; BaseLink supplies the rest.
type Link interface {
	Name() string
	IsNonLinear() bool

	Step(dt float64) error
	MinorStep(dt float64, iterationIndex int) error
	ConfirmSolutionAcceptable(convergedStep, absoluteStep int) Vote

	ComputeFlows(dt float64) error
	TransportFlows(dt float64) error

	CheckSpecificPortRules(port int, n *node.Node) bool

	AdmittanceMatrix() []float64
	SourceVector() []float64
	PortDirections() []PortDirection
	NodeMap() []int

	AdmittanceUpdate() bool
}

// BaseLink is embedded by every concrete link. It owns the port map, the
// local admittance matrix/source vector (row-major, len(ports)^2 and
// len(ports) respectively), port directions, the blockage malfunction, and
// the admittance-update flag the assembler reads. The assembler does not
// clear the flag; ClearStamp resets it at the top of each Step.
//
// Per design note §9, links hold only a weak reference (index) to each
// node; the network itself owns the *node.Node slice. BaseLink stores the
// resolved *node.Node pointers for the ports it was initialized against so
// concrete links can read potentials/contents without the network having
// to re-resolve them every step.
type BaseLink struct {
	name       string
	nonLinear  bool
	ports      []int
	nodes      []*node.Node
	admittance []float64
	source     []float64
	directions []PortDirection
	blockage   float64 // 0 (no derating) to 1 (fully blocked)
	update     bool
	initialized bool
}

// InitBase validates the port list against nodeCount and the link's
// duplicate-port policy, then allocates the local matrix/vector storage.
// Fails with an InitError if any port is out of range, or ports duplicate
// when duplicates are disallowed.
func InitBase(name string, nonLinear bool, ports []int, nodes []*node.Node, nodeCount int, allowDuplicatePorts bool) (BaseLink, error) {
	seen := make(map[int]bool, len(ports))
	for _, p := range ports {
		if p < 0 || p >= nodeCount {
			return BaseLink{}, gunnserr.NewInitError(name, "port index out of range", p)
		}
		if seen[p] && !allowDuplicatePorts {
			return BaseLink{}, gunnserr.NewInitError(name, "duplicate port not allowed for this link type", p)
		}
		seen[p] = true
	}
	n := len(ports)
	return BaseLink{
		name:        name,
		nonLinear:   nonLinear,
		ports:       append([]int(nil), ports...),
		nodes:       append([]*node.Node(nil), nodes...),
		admittance:  make([]float64, n*n),
		source:      make([]float64, n),
		directions:  make([]PortDirection, n),
		blockage:    0,
		initialized: true,
	}, nil
}

func (b *BaseLink) Name() string       { return b.name }
func (b *BaseLink) IsNonLinear() bool  { return b.nonLinear }
func (b *BaseLink) Initialized() bool  { return b.initialized }
func (b *BaseLink) NumPorts() int      { return len(b.ports) }
func (b *BaseLink) Port(i int) int     { return b.ports[i] }
func (b *BaseLink) NodeAt(i int) *node.Node { return b.nodes[i] }

func (b *BaseLink) NodeMap() []int { return b.ports }

func (b *BaseLink) AdmittanceMatrix() []float64 { return b.admittance }

func (b *BaseLink) SourceVector() []float64 { return b.source }

func (b *BaseLink) PortDirections() []PortDirection { return b.directions }

func (b *BaseLink) AdmittanceUpdate() bool { return b.update }

// Blockage returns the current blockage malfunction fraction, 0 (none) to
// 1 (fully blocked). Concrete links multiply their stamped conductance by
// (1 - Blockage()).
func (b *BaseLink) Blockage() float64 { return b.blockage }

// SetBlockage sets the blockage malfunction, clamped to [0, 1].
func (b *BaseLink) SetBlockage(f float64) {
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	b.blockage = f
}

// SetDirection records port i's flow direction for this step.
func (b *BaseLink) SetDirection(i int, d PortDirection) { b.directions[i] = d }

// StampSymmetric writes a symmetric conductance g between local ports i and
// j (i != j): subtracts from the off-diagonals and adds to both diagonals,
// preserving the admittance invariant (row sums zero, matrix symmetric).
// StampSymmetric applies (1 - blockage) automatically.
func (b *BaseLink) StampSymmetric(i, j int, g float64) {
	g *= 1 - b.blockage
	n := len(b.ports)
	b.admittance[i*n+i] += g
	b.admittance[j*n+j] += g
	b.admittance[i*n+j] -= g
	b.admittance[j*n+i] -= g
}

// StampToGround writes a conductance g from local port i to an implicit
// ground reference (used when the other port of a two-port link is the
// network ground and so has no row/column of its own).
func (b *BaseLink) StampToGround(i int, g float64) {
	g *= 1 - b.blockage
	n := len(b.ports)
	b.admittance[i*n+i] += g
}

// StampSource adds to the local source vector at port i.
func (b *BaseLink) StampSource(i int, value float64) {
	b.source[i] += value
}

// ClearStamp zeroes the admittance matrix and source vector before a link
// recomputes its stamp in Step, and resets the update flag. Concrete links
// call this at the top of Step.
func (b *BaseLink) ClearStamp() {
	for i := range b.admittance {
		b.admittance[i] = 0
	}
	for i := range b.source {
		b.source[i] = 0
	}
	b.update = false
}

// MarkUpdated records that this step's stamp differs from the previous
// one; the assembler checks AdmittanceUpdate() to decide whether to clear
// and restamp the global system.
func (b *BaseLink) MarkUpdated() { b.update = true }
