package links

import (
	"github.com/nasa-gunns/gunns-go/pkg/fluid"
	"github.com/nasa-gunns/gunns-go/pkg/gunnserr"
	"github.com/nasa-gunns/gunns-go/pkg/link"
	"github.com/nasa-gunns/gunns-go/pkg/node"
)

// defaultSourceConductance is the large admittance used to pin a Potential
// link's node near its configured source value, grounded on the teacher's
// ideal DC voltage source (ported from a branch-current MNA stamp to a
// large-admittance stamp since the network carries no branch unknowns).
const defaultSourceConductance = 1.0e8

// PotentialConfig configures a Potential link.
type PotentialConfig struct {
	Name              string
	Port              int // the single node this link drives
	SourcePotential   float64
	ExpansionScale    float64 // [0,1]; isentropic cooling scale for gas sources, spec §4.2
	SourceConductance float64 // overrides defaultSourceConductance if nonzero
}

// Potential is a single-port ideal potential (pressure or voltage) source,
// grounded on the teacher's VoltageSource (pkg/device/vsource.go) but
// generalized from a branch-current MNA stamp to a large-admittance stamp
// to a fixed reference, matching the admittance-only network model of spec
// §3.
type Potential struct {
	link.BaseLink
	sourcePotential float64
	expansionScale  float64
	conductance     float64
	flux            float64
	flowRate        float64
}

// NewPotential initializes a Potential link. Port 0 of a potential
// reference link may not be ground (spec §6 boundary rule).
func NewPotential(cfg PotentialConfig, nodes []*node.Node, nodeCount int) (*Potential, error) {
	ports := []int{cfg.Port}
	base, err := link.InitBase(cfg.Name, false, ports, portNodes(nodes, ports), nodeCount, false)
	if err != nil {
		return nil, err
	}
	if base.NodeAt(0).IsGround() {
		return nil, gunnserr.NewInitError(cfg.Name, "potential reference port may not be ground", cfg.Port)
	}
	g := cfg.SourceConductance
	if g == 0 {
		g = defaultSourceConductance
	}
	return &Potential{
		BaseLink:        base,
		sourcePotential: cfg.SourcePotential,
		expansionScale:  cfg.ExpansionScale,
		conductance:     g,
	}, nil
}

func (p *Potential) IsNonLinear() bool { return false }

// SetSourcePotential updates the driven potential (e.g. a switchable supply
// rail); takes effect on the next Step.
func (p *Potential) SetSourcePotential(v float64) { p.sourcePotential = v }

func (p *Potential) SourcePotential() float64 { return p.sourcePotential }

func (p *Potential) Step(dt float64) error {
	p.ClearStamp()
	p.StampToGround(0, p.conductance)
	p.StampSource(0, p.conductance*p.sourcePotential)
	p.MarkUpdated()
	return nil
}

func (p *Potential) MinorStep(dt float64, iterationIndex int) error { return p.Step(dt) }

func (p *Potential) ConfirmSolutionAcceptable(convergedStep, absoluteStep int) link.Vote {
	return link.Confirm
}

// ComputeFlows derives the molar/mass flow driven into the node from the
// potential mismatch between the ideal source and the solved node
// potential. The isentropic expansion temperature drop (if ExpansionScale
// is configured) is applied later, in TransportFlows.
func (p *Potential) ComputeFlows(dt float64) error {
	n := p.NodeAt(0)
	deltaP := p.sourcePotential - n.Potential()
	p.flux = p.conductance * deltaP

	if p.flux > 0 {
		p.SetDirection(0, link.Sink)
	} else if p.flux < 0 {
		p.SetDirection(0, link.Source)
		n.ScheduleOutflux(-p.flux)
	} else {
		p.SetDirection(0, link.None)
	}

	mw := n.Contents().MolarMass()
	p.flowRate = p.flux * mw
	return nil
}

func (p *Potential) TransportFlows(dt float64) error {
	n := p.NodeAt(0)
	switch p.PortDirections()[0] {
	case link.Sink:
		in := n.Contents()
		if p.expansionScale > 0 {
			gamma := dominantGamma(in)
			in.Temperature = fluid.IsentropicExpansionTemperature(in.Temperature, p.sourcePotential, n.Potential(), gamma, p.expansionScale)
		}
		n.CollectInflux(p.flowRate, in, 0)
	case link.Source:
		n.CollectOutflux(-p.flowRate)
	}
	return nil
}

func dominantGamma(s fluid.State) float64 {
	gamma := 1.4
	best := 0.0
	for i, c := range s.Constituents {
		if i < len(s.MassFractions) && s.MassFractions[i] > best && c.GammaRatio > 0 {
			best = s.MassFractions[i]
			gamma = c.GammaRatio
		}
	}
	return gamma
}

func (p *Potential) CheckSpecificPortRules(port int, n *node.Node) bool {
	return !n.IsGround()
}

func (p *Potential) Flux() float64     { return p.flux }
func (p *Potential) FlowRate() float64 { return p.flowRate }

var _ link.Link = (*Potential)(nil)
