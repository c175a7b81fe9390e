package links

import (
	"math"

	"github.com/nasa-gunns/gunns-go/pkg/fluid"
	"github.com/nasa-gunns/gunns-go/pkg/gunnserr"
	"github.com/nasa-gunns/gunns-go/pkg/link"
	"github.com/nasa-gunns/gunns-go/pkg/node"
	"github.com/nasa-gunns/gunns-go/pkg/notify"
	"github.com/nasa-gunns/gunns-go/pkg/rootfind"
)

// FanConfig configures a Fan link.
type FanConfig struct {
	Name                string
	Ports               [2]int // [0]=inlet, [1]=outlet
	MaxConductivity     float64
	ExpansionScale      float64
	ReferenceDensity    float64
	ReferenceCoeffs     [6]float64 // performance curve, lowest order first (kPa vs m3/s)
	ReferenceQMax       float64    // upper bound for the curve-root search, m3/s
	FilterGain          float64    // (0,1]: system-curve estimate low-pass filter, spec §9 open question
	Notify              *notify.Channel
}

// Fan is a pressure-rise device whose source pressure is found each step by
// intersecting its performance curve against an estimated system curve,
// grounded on original_source/aspects/fluid/potential/GunnsGasFan.cpp
// (computeSourcePressure), with the root itself found via pkg/rootfind
// (Laguerre with Brent fallback) rather than the source's bespoke curve
// object. The unstable feedback between fan pressure and flow rate is
// damped by a first-order filter on the system-curve estimate; per spec §9
// this filter's tuning is an empirical approximation with no stability
// proof, preserved as-is.
type Fan struct {
	link.BaseLink
	cfg FanConfig

	speedFraction float64 // (impeller speed / reference speed), caller-set via SetSpeedFraction
	systemConstant float64
	sourceQ        float64
	sourcePressure float64
	flux           float64
	flowRate       float64
	power          float64
}

// NewFan initializes a Fan link. Fails if reference density, the dead-head
// coefficient, or reference Q max are non-positive.
func NewFan(cfg FanConfig, nodes []*node.Node, nodeCount int) (*Fan, error) {
	if cfg.ReferenceDensity <= 0 {
		return nil, gunnserr.NewInitError(cfg.Name, "reference density must be > 0", cfg.ReferenceDensity)
	}
	if cfg.ReferenceCoeffs[0] <= 0 {
		return nil, gunnserr.NewInitError(cfg.Name, "reference dead-head coefficient must be > 0", cfg.ReferenceCoeffs[0])
	}
	if cfg.ReferenceQMax <= 0 {
		return nil, gunnserr.NewInitError(cfg.Name, "reference Q max must be > 0", cfg.ReferenceQMax)
	}
	ports := []int{cfg.Ports[0], cfg.Ports[1]}
	base, err := link.InitBase(cfg.Name, false, ports, portNodes(nodes, ports), nodeCount, false)
	if err != nil {
		return nil, err
	}
	f := &Fan{BaseLink: base, cfg: cfg}
	f.systemConstant = math.Sqrt(cfg.ReferenceQMax) / math.Sqrt(cfg.ReferenceCoeffs[0])
	return f, nil
}

// SetSpeedFraction sets the impeller speed as a fraction of reference
// speed (0 stops the fan).
func (f *Fan) SetSpeedFraction(frac float64) { f.speedFraction = frac }

func (f *Fan) IsNonLinear() bool { return false }

// Step recomputes the source pressure from the current flow estimate and
// stamps it as a potential source between the two ports, analogous to
// Potential's large-admittance stamp but with a dynamically solved
// sourcePressure.
func (f *Fan) Step(dt float64) error {
	f.ClearStamp()
	f.computeSourcePressure()

	f.StampSymmetric(0, 1, defaultSourceConductance)
	f.StampSource(0, -defaultSourceConductance*f.sourcePressure)
	f.StampSource(1, defaultSourceConductance*f.sourcePressure)
	f.MarkUpdated()
	return nil
}

func (f *Fan) MinorStep(dt float64, iterationIndex int) error { return f.Step(dt) }

func (f *Fan) ConfirmSolutionAcceptable(convergedStep, absoluteStep int) link.Vote {
	return link.Confirm
}

// computeSourcePressure estimates the system curve from the last-pass flow
// and pressure, filters it, and finds the fan/system curve intersection
// via Laguerre's method falling back to Brent's, per spec scenario 5.
func (f *Fan) computeSourcePressure() {
	if f.speedFraction <= 0 {
		f.sourcePressure = 0
		return
	}
	inlet := f.sourceNode()
	density := inlet.Contents().Density
	if density <= 0 {
		f.sourcePressure = 0
		return
	}

	densityFactor := density / f.cfg.ReferenceDensity
	affinity := [6]float64{}
	for order := 0; order < 6; order++ {
		affinity[order] = f.cfg.ReferenceCoeffs[order] * densityFactor * math.Pow(f.speedFraction, 2.0-float64(order))
	}

	deadhead := affinity[0]
	if deadhead < 1e-300 {
		deadhead = 1e-300
	}
	clampedPressure := f.sourcePressure
	if clampedPressure < 1e-12 {
		clampedPressure = 1e-12
	}
	if clampedPressure > deadhead {
		clampedPressure = deadhead
	}
	gSys := math.Max(f.cfg.ReferenceQMax*f.speedFraction*0.0001, f.flux) / math.Sqrt(clampedPressure)
	f.systemConstant = f.cfg.FilterGain*gSys + (1.0-f.cfg.FilterGain)*f.systemConstant

	coeffs := affinity
	if f.systemConstant > 1e-12 {
		coeffs[2] -= 1.0 / (f.systemConstant * f.systemConstant)
	}

	root, err := f.solveCurveRoot(coeffs[:])
	if err != nil {
		if f.cfg.Notify != nil {
			f.cfg.Notify.Warn(f.Name(), "fan/system curve intersection not found: "+err.Error())
		}
		return
	}
	f.sourceQ = root

	p := 0.0
	for i := len(affinity) - 1; i >= 0; i-- {
		p = p*f.sourceQ + affinity[i]
	}
	if p < 0 {
		p = 0
	}
	f.sourcePressure = p
}

func (f *Fan) solveCurveRoot(coeffs []float64) (float64, error) {
	complexCoeffs := make([]complex128, len(coeffs))
	for i, c := range coeffs {
		complexCoeffs[i] = complex(c, 0)
	}
	seed := f.sourceQ
	if seed <= 0 {
		seed = f.cfg.ReferenceQMax * 0.1
	}
	root, _, err := rootfind.LaguerreSolve(complex(seed, 0), complexCoeffs)
	if err == nil && math.Abs(imag(root)) < 1e-9 && real(root) >= 0 && real(root) <= f.cfg.ReferenceQMax {
		return real(root), nil
	}

	evalAt := func(q float64) float64 {
		v := 0.0
		for i := len(coeffs) - 1; i >= 0; i-- {
			v = v*q + coeffs[i]
		}
		return v
	}
	realRoot, _, brentErr := rootfind.BrentSolve(evalAt, 0, f.cfg.ReferenceQMax, 1e-9)
	return realRoot, brentErr
}

func (f *Fan) sourceNode() *node.Node {
	if f.flux >= 0 {
		return f.NodeAt(0)
	}
	return f.NodeAt(1)
}

func (f *Fan) ComputeFlows(dt float64) error {
	a, b := f.NodeAt(0), f.NodeAt(1)
	g := f.AdmittanceMatrix()[0]
	deltaP := a.Potential() - b.Potential() + f.sourcePressure
	f.flux = g * deltaP

	source := a
	srcPort, sinkPort := 0, 1
	flux := f.flux
	if flux < 0 {
		source = b
		srcPort, sinkPort = 1, 0
		flux = -flux
	}
	if flux == 0 {
		f.SetDirection(0, link.None)
		f.SetDirection(1, link.None)
		return nil
	}
	f.SetDirection(srcPort, link.Source)
	f.SetDirection(sinkPort, link.Sink)

	mw := source.Contents().MolarMass()
	f.flowRate = flux * mw
	f.power = f.flowRate * math.Abs(f.sourcePressure)
	if !source.IsGround() {
		source.ScheduleOutflux(flux)
	}
	return nil
}

func (f *Fan) TransportFlows(dt float64) error {
	dirs := f.PortDirections()
	var source, sink *node.Node
	for i, d := range dirs {
		switch d {
		case link.Source:
			source = f.NodeAt(i)
		case link.Sink:
			sink = f.NodeAt(i)
		}
	}
	if source == nil || sink == nil {
		return nil
	}
	flux := f.flux
	if flux < 0 {
		flux = -flux
	}
	if !source.IsGround() {
		source.CollectOutflux(f.flowRate)
	}
	if !sink.IsGround() {
		out := source.Outflow()
		if out.Mass <= 0 {
			out = source.Contents()
		}
		if f.cfg.ExpansionScale > 0 {
			gamma := dominantGamma(out)
			out.Temperature = fluid.IsentropicExpansionTemperature(out.Temperature, source.Potential(), sink.Potential(), gamma, f.cfg.ExpansionScale)
		}
		sink.CollectInflux(f.flowRate, out, 0)
	}
	return nil
}

func (f *Fan) CheckSpecificPortRules(port int, n *node.Node) bool {
	other := f.NodeAt(1 - port)
	if other == nil || other.IsGround() || n.IsGround() {
		return true
	}
	return n.Contents().Phase == other.Contents().Phase
}

func (f *Fan) SourcePressure() float64 { return f.sourcePressure }
func (f *Fan) Flux() float64           { return f.flux }
func (f *Fan) FlowRate() float64       { return f.flowRate }
func (f *Fan) Power() float64          { return f.power }

var _ link.Link = (*Fan)(nil)
