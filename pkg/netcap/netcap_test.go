package netcap

import (
	"testing"

	"github.com/nasa-gunns/gunns-go/pkg/assembler"
	"github.com/nasa-gunns/gunns-go/pkg/fluid"
	"github.com/nasa-gunns/gunns-go/pkg/link"
	"github.com/nasa-gunns/gunns-go/pkg/links"
	"github.com/nasa-gunns/gunns-go/pkg/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func air() fluid.State {
	return fluid.State{
		Phase:         fluid.Gas,
		Constituents:  []fluid.Constituent{{Name: "N2", MolarMW: 0.028}, {Name: "O2", MolarMW: 0.032}},
		MassFractions: []float64{0.79, 0.21},
		Density:       1.2,
		Temperature:   300,
		Pressure:      100,
	}
}

// groundedNetwork builds a single capacitive node A tied to ground through a
// conductor, so the assembled admittance system (one row: A) is
// non-singular and has a well-defined solution to perturb.
func groundedNetwork(t *testing.T) []*node.Node {
	t.Helper()
	a := node.New(node.Config{Name: "A", InitialState: air()})
	ground := node.New(node.Config{Name: "GND", Ground: true})
	require.NoError(t, a.InitVolume(0.01))
	a.SetPotential(124.5)
	return []*node.Node{a, ground}
}

func TestEstimateSetsPositiveCapacitanceAcrossAConductor(t *testing.T) {
	nodes := groundedNetwork(t)
	cond, err := links.NewConductor(links.ConductorConfig{Name: "cond1", Ports: [2]int{0, 1}, Conductance: 10, Exponent: 1.0}, nodes, 2)
	require.NoError(t, err)
	require.NoError(t, cond.Step(0.1))

	asm, err := assembler.New(nodes)
	require.NoError(t, err)
	asm.Assemble([]link.Link{cond})
	require.NoError(t, asm.Solve())

	prober := New(0)
	require.NoError(t, prober.Estimate(asm, nodes))

	assert.Greater(t, nodes[0].Capacitance(), 0.0)
}
