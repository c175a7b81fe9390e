package network

import (
	"testing"

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

// sourcedLoop builds node A (capacitive), pinned toward 150 by a Potential
// link, draining to ground through a Conductor. This exercises the full
// major-step protocol: a nonlinear-free but still assembled-and-solved
// system, flow transport into ground, and per-node reset.
func sourcedLoop(t *testing.T) ([]*node.Node, []link.Link) {
	t.Helper()
	a := node.New(node.Config{Name: "A", InitialState: air()})
	ground := node.New(node.Config{Name: "GND", Ground: true})
	require.NoError(t, a.InitVolume(0.01))
	a.SetPotential(100)

	nodes := []*node.Node{a, ground}

	pot, err := links.NewPotential(links.PotentialConfig{Name: "src", Port: 0, SourcePotential: 150}, nodes, 2)
	require.NoError(t, err)

	cond, err := links.NewConductor(links.ConductorConfig{Name: "cond1", Ports: [2]int{0, 1}, Conductance: 5, Exponent: 1.0}, nodes, 2)
	require.NoError(t, err)

	return nodes, []link.Link{pot, cond}
}

func TestStepDrivesNodeTowardSourcePotential(t *testing.T) {
	nodes, linkset := sourcedLoop(t)
	net, err := New("loop", nodes, linkset, Config{MaxMinorIterations: 10})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, net.Step(0.1))
	}

	assert.Greater(t, nodes[0].Potential(), 100.0)
}

func TestStepCarriesPreviousPotentialForwardEachMajorStep(t *testing.T) {
	nodes, linkset := sourcedLoop(t)
	net, err := New("loop", nodes, linkset, Config{MaxMinorIterations: 10})
	require.NoError(t, err)

	require.NoError(t, net.Step(0.1))
	firstPotential := nodes[0].Potential()
	assert.Equal(t, firstPotential, nodes[0].PreviousPotential())

	require.NoError(t, net.Step(0.1))

	assert.Equal(t, nodes[0].Potential(), nodes[0].PreviousPotential())
}

func TestSolutionReportsEveryNodePotentialInOrder(t *testing.T) {
	nodes, linkset := sourcedLoop(t)
	net, err := New("loop", nodes, linkset, Config{MaxMinorIterations: 10})
	require.NoError(t, err)
	require.NoError(t, net.Step(0.1))

	sol := net.Solution()
	require.Len(t, sol, 2)
	assert.Equal(t, nodes[0].Potential(), sol[0])
	assert.Equal(t, nodes[1].Potential(), sol[1])
}

func TestCapacitanceProbeRunsOnConfiguredInterval(t *testing.T) {
	nodes, linkset := sourcedLoop(t)
	net, err := New("loop", nodes, linkset, Config{MaxMinorIterations: 10, CapacitanceProbeInterval: 2})
	require.NoError(t, err)

	require.NoError(t, net.Step(0.1))
	before := nodes[0].Capacitance()
	require.NoError(t, net.Step(0.1))

	assert.NotEqual(t, 0.0, nodes[0].Capacitance())
	_ = before
}
