package links

import (
	"testing"

	"github.com/nasa-gunns/gunns-go/pkg/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fourInputNetwork(t *testing.T) []*node.Node {
	t.Helper()
	names := []string{"A", "B", "C", "D"}
	potentials := []float64{124.5, 124.5, 124.5, 0.0}
	nodes := make([]*node.Node, len(names))
	for i, name := range names {
		n := node.New(node.Config{Name: name, InitialState: air()})
		require.NoError(t, n.InitVolume(0.01))
		n.SetPotential(potentials[i])
		nodes[i] = n
	}
	return nodes
}

func TestMultiInputSupplyStaysOffWithoutCommand(t *testing.T) {
	nodes := fourInputNetwork(t)
	s, err := NewMultiInputSupply(MultiInputSupplyConfig{
		Name:                "ips1",
		Ports:               []int{0, 1, 2, 3},
		PowerConsumed:       100,
		UnderVoltageLimit:   105,
		BackupVoltageThresh: 190,
		PotentialTolerance:  1,
		CommandOnUsed:       true,
		MaxSwitchesPerStep:  4,
	}, nodes, 4)
	require.NoError(t, err)

	require.NoError(t, s.Step(0.1))
	v := s.ConfirmSolutionAcceptable(1, 1)
	assert.Equal(t, -1, s.ActiveSource())
	_ = v
}

func TestMultiInputSupplySelectsFirstInputWhenCommandedOn(t *testing.T) {
	nodes := fourInputNetwork(t)
	s, err := NewMultiInputSupply(MultiInputSupplyConfig{
		Name:                "ips1",
		Ports:               []int{0, 1, 2, 3},
		PowerConsumed:       100,
		UnderVoltageLimit:   105,
		BackupVoltageThresh: 190,
		PotentialTolerance:  1,
		CommandOnUsed:       true,
		MaxSwitchesPerStep:  4,
	}, nodes, 4)
	require.NoError(t, err)

	s.SetCommandOn(true)
	require.NoError(t, s.Step(0.1))
	vote := s.ConfirmSolutionAcceptable(1, 1)
	assert.Equal(t, 0, s.ActiveSource())
	assert.Equal(t, "REJECT", vote.String())
}

func TestMultiInputSupplySwitchBudgetResetsEachMajorStep(t *testing.T) {
	nodes := fourInputNetwork(t)
	s, err := NewMultiInputSupply(MultiInputSupplyConfig{
		Name:                "ips1",
		Ports:               []int{0, 1, 2, 3},
		PowerConsumed:       100,
		UnderVoltageLimit:   105,
		BackupVoltageThresh: 190,
		PotentialTolerance:  1,
		CommandOnUsed:       true,
		MaxSwitchesPerStep:  1,
	}, nodes, 4)
	require.NoError(t, err)

	s.SetCommandOn(true)
	require.NoError(t, s.Step(0.1))
	vote := s.ConfirmSolutionAcceptable(1, 1)
	assert.Equal(t, "REJECT", vote.String())
	assert.Equal(t, 1, s.switches)

	// ComputeFlows runs once the minor-step loop converges, ending the
	// major step; the switch budget must renew for the next one.
	require.NoError(t, s.ComputeFlows(0.1))
	assert.Equal(t, 0, s.switches)
}

func TestMultiInputSupplyRejectsIndexOutOfRange(t *testing.T) {
	nodes := fourInputNetwork(t)
	s, err := NewMultiInputSupply(MultiInputSupplyConfig{
		Name: "ips1", Ports: []int{0, 1, 2, 3}, UnderVoltageLimit: 105, BackupVoltageThresh: 190,
	}, nodes, 4)
	require.NoError(t, err)
	assert.Error(t, s.SetInputDisabled(9, true))
}
