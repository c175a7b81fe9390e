// Package netconfig loads and validates a network topology description from
// YAML, adapting the teacher's pkg/netlist parser's validate-on-load
// posture (fail fast with a descriptive error rather than deferring to
// construction time) to a declarative config format instead of a SPICE
// netlist grammar — the network solver has a fixed, small set of link
// kinds (Conductor/Potential/MultiInputSupply/Fan) rather than an open
// SPICE element vocabulary, so a flat typed struct fits better than a
// parameterized element/device-factory pair.
package netconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NodeConfig describes one network node.
type NodeConfig struct {
	Name   string  `yaml:"name"`
	Ground bool    `yaml:"ground"`
	Volume float64 `yaml:"volume"`

	Phase       string   `yaml:"phase"` // "gas" or "liquid"
	Density     float64  `yaml:"density"`
	Temperature float64  `yaml:"temperature"`
	Pressure    float64  `yaml:"pressure"`
	Potential   float64  `yaml:"potential"`
	Fractions   []float64 `yaml:"massFractions"`
}

// LinkConfig describes one link. Type selects which fields apply;
// irrelevant fields for a given type are ignored.
type LinkConfig struct {
	Type string `yaml:"type"` // conductor, potential, supply, fan
	Name string `yaml:"name"`

	// conductor
	Ports       []int   `yaml:"ports"`
	Conductance float64 `yaml:"conductance"`
	Exponent    float64 `yaml:"exponent"`

	// potential
	Port            int     `yaml:"port"`
	SourcePotential float64 `yaml:"sourcePotential"`
	ExpansionScale  float64 `yaml:"expansionScale"`

	// supply
	PowerConsumed       float64 `yaml:"powerConsumed"`
	UnderVoltageLimit   float64 `yaml:"underVoltageLimit"`
	BackupVoltageThresh float64 `yaml:"backupVoltageThreshold"`
	PotentialTolerance  float64 `yaml:"potentialTolerance"`
	CommandOnUsed       bool    `yaml:"commandOnUsed"`
	MaxSwitchesPerStep  int     `yaml:"maxSwitchesPerStep"`

	// fan
	ReferenceDensity float64    `yaml:"referenceDensity"`
	ReferenceCoeffs  []float64  `yaml:"referenceCoeffs"`
	ReferenceQMax    float64    `yaml:"referenceQMax"`
	FilterGain       float64    `yaml:"filterGain"`
}

// Constituent describes one fluid compound shared by every node, matching
// pkg/fluid.Constituent's fields.
type Constituent struct {
	Name       string  `yaml:"name"`
	MolarMW    float64 `yaml:"molarMW"`
	GammaRatio float64 `yaml:"gammaRatio"`
}

// NetworkConfig is the top-level YAML document: a title, the shared
// constituent list, and the node/link lists.
type NetworkConfig struct {
	Title        string        `yaml:"title"`
	Constituents []Constituent `yaml:"constituents"`
	Nodes        []NodeConfig  `yaml:"nodes"`
	Links        []LinkConfig  `yaml:"links"`
}

// Load reads and validates a NetworkConfig from path.
func Load(path string) (*NetworkConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("netconfig: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates and unmarshals raw YAML bytes into a NetworkConfig.
func Parse(data []byte) (*NetworkConfig, error) {
	var cfg NetworkConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("netconfig: invalid YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the structural invariants a Network builder relies on:
// unique non-empty node names, exactly one ground node, link port indices
// that resolve against the node list, and a recognized link type per entry.
// Per-link numeric constraints (e.g. a conductor's exponent range) are left
// to the concrete link constructors, which already enforce them and are the
// single source of truth for that validation.
func (c *NetworkConfig) Validate() error {
	if len(c.Nodes) == 0 {
		return fmt.Errorf("netconfig: network has no nodes")
	}

	seen := make(map[string]bool, len(c.Nodes))
	groundCount := 0
	for i, n := range c.Nodes {
		if n.Name == "" {
			return fmt.Errorf("netconfig: node[%d] has no name", i)
		}
		if seen[n.Name] {
			return fmt.Errorf("netconfig: duplicate node name %q", n.Name)
		}
		seen[n.Name] = true
		if n.Ground {
			groundCount++
		}
	}
	if groundCount != 1 {
		return fmt.Errorf("netconfig: network must have exactly one ground node, found %d", groundCount)
	}

	for i, l := range c.Links {
		if l.Name == "" {
			return fmt.Errorf("netconfig: link[%d] has no name", i)
		}
		switch l.Type {
		case "conductor", "potential", "supply", "fan":
		case "":
			return fmt.Errorf("netconfig: link %q has no type", l.Name)
		default:
			return fmt.Errorf("netconfig: link %q has unrecognized type %q", l.Name, l.Type)
		}
		for _, p := range l.Ports {
			if p < 0 || p >= len(c.Nodes) {
				return fmt.Errorf("netconfig: link %q references out-of-range node index %d", l.Name, p)
			}
		}
		if l.Type == "potential" && (l.Port < 0 || l.Port >= len(c.Nodes)) {
			return fmt.Errorf("netconfig: link %q references out-of-range node index %d", l.Name, l.Port)
		}
	}

	return nil
}

// NodeIndex returns the index of the node named name, or -1 if absent.
func (c *NetworkConfig) NodeIndex(name string) int {
	for i, n := range c.Nodes {
		if n.Name == name {
			return i
		}
	}
	return -1
}
