package main

import (
	"fmt"

	"github.com/nasa-gunns/gunns-go/pkg/fluid"
	"github.com/nasa-gunns/gunns-go/pkg/link"
	"github.com/nasa-gunns/gunns-go/pkg/links"
	"github.com/nasa-gunns/gunns-go/pkg/netconfig"
	"github.com/nasa-gunns/gunns-go/pkg/node"
)

// buildNetwork turns a validated NetworkConfig into the node and link
// slices network.New expects, resolving each link's port indices against
// cfg.Nodes in declaration order.
func buildNetwork(cfg *netconfig.NetworkConfig) ([]*node.Node, []link.Link, error) {
	constituents := make([]fluid.Constituent, len(cfg.Constituents))
	for i, c := range cfg.Constituents {
		constituents[i] = fluid.Constituent{Name: c.Name, MolarMW: c.MolarMW, GammaRatio: c.GammaRatio}
	}

	nodes := make([]*node.Node, len(cfg.Nodes))
	for i, nc := range cfg.Nodes {
		phase := fluid.Gas
		if nc.Phase == "liquid" {
			phase = fluid.Liquid
		}
		nd := node.New(node.Config{
			Name:   nc.Name,
			Ground: nc.Ground,
			InitialState: fluid.State{
				Phase:         phase,
				Constituents:  constituents,
				MassFractions: nc.Fractions,
				Density:       nc.Density,
				Temperature:   nc.Temperature,
				Pressure:      nc.Pressure,
			},
		})
		if nc.Volume > 0 {
			if err := nd.InitVolume(nc.Volume); err != nil {
				return nil, nil, fmt.Errorf("node %q: %w", nc.Name, err)
			}
		}
		if nc.Potential != 0 {
			nd.SetPotential(nc.Potential)
		} else if nc.Pressure != 0 {
			nd.SetPotential(nc.Pressure)
		}
		nodes[i] = nd
	}

	nodeCount := len(nodes)
	linkset := make([]link.Link, len(cfg.Links))
	for i, lc := range cfg.Links {
		l, err := buildLink(lc, nodes, nodeCount)
		if err != nil {
			return nil, nil, fmt.Errorf("link %q: %w", lc.Name, err)
		}
		linkset[i] = l
	}

	return nodes, linkset, nil
}

func buildLink(lc netconfig.LinkConfig, nodes []*node.Node, nodeCount int) (link.Link, error) {
	switch lc.Type {
	case "conductor":
		var ports [2]int
		copy(ports[:], lc.Ports)
		return links.NewConductor(links.ConductorConfig{
			Name:        lc.Name,
			Ports:       ports,
			Conductance: lc.Conductance,
			Exponent:    lc.Exponent,
		}, nodes, nodeCount)

	case "potential":
		return links.NewPotential(links.PotentialConfig{
			Name:            lc.Name,
			Port:            lc.Port,
			SourcePotential: lc.SourcePotential,
			ExpansionScale:  lc.ExpansionScale,
		}, nodes, nodeCount)

	case "supply":
		return links.NewMultiInputSupply(links.MultiInputSupplyConfig{
			Name:                lc.Name,
			Ports:               lc.Ports,
			PowerConsumed:       lc.PowerConsumed,
			UnderVoltageLimit:   lc.UnderVoltageLimit,
			BackupVoltageThresh: lc.BackupVoltageThresh,
			PotentialTolerance:  lc.PotentialTolerance,
			CommandOnUsed:       lc.CommandOnUsed,
			MaxSwitchesPerStep:  lc.MaxSwitchesPerStep,
		}, nodes, nodeCount)

	case "fan":
		var ports [2]int
		copy(ports[:], lc.Ports)
		var coeffs [6]float64
		copy(coeffs[:], lc.ReferenceCoeffs)
		return links.NewFan(links.FanConfig{
			Name:             lc.Name,
			Ports:            ports,
			ReferenceDensity: lc.ReferenceDensity,
			ReferenceCoeffs:  coeffs,
			ReferenceQMax:    lc.ReferenceQMax,
			FilterGain:       lc.FilterGain,
		}, nodes, nodeCount)

	default:
		return nil, fmt.Errorf("unrecognized link type %q", lc.Type)
	}
}
