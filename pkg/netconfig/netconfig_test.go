package netconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
title: two node loop
constituents:
  - name: N2
    molarMW: 0.028
    gammaRatio: 1.4
nodes:
  - name: A
    volume: 0.01
    pressure: 124.5
  - name: GND
    ground: true
links:
  - type: conductor
    name: cond1
    ports: [0, 1]
    conductance: 10.0
    exponent: 1.0
`

func TestParseValidNetwork(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)
	assert.Equal(t, "two node loop", cfg.Title)
	assert.Equal(t, 2, len(cfg.Nodes))
	assert.Equal(t, 1, cfg.NodeIndex("GND"))
}

func TestParseRejectsMissingGround(t *testing.T) {
	const noGround = `
nodes:
  - name: A
    volume: 0.01
links: []
`
	_, err := Parse([]byte(noGround))
	assert.Error(t, err)
}

func TestParseRejectsUnrecognizedLinkType(t *testing.T) {
	const badLink = `
nodes:
  - name: A
    volume: 0.01
  - name: GND
    ground: true
links:
  - type: turbine
    name: t1
    ports: [0, 1]
`
	_, err := Parse([]byte(badLink))
	assert.Error(t, err)
}

func TestParseRejectsOutOfRangePort(t *testing.T) {
	const badPort = `
nodes:
  - name: A
    volume: 0.01
  - name: GND
    ground: true
links:
  - type: conductor
    name: cond1
    ports: [0, 5]
    conductance: 10.0
`
	_, err := Parse([]byte(badPort))
	assert.Error(t, err)
}

func TestParseRejectsDuplicateNodeNames(t *testing.T) {
	const dup = `
nodes:
  - name: A
    volume: 0.01
  - name: A
    ground: true
links: []
`
	_, err := Parse([]byte(dup))
	assert.Error(t, err)
}
